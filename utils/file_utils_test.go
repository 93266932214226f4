package utils

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chtemp runs the test inside a throwaway working directory so uploads land
// under a fresh uploads/ tree.
func chtemp(t *testing.T) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(old) })
}

func encodeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestValidateFileType(t *testing.T) {
	assert.NoError(t, ValidateFileType("receipt.jpg"))
	assert.NoError(t, ValidateFileType("receipt.PNG"))
	assert.Error(t, ValidateFileType("receipt.pdf"))
	assert.Error(t, ValidateFileType("receipt.exe"))
	assert.Error(t, ValidateFileType("noextension"))
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "passwd", cleanFilename("../../etc/passwd"))
	assert.Equal(t, "myreceipt.png", cleanFilename("my receipt!.png"))
	assert.Equal(t, "proof-2.jpg", cleanFilename("proof-2.jpg"))
}

func TestUploadProofImage(t *testing.T) {
	chtemp(t)
	require.NoError(t, InitializeStorage())

	data := encodeTestImage(t, 40, 30)
	url, err := UploadProofImage(data, "receipt.jpg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/proofs/"))
	assert.True(t, strings.HasSuffix(url, "_receipt.jpg"))

	stored := filepath.Join("uploads", strings.TrimPrefix(url, "/uploads/"))
	onDisk, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)
}

func TestUploadProofImageRejectsBadInput(t *testing.T) {
	chtemp(t)
	require.NoError(t, InitializeStorage())

	_, err := UploadProofImage([]byte("not an image"), "invoice.pdf")
	assert.Error(t, err)

	_, err = UploadProofImage(make([]byte, maxFileSize+1), "huge.jpg")
	assert.Error(t, err)
}

func TestGenerateProofThumbnail(t *testing.T) {
	chtemp(t)
	require.NoError(t, InitializeStorage())

	url, err := UploadProofImage(encodeTestImage(t, 1000, 800), "proof.jpg")
	require.NoError(t, err)

	thumbURL, err := GenerateProofThumbnail(url)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(thumbURL, "/uploads/thumbnails/"))

	thumbPath := filepath.Join("uploads", strings.TrimPrefix(thumbURL, "/uploads/"))
	f, err := os.Open(thumbPath)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}

func TestGenerateProofThumbnailMissingFile(t *testing.T) {
	chtemp(t)
	require.NoError(t, InitializeStorage())

	_, err := GenerateProofThumbnail("/uploads/proofs/never-uploaded.jpg")
	assert.Error(t, err)
}
