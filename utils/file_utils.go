package utils

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const (
	// Base directory for storing uploaded files
	uploadBaseDir = "uploads"
	// Base URL for serving files
	baseURL = "/uploads"
	// Maximum file size (10MB)
	maxFileSize = 10 * 1024 * 1024
)

// Allowed proof image extensions
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// cleanFilename removes any potentially dangerous characters from the filename
func cleanFilename(filename string) string {
	// Remove any path components
	filename = filepath.Base(filename)
	// Remove any non-alphanumeric characters except for dots and hyphens
	reg := regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	return reg.ReplaceAllString(filename, "")
}

// ValidateFileType checks if the file extension is an allowed image format
func ValidateFileType(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}

// InitializeStorage creates necessary directories for file storage
func InitializeStorage() error {
	// Create main uploads directory
	if err := os.MkdirAll(uploadBaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %v", err)
	}

	// Create subdirectories
	dirs := []string{
		filepath.Join(uploadBaseDir, "proofs"),
		filepath.Join(uploadBaseDir, "thumbnails"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}

// UploadProofImage saves a proof-of-work image to local storage and
// returns the URL of the stored file.
func UploadProofImage(fileData []byte, filename string) (string, error) {
	// Validate file size
	if len(fileData) > maxFileSize {
		return "", fmt.Errorf("file too large. Maximum size is %d bytes", maxFileSize)
	}

	// Clean and validate filename
	cleanName := cleanFilename(filename)
	if err := ValidateFileType(cleanName); err != nil {
		return "", err
	}

	// Prefix with a timestamp so repeated uploads never collide
	storedName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), cleanName)
	fullPath := filepath.Join(uploadBaseDir, "proofs", storedName)

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %v", err)
	}

	// Write the file with restricted permissions
	if err := os.WriteFile(fullPath, fileData, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %v", err)
	}

	url := fmt.Sprintf("%s/proofs/%s", baseURL, storedName)
	return url, nil
}

// GenerateProofThumbnail resizes a stored proof image to a 320px-wide
// thumbnail for the review console list views.
func GenerateProofThumbnail(imageURL string) (string, error) {
	imagePath := strings.TrimPrefix(imageURL, baseURL+"/")
	fullImagePath := filepath.Join(uploadBaseDir, imagePath)

	imageData, err := os.ReadFile(fullImagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read proof image: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("failed to decode proof image: %v", err)
	}

	// Resize to max width of 320px while maintaining aspect ratio
	resized := imaging.Resize(img, 320, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %v", err)
	}

	imageFilename := filepath.Base(imagePath)
	thumbnailFilename := fmt.Sprintf("thumbnails/%s.jpg", strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename)))
	fullThumbnailPath := filepath.Join(uploadBaseDir, thumbnailFilename)

	if err := os.MkdirAll(filepath.Dir(fullThumbnailPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %v", err)
	}

	if err := os.WriteFile(fullThumbnailPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %v", err)
	}

	thumbnailURL := fmt.Sprintf("%s/%s", baseURL, thumbnailFilename)
	return thumbnailURL, nil
}

// ServeFiles handles serving uploaded files
func ServeFiles(w http.ResponseWriter, r *http.Request) {
	// Get the file path from the URL
	path := strings.TrimPrefix(r.URL.Path, baseURL)
	fullPath := filepath.Join(uploadBaseDir, path)

	// Check if file exists
	info, err := os.Stat(fullPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	// Don't allow directory listing
	if info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// Set cache headers
	w.Header().Set("Cache-Control", "public, max-age=31536000") // Cache for 1 year
	w.Header().Set("Expires", time.Now().AddDate(1, 0, 0).Format(time.RFC1123))

	// Serve the file
	http.ServeFile(w, r, fullPath)
}
