package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// GenerateReferralCode generates a unique referral code for a user.
// Format: TN-{RANDOM} where RANDOM is 6 alphanumeric characters.
func GenerateReferralCode() (string, error) {
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	// Base32 keeps the code readable over the phone
	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:6])

	return "TN-" + randomStr, nil
}
