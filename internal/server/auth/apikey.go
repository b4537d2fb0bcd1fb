package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/gigmatch/livesync/internal/common"
)

// HashAPIKey derives the bcrypt hash stored in server configuration.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey checks a presented key against the configured hash.
func VerifyAPIKey(key, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return common.ErrInvalidAPIKey
	}
	return nil
}
