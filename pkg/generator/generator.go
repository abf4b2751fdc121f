package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewToken returns a time-ordered random token (UUID version 7).
func NewToken() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("token gen error: %w", err)
	}
	return id.String(), nil
}

// HashToken returns the hex SHA-256 of token, the form sessions are stored under.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
