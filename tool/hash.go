package tool

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateShortID returns a short alphanumeric ID (8 hex chars) used to prefix stored uploads.
// Shorter than UUID so folder names stay readable.
func GenerateShortID() string {
	b := make([]byte, 4) // 4 bytes = 8 hex chars
	if _, err := rand.Read(b); err != nil {
		return GenerateRandomUUID()[:8] // fallback
	}
	return hex.EncodeToString(b)
}

// GenerateSessionToken returns an opaque browser session token.
func GenerateSessionToken() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return GenerateShortID() + GenerateShortID()
	}
	return id.String()
}
