package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// GenerateParticipantID - generates a new unique participant id for a connection.
func GenerateParticipantID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "error-generating-participant-id"
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

// GenerateSessionID - generates a unique identifier for a game session.
func GenerateSessionID() string {
	n, err := rand.Int(rand.Reader, big.NewInt(99999999))
	if err != nil {
		return ""
	}
	return n.String()
}
