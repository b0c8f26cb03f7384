package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// SigningSecrets is a pair of distinct token signing secrets
type SigningSecrets struct {
	Access  string
	Refresh string
}

// NewSigningSecrets returns two random hex secrets of at least minLength characters
func NewSigningSecrets(minLength int) (SigningSecrets, error) {
	// two hex characters per byte, never below 256 bits
	size := (minLength + 1) / 2
	if size < 32 {
		size = 32
	}

	access, err := randomHex(size)
	if err != nil {
		return SigningSecrets{}, fmt.Errorf("failed to generate access secret: %w", err)
	}
	refresh, err := randomHex(size)
	if err != nil {
		return SigningSecrets{}, fmt.Errorf("failed to generate refresh secret: %w", err)
	}

	return SigningSecrets{Access: access, Refresh: refresh}, nil
}

func randomHex(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
