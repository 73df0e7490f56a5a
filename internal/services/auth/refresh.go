package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

func randomToken(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func NewRefreshToken() (string, error) {
	return randomToken(32)
}

func NewSessionID() (string, error) {
	return randomToken(20)
}
