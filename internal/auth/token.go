// Package auth owns the single shared secret protecting the gateway: its
// generation, on-disk persistence, and validation of presented bearer
// credentials.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/trapdoor-ai/trapdoor/internal/apierr"
)

// tokenBytes is the raw entropy of a generated token (128 bits, hex-encoded
// to 32 characters).
const tokenBytes = 16

// LoadOrCreateToken reads the secret token from path, generating and
// persisting a fresh one on first run. The token file is owner-read/write
// only; it is never rotated automatically.
func LoadOrCreateToken(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("auth: create token directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		token := strings.TrimSpace(string(data))
		if token != "" {
			return token, nil
		}
		// Empty token file is useless; fall through and regenerate.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("auth: read token file: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("auth: write token file: %w", err)
	}
	return token, nil
}

func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Authenticator validates presented bearer credentials against the
// process-wide secret. The secret is immutable for the server's lifetime.
type Authenticator struct {
	secret string
}

// NewAuthenticator builds an Authenticator for the given secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate checks an Authorization header value. A missing or
// non-bearer header yields an unauthenticated error (401); a well-formed
// bearer token that does not match the secret yields forbidden (403).
func (a *Authenticator) Authenticate(authHeader string) error {
	token, ok := bearerToken(authHeader)
	if !ok {
		return apierr.New(apierr.KindUnauthenticated, "Missing Authorization header")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.secret)) != 1 {
		return apierr.New(apierr.KindForbidden, "Invalid token")
	}
	return nil
}

// AuthenticateRequest checks the Authorization header of an HTTP request.
func (a *Authenticator) AuthenticateRequest(r *http.Request) error {
	return a.Authenticate(r.Header.Get("Authorization"))
}

// bearerToken extracts the token from a "Bearer <token>" header value.
func bearerToken(authHeader string) (string, bool) {
	if authHeader == "" {
		return "", false
	}
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(authHeader[len("bearer "):]), true
}
