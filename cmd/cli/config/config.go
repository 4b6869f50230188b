package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".ammotrack_token"
)

// ErrNotLoggedIn is returned by LoadToken when no token has been saved.
var ErrNotLoggedIn = errors.New("not logged in: run `ammotrack login` first")

// APIURL returns the base URL for the AmmoTrack API.
// It can be overridden with the AMMOTRACK_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("AMMOTRACK_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// TokenPath is where the JWT is kept between commands. AMMOTRACK_TOKEN_FILE
// overrides the default of ~/.ammotrack_token.
func TokenPath() string {
	if v := os.Getenv("AMMOTRACK_TOKEN_FILE"); v != "" {
		return v
	}
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}

func SaveToken(token string) error {
	return os.WriteFile(TokenPath(), []byte(token), 0o600)
}

func LoadToken() (string, error) {
	data, err := os.ReadFile(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", ErrNotLoggedIn
	}
	return tok, nil
}

// ClearToken removes the saved token. It reports whether one existed.
func ClearToken() (bool, error) {
	err := os.Remove(TokenPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}
