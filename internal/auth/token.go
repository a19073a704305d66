// Package auth resolves the bearer token used for the backend session.
package auth

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

// keyringService namespaces redistq secrets in the OS keyring.
const keyringService = "redistq"

// Token returns the backend bearer token: the environment variable wins,
// the OS keyring (keyed by site code) is the fallback.
func Token(envVar, siteCode string) (string, error) {
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}

	tok, err := keyring.Get(keyringService, siteCode)
	if err != nil {
		return "", fmt.Errorf("no token in $%s and keyring lookup failed for site %s: %w", envVar, siteCode, err)
	}
	return tok, nil
}

// StoreToken saves the token for a site in the OS keyring.
func StoreToken(siteCode, token string) error {
	if err := keyring.Set(keyringService, siteCode, token); err != nil {
		return fmt.Errorf("store token for site %s: %w", siteCode, err)
	}
	return nil
}
