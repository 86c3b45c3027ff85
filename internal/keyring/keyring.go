// Package keyring provides access to the system keychain for storing
// the QuickWish session token.
package keyring

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "quickwish"

// Secret represents a named secret stored in the keychain.
type Secret string

const (
	// SessionToken is the keychain entry for the API bearer token.
	SessionToken Secret = "session-token"
)

// Get retrieves a secret value from the system keychain.
func Get(secret Secret) (string, error) {
	value, err := keyring.Get(serviceName, string(secret))
	if err != nil {
		return "", fmt.Errorf("failed to get %s from keychain: %w", secret, err)
	}

	return value, nil
}

// Set stores a secret value in the system keychain.
func Set(secret Secret, value string) error {
	if err := keyring.Set(serviceName, string(secret), value); err != nil {
		return fmt.Errorf("failed to set %s in keychain: %w", secret, err)
	}

	return nil
}

// IsSet checks if a secret exists in the keychain.
func IsSet(secret Secret) bool {
	_, err := keyring.Get(serviceName, string(secret))

	return err == nil
}
