package shared

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringUser = "api-token"

// SaveToken persists the engagement API token to the system keyring.
func SaveToken(token string) error {
	if token == "" {
		return fmt.Errorf("%w: token", ErrMissingArgument)
	}
	return keyring.Set(appName, keyringUser, token)
}

// LoadToken retrieves the engagement API token from the system keyring.
//
// A missing entry is not an error; it yields an empty token.
func LoadToken() (string, error) {
	token, err := keyring.Get(appName, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// DeleteToken removes the stored token.
func DeleteToken() error {
	err := keyring.Delete(appName, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
