package keychain

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "bingobot"

	// TokenAccount is the keychain account holding the bot token.
	TokenAccount = "bot_token"
)

// ErrNotFound is returned when the keychain has no entry for an account.
var ErrNotFound = errors.New("keychain entry not found")

// Get retrieves a secret from the system keychain.
func Get(account string) (string, error) {
	v, err := keyring.Get(serviceName, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keychain get %s: %w", account, err)
	}
	return v, nil
}

// Set stores a secret in the system keychain.
func Set(account, value string) error {
	if err := keyring.Set(serviceName, account, value); err != nil {
		return fmt.Errorf("keychain set %s: %w", account, err)
	}
	return nil
}
