package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "watertracker"

// PushTokenKey is the keyring key for the push endpoint token.
const PushTokenKey = "push-token"

// PushTokenEnv overrides the keyring lookup when set.
const PushTokenEnv = "WATERTRACKER_PUSH_TOKEN"

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/watertracker/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("watertracker-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       "Water Tracker " + key,
		Description: "Water Tracker credential",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

// PushToken returns the push token from the environment or the keyring.
// A missing token is not an error; the empty string is returned.
func PushToken() (string, error) {
	if tok := os.Getenv(PushTokenEnv); tok != "" {
		return tok, nil
	}
	tok, err := Get(PushTokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return tok, err
}
