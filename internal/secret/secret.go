// Package secret is the secret-store collaborator (spec.md §6): password
// and OAuth2 token storage backed by the OS secret service (KWallet, GNOME
// Keyring, etc. via zalando/go-keyring).
package secret

import (
	"errors"

	"github.com/ravend/ravend/internal/logging"
	gokeyring "github.com/zalando/go-keyring"
)

const serviceName = "ravend"

// ErrNotFound is returned by Read when no secret is stored for the key.
var ErrNotFound = errors.New("secret not found")

// Store implements imapconn.SecretStore and bus.Secrets against the OS
// keyring, keyed by the caller-supplied key (e.g. "{accountId}-imapPassword").
type Store struct{}

// New builds a keyring-backed secret store.
func New() *Store {
	return &Store{}
}

// Read returns the stored secret for key, or ErrNotFound if absent.
func (s *Store) Read(key string) (string, error) {
	value, err := gokeyring.Get(serviceName, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Write stores a secret under key, overwriting any existing value.
func (s *Store) Write(key, value string) error {
	return gokeyring.Set(serviceName, key, value)
}

// Delete removes a secret. A missing entry is not an error (spec.md §6
// "DeletePassword ... true if deleted (or didn't exist)").
func (s *Store) Delete(key string) error {
	log := logging.WithComponent("secret")
	err := gokeyring.Delete(serviceName, key)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("failed to delete secret")
	}
	return err
}
