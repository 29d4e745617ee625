package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailtrim"

// ErrNotFound is returned when no password is stored for the account.
var ErrNotFound = errors.New("credential not found")

// Store keeps IMAP passwords keyed by account name.
type Store struct {
	ring keyring.Keyring
}

// Open returns a Store backed by the OS keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailtrim/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailtrim-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an existing keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func (s *Store) Get(account string) (string, error) {
	item, err := s.ring.Get(account)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, account)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", account, err)
	}
	return string(item.Data), nil
}

func (s *Store) Set(account, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:   account,
		Data:  []byte(password),
		Label: "mailtrim IMAP password",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", account, err)
	}
	return nil
}

func (s *Store) Delete(account string) error {
	if err := s.ring.Remove(account); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, account)
		}
		return fmt.Errorf("deleting credential %q: %w", account, err)
	}
	return nil
}
