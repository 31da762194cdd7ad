// Package securestore is the client's credential store: a string key/value
// API over a metadata.Repository with every value sealed by AES-256-GCM.
//
// The sealing key is derived with argon2id from a caller-supplied secret and
// a random per-store salt, and is held in a memguard Enclave between calls.
// With an empty secret values are stored as-is, which is only meant for
// development and tests.
//
// Each call is atomic on its own. Callers that touch several keys issue them
// one after another and must tolerate a crash in between.
package securestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/cryptox"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

// saltKey holds the KDF salt. It is never sealed and never listed.
const saltKey = "__securestore.salt"

// ErrUnreadable means a stored value could not be unsealed, typically because
// the store was opened with a different secret.
var ErrUnreadable = errors.New("credential unreadable")

// CredentialStore is the persistence contract the session engine and the
// countdown timer depend on. Get reports ok=false for an absent key.
type CredentialStore interface {
	Save(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Delete(ctx context.Context, key string) error
}

// Store implements CredentialStore.
type Store struct {
	repo metadata.Repository
	key  *memguard.Enclave
}

var _ CredentialStore = (*Store)(nil)

// New opens a store over repo. A non-empty secret enables sealing; the salt
// is created on first use and persisted in repo.
func New(ctx context.Context, repo metadata.Repository, secret []byte, log logging.Logger) (*Store, error) {
	log = logging.OrNop(log)

	if len(secret) == 0 {
		log.Warn(ctx, "credential store opened without a secret, values are stored unsealed")
		return NewPlain(repo), nil
	}

	salt, err := repo.Get(ctx, saltKey)
	if err != nil {
		return nil, fmt.Errorf("reading store salt: %w", err)
	}
	if salt == nil {
		salt = common.GenerateRandByteArray(cryptox.SaltSize)
		if err := repo.Set(ctx, saltKey, salt); err != nil {
			return nil, fmt.Errorf("writing store salt: %w", err)
		}
	}

	// NewEnclave wipes the derived key slice
	return &Store{repo: repo, key: memguard.NewEnclave(cryptox.DeriveKey(secret, salt))}, nil
}

// NewPlain returns an unsealed store over repo.
func NewPlain(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

// Sealed reports whether values are encrypted at rest.
func (s *Store) Sealed() bool {
	return s.key != nil
}

func (s *Store) Save(ctx context.Context, key, value string) error {
	data := []byte(value)
	if s.key != nil {
		k, err := s.key.Open()
		if err != nil {
			return fmt.Errorf("opening store key: %w", err)
		}
		defer k.Destroy()

		data, err = cryptox.Seal(k.Bytes(), data, []byte(key))
		if err != nil {
			return fmt.Errorf("sealing %s: %w", key, err)
		}
	}
	return s.repo.Set(ctx, key, data)
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if data == nil {
		return "", false, nil
	}
	if s.key == nil {
		return string(data), true, nil
	}

	k, err := s.key.Open()
	if err != nil {
		return "", false, fmt.Errorf("opening store key: %w", err)
	}
	defer k.Destroy()

	plain, err := cryptox.Open(k.Bytes(), data, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", key, ErrUnreadable)
	}
	return string(plain), true, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

// Keys lists stored keys starting with prefix in lexical order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	pairs, err := s.repo.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		if k == saltKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Purge deletes every key starting with prefix, one key at a time. An empty
// prefix is rejected so a caller cannot wipe the salt by accident.
func (s *Store) Purge(ctx context.Context, prefix string) error {
	if strings.TrimSpace(prefix) == "" {
		return errors.New("purge requires a prefix")
	}
	keys, err := s.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.repo.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
