// Package metadata provides the raw key/value persistence underneath the
// client's credential store. Values are opaque bytes; sealing and string
// handling live one layer up in securestore.
//
// Three backends share one contract: SQLite (default, schema managed by goose
// migrations), BBolt and an in-process map. Every call is atomic on its own;
// there are no multi-key transactions.
package metadata

import (
	"context"
)

// Repository is a flat key/value store.
//
// Get returns (nil, nil) when the key is absent. Delete of an absent key is
// not an error. List returns every pair whose key starts with prefix; an
// empty prefix lists everything.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	Close() error
}
