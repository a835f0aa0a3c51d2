package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/refinery/storage"
)

// ResultStore implements storage.ResultStore for BadgerDB.
type ResultStore struct {
	backend *Backend
	owned   bool
}

var _ storage.ResultStore = (*ResultStore)(nil)

// newResultStore is an internal constructor that returns the concrete type.
func newResultStore(backend *Backend, owned bool) *ResultStore {
	return &ResultStore{backend: backend, owned: owned}
}

// NewResultStore creates a result store on an open backend. The caller keeps
// ownership of the backend and closes it separately.
func NewResultStore(backend *Backend) (storage.ResultStore, error) {
	if backend == nil {
		return nil, errors.New("backend required")
	}
	return newResultStore(backend, false), nil
}

// Get retrieves the value stored under key.
func (r *ResultStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key, expiring after ttl when ttl is positive.
func (r *ResultStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes key.
func (r *ResultStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeletePrefix removes every key with the given prefix.
func (r *ResultStore) DeletePrefix(ctx context.Context, prefix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.backend.DropPrefix([]byte(prefix))
}

// Close closes the backend when the store owns it.
func (r *ResultStore) Close() error {
	if !r.owned {
		return nil
	}
	return r.backend.Close()
}
