package store

import (
	"bytes"
	"errors"

	"github.com/cockroachdb/pebble"
)

// ReadTx is the read half of a transaction. Scan visits keys in ascending
// byte order, which is what gives fractional-index positions their trip-wide
// ordering for free.
type ReadTx interface {
	// Get returns the value for key and whether it exists.
	Get(key string) ([]byte, bool, error)
	// Scan visits every key starting with prefix, in key order. Returning
	// a non-nil error from fn stops the scan and propagates the error.
	Scan(prefix string, fn func(key string, value []byte) error) error
}

// WriteTx extends ReadTx with mutations. Reads observe writes made earlier
// in the same transaction.
type WriteTx interface {
	ReadTx
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error
}

type readTx struct {
	r pebble.Reader
}

func (t *readTx) Get(key string) ([]byte, bool, error) {
	return get(t.r, key)
}

func (t *readTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	return scan(t.r, prefix, fn)
}

type writeTx struct {
	b *pebble.Batch
}

func (t *writeTx) Get(key string) ([]byte, bool, error) {
	return get(t.b, key)
}

func (t *writeTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	return scan(t.b, prefix, fn)
}

func (t *writeTx) Set(key string, value []byte) error {
	return t.b.Set([]byte(key), value, nil)
}

func (t *writeTx) Delete(key string) error {
	return t.b.Delete([]byte(key), nil)
}

func get(r pebble.Reader, key string) ([]byte, bool, error) {
	v, closer, err := r.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, true, nil
}

func scan(r pebble.Reader, prefix string, fn func(key string, value []byte) error) error {
	iter, err := r.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		k := string(iter.Key())
		v := append([]byte(nil), iter.Value()...)
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return iter.Error()
}
