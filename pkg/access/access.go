// Package access provides per-entity CRUD primitives over a caller-supplied
// store transaction. Accessors never open their own transaction; atomicity
// belongs to the mutator that owns the transaction.
package access

import (
	"encoding/json"
	"errors"
	"fmt"

	"tripsync/pkg/store"
)

// ErrNotFound is returned by Patch* when the target record is absent. A
// patch never silently creates.
var ErrNotFound = errors.New("record not found")

func put(tx store.WriteTx, key string, rec any) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return tx.Set(key, b)
}

func get[T any](tx store.ReadTx, key string) (*T, error) {
	v, ok, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	var rec T
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &rec, nil
}

func list[T any](tx store.ReadTx, prefix string) ([]T, error) {
	var out []T
	err := tx.Scan(prefix, func(key string, value []byte) error {
		var rec T
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("unmarshal %s: %w", key, err)
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}
