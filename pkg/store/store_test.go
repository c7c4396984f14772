package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestUpdateReadYourWrites(t *testing.T) {
	st := openStore(t)
	err := st.Update(func(tx WriteTx) error {
		if err := tx.Set("trip/a", []byte(`1`)); err != nil {
			return err
		}
		v, ok, err := tx.Get("trip/a")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("write not visible inside its own transaction")
		}
		if string(v) != "1" {
			return errors.New("unexpected value")
		}
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateDiscardsOnError(t *testing.T) {
	st := openStore(t)
	boom := errors.New("boom")
	err := st.Update(func(tx WriteTx) error {
		if err := tx.Set("trip/a", []byte(`1`)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = st.View(func(tx ReadTx) error {
		_, ok, err := tx.Get("trip/a")
		require.NoError(t, err)
		require.False(t, ok, "aborted write leaked into the store")
		return nil
	})
	require.NoError(t, err)
}

func TestScanStopsAtPrefixBoundary(t *testing.T) {
	st := openStore(t)
	err := st.Update(func(tx WriteTx) error {
		for _, k := range []string{"task/1", "task/2", "trip/1", "collaborator/1"} {
			if err := tx.Set(k, []byte(`{}`)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var keys []string
	err = st.View(func(tx ReadTx) error {
		return tx.Scan("task/", func(key string, _ []byte) error {
			keys = append(keys, key)
			return nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []string{"task/1", "task/2"}, keys)
}

func TestViewIsSnapshotIsolated(t *testing.T) {
	st := openStore(t)
	require.NoError(t, st.Update(func(tx WriteTx) error {
		return tx.Set("trip/a", []byte(`1`))
	}))

	err := st.View(func(tx ReadTx) error {
		require.NoError(t, st.Update(func(w WriteTx) error {
			return w.Set("trip/a", []byte(`2`))
		}))
		v, ok, err := tx.Get("trip/a")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "1", string(v), "snapshot saw a concurrent write")
		return nil
	})
	require.NoError(t, err)
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, st.Update(func(tx WriteTx) error {
		return tx.Set("trip/a", []byte(`persisted`))
	}))
	require.NoError(t, st.Close())

	st, err = Open(dir)
	require.NoError(t, err)
	defer st.Close()
	err = st.View(func(tx ReadTx) error {
		v, ok, err := tx.Get("trip/a")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "persisted", string(v))
		return nil
	})
	require.NoError(t, err)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Error(t, st.Update(func(WriteTx) error { return nil }))
	require.Error(t, st.View(func(ReadTx) error { return nil }))
	require.False(t, st.Ready())
}

func TestPendingKeyOrdersNumerically(t *testing.T) {
	// byte order must equal numeric order or pending replay runs out of order
	require.Less(t, PendingKey(2), PendingKey(10))
	require.Less(t, PendingKey(99), PendingKey(100))
}
