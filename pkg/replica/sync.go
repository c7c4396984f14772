package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tripsync/pkg/logger"
	"tripsync/pkg/mutate"
	"tripsync/pkg/protocol"
	"tripsync/pkg/store"
)

// Push transmits the durable pending log to the server. Failures are not
// fatal: the mutations stay queued and the next poke, pull or mutation
// retries. Only one push runs at a time; a concurrent call returns
// immediately.
func (r *Replica) Push(ctx context.Context) error {
	if !r.pushMu.TryLock() {
		return nil
	}
	defer r.pushMu.Unlock()
	if r.opts.PushURL == "" {
		return nil
	}

	pending, err := r.pendingMutations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	req := protocol.PushRequest{ClientID: r.opts.ClientID, Mutations: pending}
	var resp protocol.PushResponse
	if err := r.post(ctx, r.opts.PushURL, req, &resp); err != nil {
		return fmt.Errorf("push: %w", err)
	}
	logger.Debug("push_sent", "client", r.opts.ClientID,
		"mutations", len(pending), "acked_through", resp.LastMutationID)
	return nil
}

// Pull fetches the authoritative diff and reconciles the local replica.
// It never interleaves two pulls: a request arriving while one is in
// flight sets a flag and the running pull loops once more when done.
func (r *Replica) Pull(ctx context.Context) error {
	if !r.pullMu.TryLock() {
		r.mu.Lock()
		r.pullAgain = true
		r.mu.Unlock()
		return nil
	}
	defer r.pullMu.Unlock()

	for {
		if err := r.pullOnce(ctx); err != nil {
			return err
		}
		r.mu.Lock()
		again := r.pullAgain
		r.pullAgain = false
		r.mu.Unlock()
		if !again {
			return nil
		}
	}
}

func (r *Replica) pullOnce(ctx context.Context) error {
	if r.opts.PullURL == "" {
		return nil
	}
	var cookie string
	if err := r.st.View(func(tx store.ReadTx) error {
		v, ok, err := tx.Get(store.CookieKey)
		if err != nil {
			return err
		}
		if ok {
			cookie = string(v)
		}
		return nil
	}); err != nil {
		return err
	}

	req := protocol.PullRequest{ClientID: r.opts.ClientID, Cookie: cookie}
	var resp protocol.PullResponse
	if err := r.post(ctx, r.opts.PullURL, req, &resp); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	if resp.Cookie == cookie && len(resp.Patch) == 0 && resp.LastMutationID == 0 {
		return nil
	}

	var touched []string
	err := r.st.Update(func(wtx store.WriteTx) error {
		tx := &trackingTx{WriteTx: wtx}
		defer func() { touched = tx.keys }()
		if err := applyPatch(tx, resp.Patch); err != nil {
			return err
		}
		// drop pending mutations the server has processed, replay the rest
		// on top of the authoritative base. Entries are collected before
		// any write so the scan iterator never races the batch.
		type pendingEntry struct {
			key string
			m   mutate.Mutation
		}
		var entries []pendingEntry
		if err := tx.Scan(store.PendingPrefix, func(key string, value []byte) error {
			var m mutate.Mutation
			if err := json.Unmarshal(value, &m); err != nil {
				return fmt.Errorf("corrupt pending entry %s: %w", key, err)
			}
			entries = append(entries, pendingEntry{key: key, m: m})
			return nil
		}); err != nil {
			return err
		}
		replayed := 0
		for _, e := range entries {
			if e.m.ID <= resp.LastMutationID {
				if err := tx.Delete(e.key); err != nil {
					return err
				}
				continue
			}
			if err := r.reg.Apply(tx, e.m, r.Now()); err != nil {
				// a mutation the authoritative base no longer admits is
				// dropped, not retried forever
				logger.Warn("pending_replay_rejected", "name", e.m.Name, "id", e.m.ID, "error", err)
				if err := tx.Delete(e.key); err != nil {
					return err
				}
				continue
			}
			replayed++
		}
		logger.Debug("pull_reconciled", "client", r.opts.ClientID,
			"patch_ops", len(resp.Patch), "acked_through", resp.LastMutationID, "replayed", replayed)
		return tx.Set(store.CookieKey, []byte(resp.Cookie))
	})
	if err != nil {
		return err
	}
	r.notify(touched)
	return nil
}

// applyPatch applies pull patch ops to the entity keyspace. Clear wipes
// entity rows only; replica bookkeeping under sys/ is never part of a
// patch.
func applyPatch(tx store.WriteTx, patch []protocol.PatchOp) error {
	for _, op := range patch {
		switch op.Op {
		case protocol.OpClear:
			for _, prefix := range store.EntityPrefixes {
				var keys []string
				if err := tx.Scan(prefix, func(key string, _ []byte) error {
					keys = append(keys, key)
					return nil
				}); err != nil {
					return err
				}
				for _, k := range keys {
					if err := tx.Delete(k); err != nil {
						return err
					}
				}
			}
		case protocol.OpPut:
			if !entityKey(op.Key) {
				return fmt.Errorf("patch put outside entity keyspace: %s", op.Key)
			}
			if err := tx.Set(op.Key, op.Value); err != nil {
				return err
			}
		case protocol.OpDel:
			if !entityKey(op.Key) {
				return fmt.Errorf("patch del outside entity keyspace: %s", op.Key)
			}
			if err := tx.Delete(op.Key); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown patch op %q", op.Op)
		}
	}
	return nil
}

func entityKey(key string) bool {
	for _, prefix := range store.EntityPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// pendingMutations reads the durable pending log in id order.
func (r *Replica) pendingMutations() ([]mutate.Mutation, error) {
	var out []mutate.Mutation
	err := r.st.View(func(tx store.ReadTx) error {
		return tx.Scan(store.PendingPrefix, func(key string, value []byte) error {
			var m mutate.Mutation
			if err := json.Unmarshal(value, &m); err != nil {
				return fmt.Errorf("corrupt pending entry %s: %w", key, err)
			}
			out = append(out, m)
			return nil
		})
	})
	return out, err
}

func (r *Replica) post(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
