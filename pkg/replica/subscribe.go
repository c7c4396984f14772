package replica

import (
	"reflect"
	"strings"
	"sync"

	"tripsync/pkg/logger"
	"tripsync/pkg/store"
)

// Subscription delivers recomputed values of a derived query whenever the
// replica changes. Values are gated on equality: a commit that does not
// change the query result does not re-fire.
type Subscription[T any] struct {
	c      chan T
	remove func()
	deps   []string

	mu   sync.Mutex
	last T
	done bool
}

// Subscribe registers read as a live query. The default value def is
// delivered immediately, before the first successful read; afterwards the
// query is re-run inside a fresh read transaction after every commit.
// deps optionally names the key prefixes the query reads (store.TaskPrefix
// and friends): when given, commits that touch none of them skip the
// recompute entirely instead of relying on the equality gate. With no deps
// every commit recomputes. Cancel the subscription with Close when the
// view goes away.
func Subscribe[T any](r *Replica, read func(store.ReadTx) (T, error), def T, deps ...string) *Subscription[T] {
	s := &Subscription[T]{c: make(chan T, 1), last: def, deps: deps}
	s.c <- def
	recompute := func(touched []string) {
		if !s.depends(touched) {
			return
		}
		var next T
		err := r.st.View(func(tx store.ReadTx) error {
			var rerr error
			next, rerr = read(tx)
			return rerr
		})
		if err != nil {
			logger.Warn("subscription_read_failed", "error", err)
			return
		}
		s.push(next)
	}
	s.remove = r.addSubscriber(recompute)
	// compute the first real value right away
	recompute(nil)
	return s
}

// depends reports whether a commit that touched the given keys can change
// this query's result. A nil touched set means the caller has no key
// information and the query must recompute.
func (s *Subscription[T]) depends(touched []string) bool {
	if len(s.deps) == 0 || touched == nil {
		return true
	}
	for _, key := range touched {
		for _, dep := range s.deps {
			if strings.HasPrefix(key, dep) {
				return true
			}
		}
	}
	return false
}

// C streams query results. Only the latest value is retained: a consumer
// that falls behind sees the freshest state, not every intermediate one.
func (s *Subscription[T]) C() <-chan T { return s.c }

// Close unregisters the subscription.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.mu.Unlock()
	s.remove()
}

func (s *Subscription[T]) push(next T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || reflect.DeepEqual(s.last, next) {
		return
	}
	s.last = next
	// drain the stale value, then publish the fresh one
	select {
	case <-s.c:
	default:
	}
	s.c <- next
}
