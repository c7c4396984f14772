// Package replica implements the client side of the sync contract: a
// durable local store that applies mutations optimistically, keeps them in
// a pending log until the server acknowledges them, and reconciles
// authoritative pull diffs by rebasing whatever is still unacknowledged.
package replica

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripsync/pkg/logger"
	"tripsync/pkg/models"
	"tripsync/pkg/mutate"
	"tripsync/pkg/store"
	"tripsync/pkg/telemetry"
)

// Options configures a replica. Path is the directory the replica's store
// lives in; it should already be scoped to the owning identity.
type Options struct {
	Path     string
	UserID   string
	ClientID string
	PushURL  string
	PullURL  string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Replica is a client-local durable copy of one user's data.
type Replica struct {
	opts  Options
	st    *store.Store
	reg   *mutate.Registry
	httpc *http.Client

	// Now and NewID are swappable for tests.
	Now   func() time.Time
	NewID func() string

	mu     sync.Mutex // guards nextID and closed
	nextID uint64
	closed bool

	pullMu    sync.Mutex
	pullAgain bool

	pushMu sync.Mutex

	subMu sync.Mutex
	subs  map[int]func(touched []string)
	subID int
}

// trackingTx records the keys a transaction writes or deletes so
// subscribers can tell whether a commit touched anything they depend on.
type trackingTx struct {
	store.WriteTx
	keys []string
}

func (t *trackingTx) Set(key string, value []byte) error {
	t.keys = append(t.keys, key)
	return t.WriteTx.Set(key, value)
}

func (t *trackingTx) Delete(key string) error {
	t.keys = append(t.keys, key)
	return t.WriteTx.Delete(key)
}

// ErrClosed is returned by operations on a disposed replica.
var ErrClosed = errors.New("replica is closed")

// Open constructs a replica over a durable store at opts.Path. The pending
// mutation log and the last pull cookie survive restarts; the next local
// mutation id is recovered from the store.
func Open(opts Options) (*Replica, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("replica: client id required")
	}
	st, err := store.Open(opts.Path)
	if err != nil {
		return nil, err
	}
	r := &Replica{
		opts:  opts,
		st:    st,
		reg:   mutate.NewRegistry(),
		httpc: opts.HTTPClient,
		Now:   time.Now,
		NewID: uuid.NewString,
		subs:  make(map[int]func(touched []string)),
	}
	if r.httpc == nil {
		r.httpc = http.DefaultClient
	}
	if err := st.View(func(tx store.ReadTx) error {
		v, ok, err := tx.Get(store.NextMutationIDKey)
		if err != nil {
			return err
		}
		if ok {
			n, err := strconv.ParseUint(string(v), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt next-mutation-id: %w", err)
			}
			r.nextID = n
		} else {
			r.nextID = 1
		}
		return nil
	}); err != nil {
		_ = st.Close()
		return nil, err
	}
	logger.Info("replica_opened", "user", opts.UserID, "client", opts.ClientID, "path", opts.Path)
	return r, nil
}

// Close disposes the replica. Un-pushed mutations stay in the durable
// pending log and are retried if the same identity opens the replica
// again; discarding the directory instead is the accepted data-loss
// boundary on logout.
func (r *Replica) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	return r.st.Close()
}

// Store exposes the underlying store for read transactions (queries,
// subscriptions). Writes go through Mutate only.
func (r *Replica) Store() *store.Store { return r.st }

// UserID returns the identity this replica is keyed by.
func (r *Replica) UserID() string { return r.opts.UserID }

// Mutate applies a named mutation optimistically: the mutator runs inside
// one transaction together with the append to the durable pending log, so
// an applied mutation is never lost before push. Subscribers are notified
// synchronously after commit and a push is scheduled in the background.
func (r *Replica) Mutate(ctx context.Context, name mutate.Name, args any) error {
	raw, err := mutate.MarshalArgs(args)
	if err != nil {
		return fmt.Errorf("%s: marshal args: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	m := mutate.Mutation{ID: r.nextID, Name: name, Args: raw}
	var touched []string
	err = r.st.Update(func(tx store.WriteTx) error {
		ttx := &trackingTx{WriteTx: tx}
		if err := r.reg.Apply(ttx, m, r.Now()); err != nil {
			return err
		}
		touched = ttx.keys
		mb, err := mutate.MarshalArgs(m)
		if err != nil {
			return err
		}
		if err := tx.Set(store.PendingKey(m.ID), mb); err != nil {
			return err
		}
		return tx.Set(store.NextMutationIDKey, []byte(strconv.FormatUint(m.ID+1, 10)))
	})
	if err != nil {
		logger.Warn("mutation_rejected", "name", name, "id", m.ID, "error", err)
		return err
	}
	r.nextID++
	telemetry.MutationsApplied.WithLabelValues(string(name), "client").Inc()
	r.notify(touched)
	go func() {
		if err := r.Push(context.WithoutCancel(ctx)); err != nil {
			logger.Debug("background_push_failed", "error", err)
		}
	}()
	return nil
}

// notify re-runs every subscription synchronously. touched carries the
// keys the commit wrote so prefix-scoped subscriptions can skip commits
// outside their dependencies; nil means "assume anything changed".
func (r *Replica) notify(touched []string) {
	r.subMu.Lock()
	fns := make([]func(touched []string), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()
	for _, fn := range fns {
		fn(touched)
	}
}

func (r *Replica) addSubscriber(fn func(touched []string)) (remove func()) {
	r.subMu.Lock()
	id := r.subID
	r.subID++
	r.subs[id] = fn
	r.subMu.Unlock()
	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

// CreateTrip mints fresh trip and collaborator ids, then invokes the
// createTrip mutation with them embedded in the args so server replay
// produces the same rows. It returns the new trip id.
func (r *Replica) CreateTrip(ctx context.Context, args mutate.CreateTripArgs) (string, error) {
	if args.TripID == "" {
		args.TripID = r.NewID()
	}
	if args.CollaboratorID == "" {
		args.CollaboratorID = r.NewID()
	}
	return args.TripID, r.Mutate(ctx, mutate.CreateTrip, args)
}

// CreateCollaborator mints the collaborator id and invokes the mutation.
func (r *Replica) CreateCollaborator(ctx context.Context, args mutate.CreateCollaboratorArgs) (string, error) {
	if args.CollaboratorID == "" {
		args.CollaboratorID = r.NewID()
	}
	return args.CollaboratorID, r.Mutate(ctx, mutate.CreateCollaborator, args)
}

// CreateItineraryItem mints the item id and invokes the mutation.
func (r *Replica) CreateItineraryItem(ctx context.Context, args mutate.CreateItineraryItemArgs) (string, error) {
	if args.ItemID == "" {
		args.ItemID = r.NewID()
	}
	return args.ItemID, r.Mutate(ctx, mutate.CreateItineraryItem, args)
}

// CreateTask mints the task id and invokes the mutation. The task's
// position is computed inside the mutator.
func (r *Replica) CreateTask(ctx context.Context, args mutate.CreateTaskArgs) (string, error) {
	if args.TaskID == "" {
		args.TaskID = r.NewID()
	}
	return args.TaskID, r.Mutate(ctx, mutate.CreateTask, args)
}

// CreateExpense mints the expense id and invokes the mutation.
func (r *Replica) CreateExpense(ctx context.Context, args mutate.CreateExpenseArgs) (string, error) {
	if args.ExpenseID == "" {
		args.ExpenseID = r.NewID()
	}
	return args.ExpenseID, r.Mutate(ctx, mutate.CreateExpense, args)
}

// CreateExpensePayer mints the payer row id and invokes the mutation.
func (r *Replica) CreateExpensePayer(ctx context.Context, args mutate.CreateExpensePayerArgs) (string, error) {
	if args.PayerID == "" {
		args.PayerID = r.NewID()
	}
	return args.PayerID, r.Mutate(ctx, mutate.CreateExpensePayer, args)
}

// UpdateTrip applies a partial trip patch.
func (r *Replica) UpdateTrip(ctx context.Context, patch models.TripPatch) error {
	return r.Mutate(ctx, mutate.UpdateTrip, patch)
}

// UpdateCollaborator applies a partial collaborator patch (role changes).
func (r *Replica) UpdateCollaborator(ctx context.Context, patch models.CollaboratorPatch) error {
	return r.Mutate(ctx, mutate.UpdateCollaborator, patch)
}

// UpdateItineraryItem applies a partial itinerary item patch.
func (r *Replica) UpdateItineraryItem(ctx context.Context, patch models.ItineraryItemPatch) error {
	return r.Mutate(ctx, mutate.UpdateItineraryItem, patch)
}

// UpdateTask applies a partial task patch.
func (r *Replica) UpdateTask(ctx context.Context, patch models.TaskPatch) error {
	return r.Mutate(ctx, mutate.UpdateTask, patch)
}

// UpdateExpense applies a partial expense patch.
func (r *Replica) UpdateExpense(ctx context.Context, patch models.ExpensePatch) error {
	return r.Mutate(ctx, mutate.UpdateExpense, patch)
}

// Delete invokes the delete mutation named by name for the given id.
func (r *Replica) Delete(ctx context.Context, name mutate.Name, id string) error {
	return r.Mutate(ctx, name, mutate.DeleteArgs{ID: id})
}
