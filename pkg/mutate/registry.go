package mutate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/store"
)

// Registry applies named mutations against a store transaction. It is
// stateless and shared between the optimistic client path and the
// authoritative server path.
type Registry struct{}

// NewRegistry returns a mutation registry.
func NewRegistry() *Registry { return &Registry{} }

// Apply dispatches a mutation to its mutator inside the caller's
// transaction. Precondition failures (malformed args, invalid records)
// reject the transaction; missing parents are treated as no-ops so replay
// stays idempotent across out-of-order delivery. Unknown names are an
// error: the mutation set is closed.
func (r *Registry) Apply(tx store.WriteTx, m Mutation, now time.Time) error {
	switch m.Name {
	case CreateTrip:
		var args CreateTripArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createTrip(tx, args, now)
	case UpdateTrip:
		return r.updateTrip(tx, m, now)
	case DeleteTrip:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.deleteTrip(tx, args.ID)
	case CreateCollaborator:
		var args CreateCollaboratorArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createCollaborator(tx, args)
	case UpdateCollaborator:
		return r.updateCollaborator(tx, m)
	case DeleteCollaborator:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return access.DeleteCollaborator(tx, args.ID)
	case CreateItineraryItem:
		var args CreateItineraryItemArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createItineraryItem(tx, args, now)
	case UpdateItineraryItem:
		return r.updateItineraryItem(tx, m, now)
	case DeleteItineraryItem:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.deleteItineraryItem(tx, args.ID, now)
	case CreateTask:
		var args CreateTaskArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createTask(tx, args, now)
	case UpdateTask:
		return r.updateTask(tx, m)
	case DeleteTask:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return access.DeleteTask(tx, args.ID)
	case CreateExpense:
		var args CreateExpenseArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createExpense(tx, args, now)
	case UpdateExpense:
		return r.updateExpense(tx, m, now)
	case DeleteExpense:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.deleteExpense(tx, args.ID, now)
	case CreateExpensePayer:
		var args CreateExpensePayerArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return r.createExpensePayer(tx, args)
	case DeleteExpensePayer:
		var args DeleteArgs
		if err := decodeArgs(m, &args); err != nil {
			return err
		}
		return access.DeleteExpensePayer(tx, args.ID)
	default:
		return fmt.Errorf("unknown mutation %q", m.Name)
	}
}

func decodeArgs(m Mutation, v any) error {
	if err := json.Unmarshal(m.Args, v); err != nil {
		return fmt.Errorf("%s: decode args: %w", m.Name, err)
	}
	return nil
}

// timeLayout is RFC 3339 with a fixed nine-digit fractional second.
// time.RFC3339Nano strips trailing zeros, which makes the rendered strings
// variable-width: a whole-second value would byte-sort after a strictly
// later value in the same second. Fixed width keeps byte order equal to
// chronological order, which the recency sort relies on.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestamp renders a mutation's logical time in the wire format records
// carry.
func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// touchTrip bumps the trip's updatedAt to the mutation's logical time,
// nudging forward by a nanosecond when the clock has not advanced so the
// value stays strictly monotonic. A missing trip is a no-op: the parent was
// concurrently deleted and its cascade owns cleanup.
func touchTrip(tx store.WriteTx, tripID string, now time.Time) error {
	t, err := access.GetTrip(tx, tripID)
	if err != nil {
		if errors.Is(err, access.ErrNotFound) {
			return nil
		}
		return err
	}
	ts := now.UTC()
	if prev, perr := time.Parse(time.RFC3339Nano, t.UpdatedAt); perr == nil && !ts.After(prev) {
		ts = prev.Add(time.Nanosecond)
	}
	t.UpdatedAt = timestamp(ts)
	return access.PutTrip(tx, t)
}

// tripExists reports whether the parent trip is live.
func tripExists(tx store.ReadTx, tripID string) (bool, error) {
	_, err := access.GetTrip(tx, tripID)
	if errors.Is(err, access.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// asNoOp maps a NotFound from a patch accessor to success: replaying an
// update whose target a concurrent delete removed must not error.
func asNoOp(err error) error {
	if errors.Is(err, access.ErrNotFound) {
		return nil
	}
	return err
}
