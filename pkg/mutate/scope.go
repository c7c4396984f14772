package mutate

import (
	"tripsync/pkg/access"
	"tripsync/pkg/store"
)

// TripScope resolves which trip a mutation touches, for invalidation
// fanout. It must run against the state BEFORE the mutation applies, since
// deletes remove the very rows the lookup needs. An empty result means the
// scope could not be determined (e.g. the target is already gone); callers
// fall back to poking nothing extra.
func TripScope(tx store.ReadTx, m Mutation) string {
	switch m.Name {
	case CreateTrip:
		var args CreateTripArgs
		if decodeArgs(m, &args) == nil {
			return args.TripID
		}
	case UpdateTrip, DeleteTrip:
		var args DeleteArgs
		if decodeArgs(m, &args) == nil {
			return args.ID
		}
	case CreateCollaborator:
		var args CreateCollaboratorArgs
		if decodeArgs(m, &args) == nil {
			return args.TripID
		}
	case CreateItineraryItem:
		var args CreateItineraryItemArgs
		if decodeArgs(m, &args) == nil {
			return args.TripID
		}
	case CreateTask:
		var args CreateTaskArgs
		if decodeArgs(m, &args) == nil {
			return args.TripID
		}
	case CreateExpense:
		var args CreateExpenseArgs
		if decodeArgs(m, &args) == nil {
			return args.TripID
		}
	case CreateExpensePayer:
		var args CreateExpensePayerArgs
		if decodeArgs(m, &args) == nil {
			if e, err := access.GetExpense(tx, args.ExpenseID); err == nil {
				return e.TripID
			}
		}
	case UpdateCollaborator, DeleteCollaborator:
		if id, ok := targetID(m); ok {
			if c, err := access.GetCollaborator(tx, id); err == nil {
				return c.TripID
			}
		}
	case UpdateItineraryItem, DeleteItineraryItem:
		if id, ok := targetID(m); ok {
			if i, err := access.GetItineraryItem(tx, id); err == nil {
				return i.TripID
			}
		}
	case UpdateTask, DeleteTask:
		if id, ok := targetID(m); ok {
			if t, err := access.GetTask(tx, id); err == nil {
				return t.TripID
			}
		}
	case UpdateExpense, DeleteExpense:
		if id, ok := targetID(m); ok {
			if e, err := access.GetExpense(tx, id); err == nil {
				return e.TripID
			}
		}
	case DeleteExpensePayer:
		if id, ok := targetID(m); ok {
			if p, err := access.GetExpensePayer(tx, id); err == nil {
				if e, err := access.GetExpense(tx, p.ExpenseID); err == nil {
					return e.TripID
				}
			}
		}
	}
	return ""
}

// targetID pulls the id field shared by update patches and delete args.
func targetID(m Mutation) (string, bool) {
	var args DeleteArgs
	if decodeArgs(m, &args) != nil || args.ID == "" {
		return "", false
	}
	return args.ID, true
}
