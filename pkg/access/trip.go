package access

import (
	"sort"
	"time"

	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// PutTrip writes the trip record, creating or replacing it.
func PutTrip(tx store.WriteTx, t *models.Trip) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return put(tx, store.TripKey(t.ID), t)
}

// GetTrip loads a trip by id, returning ErrNotFound when absent.
func GetTrip(tx store.ReadTx, id string) (*models.Trip, error) {
	return get[models.Trip](tx, store.TripKey(id))
}

// PatchTrip merges a partial patch onto the stored trip. The target must
// exist; patching an absent trip returns ErrNotFound.
func PatchTrip(tx store.WriteTx, p *models.TripPatch) (*models.Trip, error) {
	t, err := GetTrip(tx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Apply(t)
	if err := PutTrip(tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTrip removes the trip row only; cascading to children is the
// deleteTrip mutator's job.
func DeleteTrip(tx store.WriteTx, id string) error {
	return tx.Delete(store.TripKey(id))
}

// ListTrips enumerates every trip in the replica.
func ListTrips(tx store.ReadTx) ([]models.Trip, error) {
	return list[models.Trip](tx, store.TripPrefix)
}

// TripsByRecency returns all trips sorted most-recently-touched first.
// updatedAt is parsed rather than byte-compared: RFC 3339 allows
// variable-width fractional seconds, and under a raw string sort a
// whole-second "…00Z" would land after the strictly later
// "…00.000000001Z" in the same second. Unparseable values sort last.
func TripsByRecency(tx store.ReadTx) ([]models.Trip, error) {
	trips, err := ListTrips(tx)
	if err != nil {
		return nil, err
	}
	at := func(t *models.Trip) time.Time {
		ts, err := time.Parse(time.RFC3339Nano, t.UpdatedAt)
		if err != nil {
			return time.Time{}
		}
		return ts
	}
	sort.SliceStable(trips, func(i, j int) bool {
		return at(&trips[i]).After(at(&trips[j]))
	})
	return trips, nil
}
