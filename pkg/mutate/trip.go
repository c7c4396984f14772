package mutate

import (
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/logger"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// createTrip inserts the owning collaborator and the trip in one
// transaction. A trip is never observable without its owner.
func (r *Registry) createTrip(tx store.WriteTx, args CreateTripArgs, now time.Time) error {
	owner := &models.Collaborator{
		ID:        args.CollaboratorID,
		TripID:    args.TripID,
		UserID:    args.User.ID,
		Username:  args.User.Username,
		AvatarURL: args.User.AvatarURL,
		Role:      models.RoleOwner,
	}
	if err := access.PutCollaborator(tx, owner); err != nil {
		return err
	}
	ts := timestamp(now)
	trip := &models.Trip{
		ID:          args.TripID,
		OwnerID:     args.CollaboratorID,
		Name:        args.Name,
		Description: args.Description,
		StartDate:   args.StartDate,
		EndDate:     args.EndDate,
		CoverImage:  args.CoverImage,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	return access.PutTrip(tx, trip)
}

func (r *Registry) updateTrip(tx store.WriteTx, m Mutation, now time.Time) error {
	var patch models.TripPatch
	if err := decodeArgs(m, &patch); err != nil {
		return err
	}
	if _, err := access.PatchTrip(tx, &patch); err != nil {
		return asNoOp(err)
	}
	return touchTrip(tx, patch.ID, now)
}

// deleteTrip cascades over every record the trip owns. Order follows
// referential tidiness: collaborators, expenses (payers first), itinerary
// items, tasks, then the trip row. Deleting an already-absent record is a
// no-op, so re-applying the cascade terminates in the same state.
func (r *Registry) deleteTrip(tx store.WriteTx, tripID string) error {
	collabs, err := access.CollaboratorsByTrip(tx, tripID)
	if err != nil {
		return err
	}
	for _, c := range collabs {
		if err := access.DeleteCollaborator(tx, c.ID); err != nil {
			return err
		}
	}
	expenses, err := access.ExpensesByTrip(tx, tripID)
	if err != nil {
		return err
	}
	for _, e := range expenses {
		payers, err := access.PayersByExpense(tx, e.ID)
		if err != nil {
			return err
		}
		for _, p := range payers {
			if err := access.DeleteExpensePayer(tx, p.ID); err != nil {
				return err
			}
		}
		if err := access.DeleteExpense(tx, e.ID); err != nil {
			return err
		}
	}
	items, err := access.ItineraryByTrip(tx, tripID)
	if err != nil {
		return err
	}
	for _, i := range items {
		if err := access.DeleteItineraryItem(tx, i.ID); err != nil {
			return err
		}
	}
	tasks, err := access.TasksByTrip(tx, tripID)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if err := access.DeleteTask(tx, t.ID); err != nil {
			return err
		}
	}
	logger.Debug("trip_cascade_deleted", "trip", tripID,
		"collaborators", len(collabs), "expenses", len(expenses),
		"itinerary_items", len(items), "tasks", len(tasks))
	return access.DeleteTrip(tx, tripID)
}
