package mutate

import (
	"errors"
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

func (r *Registry) createItineraryItem(tx store.WriteTx, args CreateItineraryItemArgs, now time.Time) error {
	ok, err := tripExists(tx, args.TripID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	item := &models.ItineraryItem{
		ID:            args.ItemID,
		TripID:        args.TripID,
		Name:          args.Name,
		Description:   args.Description,
		StartDateTime: args.StartDateTime,
		EndDateTime:   args.EndDateTime,
		Location:      args.Location,
		Notes:         args.Notes,
		ExpenseID:     args.ExpenseID,
	}
	if err := access.PutItineraryItem(tx, item); err != nil {
		return err
	}
	return touchTrip(tx, args.TripID, now)
}

func (r *Registry) updateItineraryItem(tx store.WriteTx, m Mutation, now time.Time) error {
	var patch models.ItineraryItemPatch
	if err := decodeArgs(m, &patch); err != nil {
		return err
	}
	item, err := access.PatchItineraryItem(tx, &patch)
	if err != nil {
		return asNoOp(err)
	}
	return touchTrip(tx, item.TripID, now)
}

func (r *Registry) deleteItineraryItem(tx store.WriteTx, id string, now time.Time) error {
	item, err := access.GetItineraryItem(tx, id)
	if errors.Is(err, access.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := access.DeleteItineraryItem(tx, id); err != nil {
		return err
	}
	return touchTrip(tx, item.TripID, now)
}
