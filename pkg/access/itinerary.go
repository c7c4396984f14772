package access

import (
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// PutItineraryItem writes the itinerary item, creating or replacing it.
func PutItineraryItem(tx store.WriteTx, i *models.ItineraryItem) error {
	if err := i.Validate(); err != nil {
		return err
	}
	return put(tx, store.ItineraryItemKey(i.ID), i)
}

// GetItineraryItem loads an itinerary item by id.
func GetItineraryItem(tx store.ReadTx, id string) (*models.ItineraryItem, error) {
	return get[models.ItineraryItem](tx, store.ItineraryItemKey(id))
}

// PatchItineraryItem merges a partial patch onto the stored item.
func PatchItineraryItem(tx store.WriteTx, p *models.ItineraryItemPatch) (*models.ItineraryItem, error) {
	i, err := GetItineraryItem(tx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Apply(i)
	if err := PutItineraryItem(tx, i); err != nil {
		return nil, err
	}
	return i, nil
}

// DeleteItineraryItem removes the itinerary item row.
func DeleteItineraryItem(tx store.WriteTx, id string) error {
	return tx.Delete(store.ItineraryItemKey(id))
}

// ListItineraryItems enumerates every itinerary item in the replica.
func ListItineraryItems(tx store.ReadTx) ([]models.ItineraryItem, error) {
	return list[models.ItineraryItem](tx, store.ItineraryItemPrefix)
}

// ItineraryByTrip returns one trip's itinerary items, unordered.
func ItineraryByTrip(tx store.ReadTx, tripID string) ([]models.ItineraryItem, error) {
	all, err := ListItineraryItems(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, i := range all {
		if i.TripID == tripID {
			out = append(out, i)
		}
	}
	return out, nil
}
