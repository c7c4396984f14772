package access

import (
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// PutCollaborator writes the collaborator record, creating or replacing it.
func PutCollaborator(tx store.WriteTx, c *models.Collaborator) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return put(tx, store.CollaboratorKey(c.ID), c)
}

// GetCollaborator loads a collaborator by id.
func GetCollaborator(tx store.ReadTx, id string) (*models.Collaborator, error) {
	return get[models.Collaborator](tx, store.CollaboratorKey(id))
}

// PatchCollaborator merges a partial patch onto the stored collaborator.
func PatchCollaborator(tx store.WriteTx, p *models.CollaboratorPatch) (*models.Collaborator, error) {
	c, err := GetCollaborator(tx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Apply(c)
	if err := PutCollaborator(tx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCollaborator removes the collaborator row.
func DeleteCollaborator(tx store.WriteTx, id string) error {
	return tx.Delete(store.CollaboratorKey(id))
}

// ListCollaborators enumerates every collaborator in the replica.
func ListCollaborators(tx store.ReadTx) ([]models.Collaborator, error) {
	return list[models.Collaborator](tx, store.CollaboratorPrefix)
}

// CollaboratorsByTrip returns the collaborators of one trip, unordered.
func CollaboratorsByTrip(tx store.ReadTx, tripID string) ([]models.Collaborator, error) {
	all, err := ListCollaborators(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if c.TripID == tripID {
			out = append(out, c)
		}
	}
	return out, nil
}
