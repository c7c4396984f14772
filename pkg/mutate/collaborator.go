package mutate

import (
	"tripsync/pkg/access"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// createCollaborator adds a collaborator to a live trip. The trip's owner
// row is only ever created by createTrip; callers are expected not to mint
// a second owner, though that policy is not mechanically enforced here.
func (r *Registry) createCollaborator(tx store.WriteTx, args CreateCollaboratorArgs) error {
	ok, err := tripExists(tx, args.TripID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	c := &models.Collaborator{
		ID:        args.CollaboratorID,
		TripID:    args.TripID,
		UserID:    args.User.ID,
		Username:  args.User.Username,
		AvatarURL: args.User.AvatarURL,
		Role:      args.Role,
	}
	return access.PutCollaborator(tx, c)
}

func (r *Registry) updateCollaborator(tx store.WriteTx, m Mutation) error {
	var patch models.CollaboratorPatch
	if err := decodeArgs(m, &patch); err != nil {
		return err
	}
	_, err := access.PatchCollaborator(tx, &patch)
	return asNoOp(err)
}
