package mutate

import (
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// createTask appends a task at the end of the trip's order: its position is
// the successor of the current last position, so a fresh task always sorts
// after every sibling without renumbering any of them.
func (r *Registry) createTask(tx store.WriteTx, args CreateTaskArgs, now time.Time) error {
	ok, err := tripExists(tx, args.TripID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	tasks, err := access.TasksByTrip(tx, args.TripID)
	if err != nil {
		return err
	}
	last := ""
	if len(tasks) > 0 {
		last = tasks[len(tasks)-1].Position
	}
	task := &models.Task{
		ID:          args.TaskID,
		TripID:      args.TripID,
		Title:       args.Title,
		Description: args.Description,
		Completed:   false,
		Position:    NextPosition(last),
		Urgency:     args.Urgency,
	}
	if err := access.PutTask(tx, task); err != nil {
		return err
	}
	return touchTrip(tx, args.TripID, now)
}

func (r *Registry) updateTask(tx store.WriteTx, m Mutation) error {
	var patch models.TaskPatch
	if err := decodeArgs(m, &patch); err != nil {
		return err
	}
	_, err := access.PatchTask(tx, &patch)
	return asNoOp(err)
}
