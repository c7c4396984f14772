package access

import (
	"sort"

	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// PutTask writes the task record, creating or replacing it.
func PutTask(tx store.WriteTx, t *models.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return put(tx, store.TaskKey(t.ID), t)
}

// GetTask loads a task by id.
func GetTask(tx store.ReadTx, id string) (*models.Task, error) {
	return get[models.Task](tx, store.TaskKey(id))
}

// PatchTask merges a partial patch onto the stored task.
func PatchTask(tx store.WriteTx, p *models.TaskPatch) (*models.Task, error) {
	t, err := GetTask(tx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Apply(t)
	if err := PutTask(tx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes the task row.
func DeleteTask(tx store.WriteTx, id string) error {
	return tx.Delete(store.TaskKey(id))
}

// ListTasks enumerates every task in the replica.
func ListTasks(tx store.ReadTx) ([]models.Task, error) {
	return list[models.Task](tx, store.TaskPrefix)
}

// TasksByTrip returns one trip's tasks in position order (ascending byte
// comparison of the fractional index).
func TasksByTrip(tx store.ReadTx, tripID string) ([]models.Task, error) {
	all, err := ListTasks(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, t := range all {
		if t.TripID == tripID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out, nil
}
