package mutate

import (
	"errors"
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

func (r *Registry) createExpense(tx store.WriteTx, args CreateExpenseArgs, now time.Time) error {
	ok, err := tripExists(tx, args.TripID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	e := &models.Expense{
		ID:          args.ExpenseID,
		TripID:      args.TripID,
		Name:        args.Name,
		Description: args.Description,
		Amount:      args.Amount,
		Currency:    args.Currency,
		Category:    args.Category,
	}
	if err := access.PutExpense(tx, e); err != nil {
		return err
	}
	return touchTrip(tx, args.TripID, now)
}

func (r *Registry) updateExpense(tx store.WriteTx, m Mutation, now time.Time) error {
	var patch models.ExpensePatch
	if err := decodeArgs(m, &patch); err != nil {
		return err
	}
	e, err := access.PatchExpense(tx, &patch)
	if err != nil {
		return asNoOp(err)
	}
	return touchTrip(tx, e.TripID, now)
}

// deleteExpense removes the expense and its payer rows. Cascading the
// payers here, not only inside the trip cascade, keeps ad-hoc expense
// deletion from stranding orphan join rows.
func (r *Registry) deleteExpense(tx store.WriteTx, id string, now time.Time) error {
	e, err := access.GetExpense(tx, id)
	if errors.Is(err, access.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	payers, err := access.PayersByExpense(tx, id)
	if err != nil {
		return err
	}
	for _, p := range payers {
		if err := access.DeleteExpensePayer(tx, p.ID); err != nil {
			return err
		}
	}
	if err := access.DeleteExpense(tx, id); err != nil {
		return err
	}
	return touchTrip(tx, e.TripID, now)
}

// createExpensePayer attaches a payer to a live expense; a missing parent
// expense makes it a no-op for replay idempotency.
func (r *Registry) createExpensePayer(tx store.WriteTx, args CreateExpensePayerArgs) error {
	if _, err := access.GetExpense(tx, args.ExpenseID); err != nil {
		return asNoOp(err)
	}
	p := &models.ExpensePayer{
		ID:             args.PayerID,
		ExpenseID:      args.ExpenseID,
		CollaboratorID: args.CollaboratorID,
	}
	return access.PutExpensePayer(tx, p)
}
