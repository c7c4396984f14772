package access

import (
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

// PutExpense writes the expense record, creating or replacing it.
func PutExpense(tx store.WriteTx, e *models.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return put(tx, store.ExpenseKey(e.ID), e)
}

// GetExpense loads an expense by id.
func GetExpense(tx store.ReadTx, id string) (*models.Expense, error) {
	return get[models.Expense](tx, store.ExpenseKey(id))
}

// PatchExpense merges a partial patch onto the stored expense.
func PatchExpense(tx store.WriteTx, p *models.ExpensePatch) (*models.Expense, error) {
	e, err := GetExpense(tx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Apply(e)
	if err := PutExpense(tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExpense removes the expense row only; payer rows are cascaded by
// the deleteExpense mutator.
func DeleteExpense(tx store.WriteTx, id string) error {
	return tx.Delete(store.ExpenseKey(id))
}

// ListExpenses enumerates every expense in the replica.
func ListExpenses(tx store.ReadTx) ([]models.Expense, error) {
	return list[models.Expense](tx, store.ExpensePrefix)
}

// ExpensesByTrip returns one trip's expenses, unordered.
func ExpensesByTrip(tx store.ReadTx, tripID string) ([]models.Expense, error) {
	all, err := ListExpenses(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

// PutExpensePayer writes the payer join row, creating or replacing it.
func PutExpensePayer(tx store.WriteTx, p *models.ExpensePayer) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return put(tx, store.ExpensePayerKey(p.ID), p)
}

// GetExpensePayer loads a payer row by id.
func GetExpensePayer(tx store.ReadTx, id string) (*models.ExpensePayer, error) {
	return get[models.ExpensePayer](tx, store.ExpensePayerKey(id))
}

// DeleteExpensePayer removes the payer join row.
func DeleteExpensePayer(tx store.WriteTx, id string) error {
	return tx.Delete(store.ExpensePayerKey(id))
}

// ListExpensePayers enumerates every payer row in the replica.
func ListExpensePayers(tx store.ReadTx) ([]models.ExpensePayer, error) {
	return list[models.ExpensePayer](tx, store.ExpensePayerPrefix)
}

// PayersByExpense returns the payer rows of one expense.
func PayersByExpense(tx store.ReadTx, expenseID string) ([]models.ExpensePayer, error) {
	all, err := ListExpensePayers(tx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, p := range all {
		if p.ExpenseID == expenseID {
			out = append(out, p)
		}
	}
	return out, nil
}
