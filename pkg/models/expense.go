package models

// Expense is a cost recorded against a trip. Amount is minor units (cents)
// to keep arithmetic exact across replicas.
type Expense struct {
	ID          string `json:"id"`
	TripID      string `json:"tripId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Category    string `json:"category,omitempty"`
}

func (e *Expense) Validate() error {
	if e.ID == "" {
		return invalid("expense", "id", "must not be empty")
	}
	if e.TripID == "" {
		return invalid("expense", "tripId", "must not be empty")
	}
	if e.Name == "" {
		return invalid("expense", "name", "must not be empty")
	}
	if e.Amount < 0 {
		return invalid("expense", "amount", "must not be negative")
	}
	if e.Currency == "" {
		return invalid("expense", "currency", "must not be empty")
	}
	return nil
}

// ExpensePatch is a partial update onto an existing expense.
type ExpensePatch struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Amount      *int64  `json:"amount,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Category    *string `json:"category,omitempty"`
}

func (p *ExpensePatch) Apply(e *Expense) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Currency != nil {
		e.Currency = *p.Currency
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
}

// ExpensePayer joins an expense to a collaborator who paid part of it.
type ExpensePayer struct {
	ID             string `json:"id"`
	ExpenseID      string `json:"expenseId"`
	CollaboratorID string `json:"collaboratorId"`
}

func (p *ExpensePayer) Validate() error {
	if p.ID == "" {
		return invalid("expensePayer", "id", "must not be empty")
	}
	if p.ExpenseID == "" {
		return invalid("expensePayer", "expenseId", "must not be empty")
	}
	if p.CollaboratorID == "" {
		return invalid("expensePayer", "collaboratorId", "must not be empty")
	}
	return nil
}
