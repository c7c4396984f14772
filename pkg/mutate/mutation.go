// Package mutate holds the mutator registry: the closed set of named,
// transactional mutations that is the sole unit of write access to a
// replica and to the server's authoritative store alike. The same registry
// runs on both sides; that symmetry is what makes optimistic local writes
// safe to replay.
package mutate

import (
	"encoding/json"

	"tripsync/pkg/models"
)

// Name identifies a mutation. The set is closed; Apply rejects anything
// outside it.
type Name string

const (
	CreateTrip Name = "createTrip"
	UpdateTrip Name = "updateTrip"
	DeleteTrip Name = "deleteTrip"

	CreateCollaborator Name = "createCollaborator"
	UpdateCollaborator Name = "updateCollaborator"
	DeleteCollaborator Name = "deleteCollaborator"

	CreateItineraryItem Name = "createItineraryItem"
	UpdateItineraryItem Name = "updateItineraryItem"
	DeleteItineraryItem Name = "deleteItineraryItem"

	CreateTask Name = "createTask"
	UpdateTask Name = "updateTask"
	DeleteTask Name = "deleteTask"

	CreateExpense Name = "createExpense"
	UpdateExpense Name = "updateExpense"
	DeleteExpense Name = "deleteExpense"

	CreateExpensePayer Name = "createExpensePayer"
	DeleteExpensePayer Name = "deleteExpensePayer"
)

// Mutation is the replicated wire unit: a client-assigned id, a name from
// the closed set, and the serialized arguments. Identical arguments must
// produce identical writes locally and on the server, so anything random
// (fresh entity ids) is minted by the caller and carried inside Args.
type Mutation struct {
	ID   uint64          `json:"id"`
	Name Name            `json:"name"`
	Args json.RawMessage `json:"args"`
}

// UserInfo carries the identity fields a mutation needs to materialize a
// collaborator row.
type UserInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// CreateTripArgs creates a trip together with its owning collaborator.
// TripID and CollaboratorID are minted by the invoking replica so replay on
// the server converges on the same rows.
type CreateTripArgs struct {
	TripID         string   `json:"tripId"`
	CollaboratorID string   `json:"collaboratorId"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	StartDate      string   `json:"startDate,omitempty"`
	EndDate        string   `json:"endDate,omitempty"`
	CoverImage     string   `json:"coverImage,omitempty"`
	User           UserInfo `json:"user"`
}

// CreateCollaboratorArgs adds a collaborator to an existing trip.
type CreateCollaboratorArgs struct {
	CollaboratorID string      `json:"collaboratorId"`
	TripID         string      `json:"tripId"`
	Role           models.Role `json:"role"`
	User           UserInfo    `json:"user"`
}

// CreateItineraryItemArgs adds an itinerary item to an existing trip.
type CreateItineraryItemArgs struct {
	ItemID        string `json:"itemId"`
	TripID        string `json:"tripId"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	Location      string `json:"location,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ExpenseID     string `json:"expenseId,omitempty"`
}

// CreateTaskArgs appends a task to a trip. Position is not an argument:
// the mutator computes it as the successor of the trip's last position,
// which is deterministic given the same base state.
type CreateTaskArgs struct {
	TaskID      string         `json:"taskId"`
	TripID      string         `json:"tripId"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Urgency     models.Urgency `json:"urgency"`
}

// CreateExpenseArgs adds an expense to an existing trip.
type CreateExpenseArgs struct {
	ExpenseID   string `json:"expenseId"`
	TripID      string `json:"tripId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Category    string `json:"category,omitempty"`
}

// CreateExpensePayerArgs attaches a collaborator as payer of an expense.
type CreateExpensePayerArgs struct {
	PayerID        string `json:"payerId"`
	ExpenseID      string `json:"expenseId"`
	CollaboratorID string `json:"collaboratorId"`
}

// DeleteArgs is the argument shape shared by every delete mutation.
type DeleteArgs struct {
	ID string `json:"id"`
}

// MarshalArgs serializes mutation arguments for the wire and the pending
// log.
func MarshalArgs(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}
