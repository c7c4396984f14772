package models

// Urgency is a task's priority level.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Valid reports whether u is one of the closed urgency set.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// Task is a to-do within a trip. Position is a fractional index string;
// tasks in the same trip sort by plain byte comparison of Position and no
// two live tasks ever share one.
type Task struct {
	ID          string  `json:"id"`
	TripID      string  `json:"tripId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	Position    string  `json:"position"`
	Urgency     Urgency `json:"urgency"`
}

func (t *Task) Validate() error {
	if t.ID == "" {
		return invalid("task", "id", "must not be empty")
	}
	if t.TripID == "" {
		return invalid("task", "tripId", "must not be empty")
	}
	if t.Title == "" {
		return invalid("task", "title", "must not be empty")
	}
	if t.Position == "" {
		return invalid("task", "position", "must not be empty")
	}
	if !t.Urgency.Valid() {
		return invalid("task", "urgency", "must be low, medium or high")
	}
	return nil
}

// TaskPatch is a partial update onto an existing task.
type TaskPatch struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Completed   *bool    `json:"completed,omitempty"`
	Position    *string  `json:"position,omitempty"`
	Urgency     *Urgency `json:"urgency,omitempty"`
}

func (p *TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.Urgency != nil {
		t.Urgency = *p.Urgency
	}
}
