package models

// Trip is the root aggregate. Collaborators, itinerary items, tasks and
// expenses hang off it via TripID and are removed by the trip delete
// cascade. UpdatedAt is bumped by every mutation that semantically touches
// the trip (itinerary and expense edits, task creation) and stands in for a
// per-trip change feed.
type Trip struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	CoverImage  string `json:"coverImage,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func (t *Trip) Validate() error {
	if t.ID == "" {
		return invalid("trip", "id", "must not be empty")
	}
	if t.OwnerID == "" {
		return invalid("trip", "ownerId", "must not be empty")
	}
	if t.Name == "" {
		return invalid("trip", "name", "must not be empty")
	}
	return nil
}

// TripPatch is a partial update applied onto an existing trip. Nil fields
// are left untouched.
type TripPatch struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
	CoverImage  *string `json:"coverImage,omitempty"`
}

// Apply merges the patch onto t.
func (p *TripPatch) Apply(t *Trip) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.CoverImage != nil {
		t.CoverImage = *p.CoverImage
	}
}
