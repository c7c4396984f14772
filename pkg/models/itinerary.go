package models

// ItineraryItem is a scheduled entry in a trip's itinerary. ExpenseID
// optionally links the item to the expense it produced.
type ItineraryItem struct {
	ID            string `json:"id"`
	TripID        string `json:"tripId"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	Location      string `json:"location,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ExpenseID     string `json:"expenseId,omitempty"`
}

func (i *ItineraryItem) Validate() error {
	if i.ID == "" {
		return invalid("itineraryItem", "id", "must not be empty")
	}
	if i.TripID == "" {
		return invalid("itineraryItem", "tripId", "must not be empty")
	}
	if i.Name == "" {
		return invalid("itineraryItem", "name", "must not be empty")
	}
	if i.StartDateTime == "" {
		return invalid("itineraryItem", "startDateTime", "must not be empty")
	}
	if i.EndDateTime == "" {
		return invalid("itineraryItem", "endDateTime", "must not be empty")
	}
	return nil
}

// ItineraryItemPatch is a partial update onto an existing itinerary item.
type ItineraryItemPatch struct {
	ID            string  `json:"id"`
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	StartDateTime *string `json:"startDateTime,omitempty"`
	EndDateTime   *string `json:"endDateTime,omitempty"`
	Location      *string `json:"location,omitempty"`
	Notes         *string `json:"notes,omitempty"`
	ExpenseID     *string `json:"expenseId,omitempty"`
}

func (p *ItineraryItemPatch) Apply(i *ItineraryItem) {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Description != nil {
		i.Description = *p.Description
	}
	if p.StartDateTime != nil {
		i.StartDateTime = *p.StartDateTime
	}
	if p.EndDateTime != nil {
		i.EndDateTime = *p.EndDateTime
	}
	if p.Location != nil {
		i.Location = *p.Location
	}
	if p.Notes != nil {
		i.Notes = *p.Notes
	}
	if p.ExpenseID != nil {
		i.ExpenseID = *p.ExpenseID
	}
}
