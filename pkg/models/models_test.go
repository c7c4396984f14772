package models

import (
	"encoding/json"
	"testing"
)

func TestValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		rec  interface{ Validate() error }
		ok   bool
	}{
		{"trip ok", &Trip{ID: "t1", OwnerID: "c1", Name: "Lisbon"}, true},
		{"trip missing name", &Trip{ID: "t1", OwnerID: "c1"}, false},
		{"trip missing owner", &Trip{ID: "t1", Name: "Lisbon"}, false},
		{"collaborator ok", &Collaborator{ID: "c1", TripID: "t1", UserID: "u1", Username: "ada", Role: RoleViewer}, true},
		{"collaborator bad role", &Collaborator{ID: "c1", TripID: "t1", UserID: "u1", Username: "ada", Role: "admin"}, false},
		{"task ok", &Task{ID: "k1", TripID: "t1", Title: "pack", Position: "a", Urgency: UrgencyHigh}, true},
		{"task missing position", &Task{ID: "k1", TripID: "t1", Title: "pack", Urgency: UrgencyHigh}, false},
		{"task bad urgency", &Task{ID: "k1", TripID: "t1", Title: "pack", Position: "a", Urgency: "urgent"}, false},
		{"expense ok", &Expense{ID: "e1", TripID: "t1", Name: "hotel", Amount: 0, Currency: "EUR"}, true},
		{"expense negative amount", &Expense{ID: "e1", TripID: "t1", Name: "hotel", Amount: -1, Currency: "EUR"}, false},
		{"expense missing currency", &Expense{ID: "e1", TripID: "t1", Name: "hotel", Amount: 100}, false},
		{"itinerary ok", &ItineraryItem{ID: "i1", TripID: "t1", Name: "museum", StartDateTime: "2026-03-01T10:00:00Z", EndDateTime: "2026-03-01T12:00:00Z"}, true},
		{"itinerary missing end", &ItineraryItem{ID: "i1", TripID: "t1", Name: "museum", StartDateTime: "2026-03-01T10:00:00Z"}, false},
		{"payer ok", &ExpensePayer{ID: "p1", ExpenseID: "e1", CollaboratorID: "c1"}, true},
		{"payer missing expense", &ExpensePayer{ID: "p1", CollaboratorID: "c1"}, false},
	}
	for _, c := range cases {
		err := c.rec.Validate()
		if c.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("%s: expected validation error", c.name)
		}
	}
}

func TestPatchNilFieldsLeaveRecordUntouched(t *testing.T) {
	trip := Trip{ID: "t1", OwnerID: "c1", Name: "Lisbon", Description: "spring"}
	name := "Porto"
	(&TripPatch{ID: "t1", Name: &name}).Apply(&trip)
	if trip.Name != "Porto" {
		t.Fatalf("patched name = %q", trip.Name)
	}
	if trip.Description != "spring" {
		t.Fatalf("unset field changed: %q", trip.Description)
	}

	// an explicitly set empty string clears, a nil pointer does not
	empty := ""
	(&TripPatch{ID: "t1", Description: &empty}).Apply(&trip)
	if trip.Description != "" {
		t.Fatalf("explicit empty string did not clear the field")
	}
}

func TestPatchJSONOmitsUnsetFields(t *testing.T) {
	done := true
	b, err := json.Marshal(TaskPatch{ID: "k1", Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":"k1","completed":true}`
	if string(b) != want {
		t.Fatalf("patch wire form = %s, want %s", b, want)
	}
}

func TestRoleAndUrgencySets(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleEditor, RoleViewer} {
		if !r.Valid() {
			t.Fatalf("role %q should be valid", r)
		}
	}
	if Role("admin").Valid() || Role("").Valid() {
		t.Fatal("role set is not closed")
	}
	for _, u := range []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh} {
		if !u.Valid() {
			t.Fatalf("urgency %q should be valid", u)
		}
	}
	if Urgency("critical").Valid() {
		t.Fatal("urgency set is not closed")
	}
}
