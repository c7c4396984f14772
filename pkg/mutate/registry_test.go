package mutate

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tripsync/pkg/access"
	"tripsync/pkg/models"
	"tripsync/pkg/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func apply(t *testing.T, st *store.Store, name Name, args any, now time.Time) error {
	t.Helper()
	raw, err := MarshalArgs(args)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	reg := NewRegistry()
	return st.Update(func(tx store.WriteTx) error {
		return reg.Apply(tx, Mutation{ID: 1, Name: name, Args: raw}, now)
	})
}

var testUser = UserInfo{ID: "u1", Username: "ada"}

func seedTrip(t *testing.T, st *store.Store, now time.Time) (tripID, collabID string) {
	t.Helper()
	tripID, collabID = "t1", "c1"
	err := apply(t, st, CreateTrip, CreateTripArgs{
		TripID:         tripID,
		CollaboratorID: collabID,
		Name:           "Lisbon",
		User:           testUser,
	}, now)
	if err != nil {
		t.Fatalf("createTrip: %v", err)
	}
	return tripID, collabID
}

func TestCreateTripCreatesOwnerAtomically(t *testing.T) {
	st := openStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tripID, collabID := seedTrip(t, st, now)

	err := st.View(func(tx store.ReadTx) error {
		trip, err := access.GetTrip(tx, tripID)
		if err != nil {
			return err
		}
		if trip.OwnerID != collabID {
			t.Fatalf("trip owner = %q, want %q", trip.OwnerID, collabID)
		}
		if trip.CreatedAt != trip.UpdatedAt {
			t.Fatalf("fresh trip createdAt %q != updatedAt %q", trip.CreatedAt, trip.UpdatedAt)
		}
		owner, err := access.GetCollaborator(tx, collabID)
		if err != nil {
			return err
		}
		if owner.Role != models.RoleOwner {
			t.Fatalf("owner role = %q", owner.Role)
		}
		if owner.TripID != tripID || owner.UserID != testUser.ID {
			t.Fatalf("owner row mismatched: %+v", owner)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreateTripRejectionWritesNothing(t *testing.T) {
	st := openStore(t)
	err := apply(t, st, CreateTrip, CreateTripArgs{
		TripID:         "t1",
		CollaboratorID: "c1",
		Name:           "", // invalid
		User:           testUser,
	}, time.Now())
	if err == nil {
		t.Fatal("expected validation error")
	}
	// the collaborator written before the trip validation failed must not
	// survive the aborted transaction
	_ = st.View(func(tx store.ReadTx) error {
		if _, err := access.GetCollaborator(tx, "c1"); !errors.Is(err, access.ErrNotFound) {
			t.Fatalf("collaborator leaked from aborted createTrip: %v", err)
		}
		return nil
	})
}

func TestCreateChildrenOnMissingTripAreNoOps(t *testing.T) {
	st := openStore(t)
	now := time.Now()

	if err := apply(t, st, CreateTask, CreateTaskArgs{
		TaskID: "k1", TripID: "ghost", Title: "pack", Urgency: models.UrgencyLow,
	}, now); err != nil {
		t.Fatalf("createTask on missing trip: %v", err)
	}
	if err := apply(t, st, CreateExpense, CreateExpenseArgs{
		ExpenseID: "e1", TripID: "ghost", Name: "hotel", Amount: 100, Currency: "EUR",
	}, now); err != nil {
		t.Fatalf("createExpense on missing trip: %v", err)
	}
	if err := apply(t, st, CreateItineraryItem, CreateItineraryItemArgs{
		ItemID: "i1", TripID: "ghost", Name: "museum",
		StartDateTime: "2026-03-01T10:00:00Z", EndDateTime: "2026-03-01T12:00:00Z",
	}, now); err != nil {
		t.Fatalf("createItineraryItem on missing trip: %v", err)
	}
	if err := apply(t, st, CreateCollaborator, CreateCollaboratorArgs{
		CollaboratorID: "c9", TripID: "ghost", Role: models.RoleEditor, User: testUser,
	}, now); err != nil {
		t.Fatalf("createCollaborator on missing trip: %v", err)
	}

	_ = st.View(func(tx store.ReadTx) error {
		tasks, _ := access.ListTasks(tx)
		expenses, _ := access.ListExpenses(tx)
		items, _ := access.ListItineraryItems(tx)
		collabs, _ := access.ListCollaborators(tx)
		if len(tasks)+len(expenses)+len(items)+len(collabs) != 0 {
			t.Fatalf("orphan rows created under a missing trip")
		}
		return nil
	})
}

func TestTaskPositionsAppendInOrder(t *testing.T) {
	st := openStore(t)
	now := time.Now()
	if err := apply(t, st, CreateTrip, CreateTripArgs{
		TripID: "t1", CollaboratorID: "c1", Name: "Japan", User: testUser,
	}, now); err != nil {
		t.Fatalf("createTrip: %v", err)
	}

	titles := []string{"Book flight", "Reserve hotel", "Pack"}
	for i, title := range titles {
		err := apply(t, st, CreateTask, CreateTaskArgs{
			TaskID: "k" + string(rune('1'+i)), TripID: "t1",
			Title: title, Urgency: models.UrgencyMedium,
		}, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("createTask %q: %v", title, err)
		}
	}

	checkOrder := func() {
		t.Helper()
		_ = st.View(func(tx store.ReadTx) error {
			tasks, err := access.TasksByTrip(tx, "t1")
			if err != nil {
				t.Fatal(err)
			}
			if len(tasks) != 3 {
				t.Fatalf("got %d tasks", len(tasks))
			}
			for i, want := range titles {
				if tasks[i].Title != want {
					t.Fatalf("creation order broken at %d: got %q, want %q", i, tasks[i].Title, want)
				}
			}
			for i, want := range []string{"a", "b", "c"} {
				if tasks[i].Position != want {
					t.Fatalf("position %d = %q, want %q", i, tasks[i].Position, want)
				}
			}
			return nil
		})
	}
	checkOrder()

	// an update that does not touch position must not disturb the order
	done := true
	if err := apply(t, st, UpdateTask, models.TaskPatch{ID: "k2", Completed: &done}, now); err != nil {
		t.Fatalf("updateTask: %v", err)
	}
	checkOrder()
}

func TestTaskPositionExtendsAtAlphabetTop(t *testing.T) {
	st := openStore(t)
	now := time.Now()
	tripID, _ := seedTrip(t, st, now)

	err := st.Update(func(tx store.WriteTx) error {
		return access.PutTask(tx, &models.Task{
			ID: "k0", TripID: tripID, Title: "last",
			Position: "z", Urgency: models.UrgencyLow,
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := apply(t, st, CreateTask, CreateTaskArgs{
		TaskID: "k1", TripID: tripID, Title: "after", Urgency: models.UrgencyLow,
	}, now); err != nil {
		t.Fatal(err)
	}

	_ = st.View(func(tx store.ReadTx) error {
		task, err := access.GetTask(tx, "k1")
		if err != nil {
			t.Fatal(err)
		}
		if task.Position != "za" {
			t.Fatalf("position after %q = %q, want %q", "z", task.Position, "za")
		}
		return nil
	})
}

func TestUpdateMissingTargetIsNoOp(t *testing.T) {
	st := openStore(t)
	title := "renamed"
	if err := apply(t, st, UpdateTask, models.TaskPatch{ID: "ghost", Title: &title}, time.Now()); err != nil {
		t.Fatalf("updateTask on missing target: %v", err)
	}
	name := "renamed"
	if err := apply(t, st, UpdateTrip, models.TripPatch{ID: "ghost", Name: &name}, time.Now()); err != nil {
		t.Fatalf("updateTrip on missing target: %v", err)
	}
}

func TestDeleteTripCascades(t *testing.T) {
	st := openStore(t)
	now := time.Now()
	tripID, _ := seedTrip(t, st, now)

	mustApply := func(name Name, args any) {
		t.Helper()
		if err := apply(t, st, name, args, now); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	mustApply(CreateCollaborator, CreateCollaboratorArgs{
		CollaboratorID: "c2", TripID: tripID, Role: models.RoleEditor,
		User: UserInfo{ID: "u2", Username: "bob"},
	})
	mustApply(CreateTask, CreateTaskArgs{TaskID: "k1", TripID: tripID, Title: "pack", Urgency: models.UrgencyHigh})
	mustApply(CreateItineraryItem, CreateItineraryItemArgs{
		ItemID: "i1", TripID: tripID, Name: "museum",
		StartDateTime: "2026-03-01T10:00:00Z", EndDateTime: "2026-03-01T12:00:00Z",
	})
	mustApply(CreateExpense, CreateExpenseArgs{ExpenseID: "e1", TripID: tripID, Name: "hotel", Amount: 12000, Currency: "USD"})
	mustApply(CreateExpensePayer, CreateExpensePayerArgs{PayerID: "p1", ExpenseID: "e1", CollaboratorID: "c1"})
	mustApply(CreateExpensePayer, CreateExpensePayerArgs{PayerID: "p2", ExpenseID: "e1", CollaboratorID: "c2"})

	mustApply(DeleteTrip, DeleteArgs{ID: tripID})

	_ = st.View(func(tx store.ReadTx) error {
		trips, _ := access.ListTrips(tx)
		collabs, _ := access.ListCollaborators(tx)
		tasks, _ := access.ListTasks(tx)
		items, _ := access.ListItineraryItems(tx)
		expenses, _ := access.ListExpenses(tx)
		payers, _ := access.ListExpensePayers(tx)
		total := len(trips) + len(collabs) + len(tasks) + len(items) + len(expenses) + len(payers)
		if total != 0 {
			t.Fatalf("cascade left %d rows behind", total)
		}
		return nil
	})

	// replaying the cascade against the emptied state must terminate cleanly
	mustApply(DeleteTrip, DeleteArgs{ID: tripID})
}

func TestDeleteExpenseCascadesPayers(t *testing.T) {
	st := openStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tripID, collabID := seedTrip(t, st, now)

	if err := apply(t, st, CreateExpense, CreateExpenseArgs{
		ExpenseID: "e1", TripID: tripID, Name: "dinner", Amount: 4500, Currency: "EUR",
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := apply(t, st, CreateExpensePayer, CreateExpensePayerArgs{
		PayerID: "p1", ExpenseID: "e1", CollaboratorID: collabID,
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := apply(t, st, DeleteExpense, DeleteArgs{ID: "e1"}, now); err != nil {
		t.Fatal(err)
	}

	_ = st.View(func(tx store.ReadTx) error {
		if _, err := access.GetExpense(tx, "e1"); !errors.Is(err, access.ErrNotFound) {
			t.Fatalf("expense still present: %v", err)
		}
		payers, _ := access.ListExpensePayers(tx)
		if len(payers) != 0 {
			t.Fatalf("payer rows stranded: %v", payers)
		}
		return nil
	})
}

func TestCreateExpensePayerOnMissingExpenseIsNoOp(t *testing.T) {
	st := openStore(t)
	if err := apply(t, st, CreateExpensePayer, CreateExpensePayerArgs{
		PayerID: "p1", ExpenseID: "ghost", CollaboratorID: "c1",
	}, time.Now()); err != nil {
		t.Fatalf("createExpensePayer on missing expense: %v", err)
	}
	_ = st.View(func(tx store.ReadTx) error {
		payers, _ := access.ListExpensePayers(tx)
		if len(payers) != 0 {
			t.Fatalf("payer row created without its expense")
		}
		return nil
	})
}

func TestTripUpdatedAtIsStrictlyMonotonic(t *testing.T) {
	st := openStore(t)
	// a frozen clock forces the nanosecond nudge
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tripID, _ := seedTrip(t, st, now)

	readUpdatedAt := func() time.Time {
		t.Helper()
		var out time.Time
		_ = st.View(func(tx store.ReadTx) error {
			trip, err := access.GetTrip(tx, tripID)
			if err != nil {
				t.Fatal(err)
			}
			ts, err := time.Parse(time.RFC3339Nano, trip.UpdatedAt)
			if err != nil {
				t.Fatalf("unparseable updatedAt %q: %v", trip.UpdatedAt, err)
			}
			out = ts
			return nil
		})
		return out
	}

	prev := readUpdatedAt()
	for i, id := range []string{"k1", "k2", "k3"} {
		if err := apply(t, st, CreateTask, CreateTaskArgs{
			TaskID: id, TripID: tripID, Title: "task", Urgency: models.UrgencyLow,
		}, now); err != nil {
			t.Fatalf("createTask %d: %v", i, err)
		}
		cur := readUpdatedAt()
		if !cur.After(prev) {
			t.Fatalf("updatedAt did not advance: %v -> %v", prev, cur)
		}
		prev = cur
	}
}

func TestUpdateTripBumpsUpdatedAt(t *testing.T) {
	st := openStore(t)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tripID, _ := seedTrip(t, st, t0)

	desc := "New plan"
	if err := apply(t, st, UpdateTrip, models.TripPatch{ID: tripID, Description: &desc}, t0); err != nil {
		t.Fatalf("updateTrip: %v", err)
	}

	_ = st.View(func(tx store.ReadTx) error {
		trip, err := access.GetTrip(tx, tripID)
		if err != nil {
			t.Fatal(err)
		}
		if trip.Description != "New plan" {
			t.Fatalf("description = %q", trip.Description)
		}
		updated, err := time.Parse(time.RFC3339Nano, trip.UpdatedAt)
		if err != nil {
			t.Fatal(err)
		}
		created, err := time.Parse(time.RFC3339Nano, trip.CreatedAt)
		if err != nil {
			t.Fatal(err)
		}
		if !updated.After(created) {
			t.Fatalf("updatedAt %v did not advance past %v", updated, created)
		}
		return nil
	})
}

func TestRecentlyTouchedTripSortsFirst(t *testing.T) {
	st := openStore(t)
	// frozen clock: the touch lands in the same wall-clock second as the
	// creations, so only the nanosecond nudge separates the two trips
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedTrip(t, st, now)
	if err := apply(t, st, CreateTrip, CreateTripArgs{
		TripID: "t2", CollaboratorID: "c2", Name: "Porto", User: testUser,
	}, now); err != nil {
		t.Fatalf("createTrip: %v", err)
	}
	if err := apply(t, st, CreateTask, CreateTaskArgs{
		TaskID: "k1", TripID: "t2", Title: "pack", Urgency: models.UrgencyLow,
	}, now); err != nil {
		t.Fatalf("createTask: %v", err)
	}

	_ = st.View(func(tx store.ReadTx) error {
		trips, err := access.TripsByRecency(tx)
		if err != nil {
			t.Fatal(err)
		}
		if len(trips) != 2 {
			t.Fatalf("got %d trips", len(trips))
		}
		if trips[0].ID != "t2" || trips[1].ID != "t1" {
			t.Fatalf("recency order wrong: %q then %q", trips[0].ID, trips[1].ID)
		}
		// the rendered timestamps must byte-sort the way they time-sort:
		// the layout pads fractional seconds to a fixed nine digits
		if trips[0].UpdatedAt <= trips[1].UpdatedAt {
			t.Fatalf("updatedAt strings not byte-ordered: %q vs %q", trips[0].UpdatedAt, trips[1].UpdatedAt)
		}
		return nil
	})
}

func TestUnknownMutationRejected(t *testing.T) {
	st := openStore(t)
	reg := NewRegistry()
	err := st.Update(func(tx store.WriteTx) error {
		return reg.Apply(tx, Mutation{ID: 1, Name: "renameEverything", Args: json.RawMessage(`{}`)}, time.Now())
	})
	if err == nil {
		t.Fatal("unknown mutation accepted")
	}
}

func TestTripScope(t *testing.T) {
	st := openStore(t)
	now := time.Now()
	tripID, collabID := seedTrip(t, st, now)
	if err := apply(t, st, CreateExpense, CreateExpenseArgs{
		ExpenseID: "e1", TripID: tripID, Name: "hotel", Amount: 100, Currency: "EUR",
	}, now); err != nil {
		t.Fatal(err)
	}
	if err := apply(t, st, CreateExpensePayer, CreateExpensePayerArgs{
		PayerID: "p1", ExpenseID: "e1", CollaboratorID: collabID,
	}, now); err != nil {
		t.Fatal(err)
	}

	mk := func(name Name, args any) Mutation {
		raw, err := MarshalArgs(args)
		if err != nil {
			t.Fatal(err)
		}
		return Mutation{ID: 99, Name: name, Args: raw}
	}

	_ = st.View(func(tx store.ReadTx) error {
		cases := []struct {
			m    Mutation
			want string
		}{
			{mk(CreateTrip, CreateTripArgs{TripID: "t9", CollaboratorID: "c9", Name: "x", User: testUser}), "t9"},
			{mk(DeleteTrip, DeleteArgs{ID: tripID}), tripID},
			{mk(UpdateCollaborator, models.CollaboratorPatch{ID: collabID}), tripID},
			{mk(UpdateExpense, models.ExpensePatch{ID: "e1"}), tripID},
			{mk(DeleteExpensePayer, DeleteArgs{ID: "p1"}), tripID},
			{mk(DeleteTask, DeleteArgs{ID: "ghost"}), ""},
		}
		for _, c := range cases {
			got := TripScope(tx, c.m)
			if got != c.want {
				t.Fatalf("TripScope(%s) = %q, want %q", c.m.Name, got, c.want)
			}
		}
		return nil
	})
}

func TestReplaySameArgsConverges(t *testing.T) {
	// the same mutation sequence applied to two fresh stores must produce
	// byte-identical entity rows; this is what makes optimistic client
	// application safe to replay on the server
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := func() map[string]string {
		st := openStore(t)
		seedTrip(t, st, now)
		if err := apply(t, st, CreateTask, CreateTaskArgs{
			TaskID: "k1", TripID: "t1", Title: "pack", Urgency: models.UrgencyHigh,
		}, now); err != nil {
			t.Fatal(err)
		}
		out := map[string]string{}
		_ = st.View(func(tx store.ReadTx) error {
			for _, p := range store.EntityPrefixes {
				_ = tx.Scan(p, func(key string, value []byte) error {
					out[key] = string(value)
					return nil
				})
			}
			return nil
		})
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("row counts diverge: %d vs %d", len(a), len(b))
	}
	for k, v := range a {
		if b[k] != v {
			t.Fatalf("row %s diverges:\n%s\n%s", k, v, b[k])
		}
	}
}
