package finance

import (
	"testing"

	"moneta/internal/core"
)

func TestNextOccurrence_Weekly(t *testing.T) {
	got := NextOccurrence(core.NewDate(2024, 1, 29), core.Weekly)
	if want := core.NewDate(2024, 2, 5); !got.Equal(want.Time) {
		t.Errorf("NextOccurrence = %v, want %v", got, want)
	}
}

func TestNextOccurrence_MonthlyClamping(t *testing.T) {
	tests := []struct {
		name string
		from core.Date
		want core.Date
	}{
		{"jan 31 clamps to leap feb 29", core.NewDate(2024, 1, 31), core.NewDate(2024, 2, 29)},
		{"feb 29 carries as day 29", core.NewDate(2024, 2, 29), core.NewDate(2024, 3, 29)},
		{"jan 31 non-leap clamps to feb 28", core.NewDate(2023, 1, 31), core.NewDate(2023, 2, 28)},
		{"mid-month day preserved", core.NewDate(2024, 4, 15), core.NewDate(2024, 5, 15)},
		{"dec rolls into next year", core.NewDate(2024, 12, 31), core.NewDate(2025, 1, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.from, core.Monthly)
			if !got.Equal(tt.want.Time) {
				t.Errorf("NextOccurrence(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func monthlyRec(id int64, next core.Date) core.RecurringTransaction {
	return core.RecurringTransaction{
		ID:          id,
		UserID:      1,
		Type:        core.Outcome,
		Amount:      dec("50"),
		Currency:    "USD",
		CategoryID:  3,
		Frequency:   core.Monthly,
		StartDate:   next,
		NextDate:    next,
		IsActive:    true,
		Description: "rent",
	}
}

func TestIsDue(t *testing.T) {
	end := core.NewDate(2024, 2, 1)
	tests := []struct {
		name string
		rec  core.RecurringTransaction
		asOf core.Date
		want bool
	}{
		{"due when next date passed", monthlyRec(1, core.NewDate(2024, 3, 1)), core.NewDate(2024, 3, 5), true},
		{"due on the exact day", monthlyRec(1, core.NewDate(2024, 3, 5)), core.NewDate(2024, 3, 5), true},
		{"not due in the future", monthlyRec(1, core.NewDate(2024, 3, 10)), core.NewDate(2024, 3, 5), false},
		{"inactive is never due", func() core.RecurringTransaction { r := monthlyRec(1, core.NewDate(2024, 3, 1)); r.IsActive = false; return r }(), core.NewDate(2024, 3, 5), false},
		{"expired end date is not due", func() core.RecurringTransaction { r := monthlyRec(1, core.NewDate(2024, 1, 15)); r.EndDate = &end; return r }(), core.NewDate(2024, 3, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.rec, tt.asOf); got != tt.want {
				t.Errorf("IsDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessDue_MaterializesAndAdvances(t *testing.T) {
	rec := monthlyRec(1, core.NewDate(2024, 1, 31))
	res := ProcessDue([]core.RecurringTransaction{rec}, core.NewDate(2024, 1, 31), nil)

	if len(res.Created) != 1 {
		t.Fatalf("Created = %d transactions, want 1", len(res.Created))
	}
	created := res.Created[0]
	if !created.Date.Equal(core.NewDate(2024, 1, 31).Time) {
		t.Errorf("created date = %v, want 2024-01-31", created.Date)
	}
	if created.Type != core.Outcome || !created.Amount.Equal(dec("50")) || created.Currency != "USD" {
		t.Errorf("created transaction does not carry the template fields: %+v", created)
	}

	if len(res.Updated) != 1 {
		t.Fatalf("Updated = %d templates, want 1", len(res.Updated))
	}
	if next := res.Updated[0].NextDate; !next.Equal(core.NewDate(2024, 2, 29).Time) {
		t.Errorf("advanced next date = %v, want 2024-02-29 (clamped)", next)
	}
}

func TestProcessDue_CatchesUpMissedOccurrences(t *testing.T) {
	rec := monthlyRec(1, core.NewDate(2024, 1, 15))
	res := ProcessDue([]core.RecurringTransaction{rec}, core.NewDate(2024, 3, 20), nil)

	if len(res.Created) != 3 {
		t.Fatalf("Created = %d, want 3 (jan, feb, mar)", len(res.Created))
	}
	if next := res.Updated[0].NextDate; !next.Equal(core.NewDate(2024, 4, 15).Time) {
		t.Errorf("next date = %v, want 2024-04-15", next)
	}
}

// Processing twice from the same initial state creates nothing new the
// second time and lands on the same next date.
func TestProcessDue_Idempotent(t *testing.T) {
	rec := monthlyRec(1, core.NewDate(2024, 1, 31))
	asOf := core.NewDate(2024, 1, 31)

	first := ProcessDue([]core.RecurringTransaction{rec}, asOf, nil)
	if len(first.Created) != 1 {
		t.Fatalf("first pass Created = %d, want 1", len(first.Created))
	}

	// Second pass sees the advanced template and the already-created row.
	second := ProcessDue(first.Updated, asOf, first.Created)
	if len(second.Created) != 0 {
		t.Errorf("second pass Created = %d, want 0", len(second.Created))
	}
	if len(second.Updated) != 0 {
		t.Errorf("second pass advanced a non-due template: %+v", second.Updated)
	}

	// Replaying the original state against the persisted transactions skips
	// the duplicate but still advances.
	replay := ProcessDue([]core.RecurringTransaction{rec}, asOf, first.Created)
	if len(replay.Created) != 0 {
		t.Errorf("replay Created = %d, want 0", len(replay.Created))
	}
	if len(replay.Skipped) != 1 {
		t.Fatalf("replay Skipped = %d, want 1", len(replay.Skipped))
	}
	if next := replay.Updated[0].NextDate; !next.Equal(first.Updated[0].NextDate.Time) {
		t.Errorf("replay next date = %v, want %v", next, first.Updated[0].NextDate)
	}
}

func TestProcessDue_DeactivatesPastEndDate(t *testing.T) {
	end := core.NewDate(2024, 2, 10)
	rec := monthlyRec(1, core.NewDate(2024, 2, 5))
	rec.EndDate = &end

	res := ProcessDue([]core.RecurringTransaction{rec}, core.NewDate(2024, 2, 6), nil)
	if len(res.Created) != 1 {
		t.Fatalf("Created = %d, want 1", len(res.Created))
	}
	upd := res.Updated[0]
	if upd.IsActive {
		t.Error("template still active after advancing past its end date")
	}
	if !upd.NextDate.Equal(core.NewDate(2024, 3, 5).Time) {
		t.Errorf("next date = %v, want 2024-03-05 (advanced even when deactivating)", upd.NextDate)
	}
}

func TestProcessDue_HeuristicSkipsCoincidingSeries(t *testing.T) {
	// Two unrelated templates with the same user, date, amount and type: the
	// duplicate heuristic lets only the first one materialize.
	a := monthlyRec(1, core.NewDate(2024, 5, 1))
	b := monthlyRec(2, core.NewDate(2024, 5, 1))
	b.Description = "gym"

	res := ProcessDue([]core.RecurringTransaction{a, b}, core.NewDate(2024, 5, 1), nil)
	if len(res.Created) != 1 {
		t.Errorf("Created = %d, want 1 (second series skipped by heuristic)", len(res.Created))
	}
	if len(res.Skipped) != 1 {
		t.Errorf("Skipped = %d, want 1", len(res.Skipped))
	}
	if len(res.Updated) != 2 {
		t.Errorf("Updated = %d, want both templates advanced", len(res.Updated))
	}
}
