package catchlog

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/fishbot/internal/fishing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "catches.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func cycle(i int, outcome fishing.Outcome, at time.Time) fishing.Cycle {
	return fishing.Cycle{
		Index:      i,
		Start:      at,
		End:        at.Add(5 * time.Second),
		Outcome:    outcome,
		Found:      outcome != fishing.OutcomeNoTarget,
		Target:     image.Pt(100+i, 200),
		Confidence: 0.9,
	}
}

func TestSummaryEmpty(t *testing.T) {
	db := testDB(t)

	s, err := db.Summary(context.Background(), "")
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if s.Cycles != 0 || s.Sessions != 0 || !s.LastAt.IsZero() {
		t.Errorf("empty summary = %+v", s)
	}
	if s.CatchRate() != 0 {
		t.Errorf("CatchRate() = %f, want 0", s.CatchRate())
	}
}

func TestRecordAndSummarize(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []struct {
		session string
		c       fishing.Cycle
	}{
		{"s1", cycle(1, fishing.OutcomeCaught, base)},
		{"s1", cycle(2, fishing.OutcomeTimeout, base.Add(time.Minute))},
		{"s1", cycle(3, fishing.OutcomeCaught, base.Add(2*time.Minute))},
		{"s2", cycle(1, fishing.OutcomeNoTarget, base.Add(3*time.Minute))},
		{"s2", cycle(2, fishing.OutcomeCancelled, base.Add(4*time.Minute))},
	}
	for _, r := range records {
		if err := db.Record(ctx, r.session, "Lake", r.c); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	tests := []struct {
		name    string
		session string
		want    Summary
	}{
		{"all sessions", "", Summary{Sessions: 2, Cycles: 5, Caught: 2, Timeouts: 1, NoTarget: 1, Cancelled: 1}},
		{"one session", "s1", Summary{Sessions: 1, Cycles: 3, Caught: 2, Timeouts: 1}},
		{"unknown session", "nope", Summary{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.Summary(ctx, tt.session)
			if err != nil {
				t.Fatalf("Summary() error = %v", err)
			}
			got.LastAt = time.Time{}
			if got != tt.want {
				t.Errorf("Summary() = %+v, want %+v", got, tt.want)
			}
		})
	}

	all, _ := db.Summary(ctx, "")
	if want := base.Add(4*time.Minute + 5*time.Second); !all.LastAt.Equal(want) {
		t.Errorf("LastAt = %v, want %v", all.LastAt, want)
	}
	if rate := all.CatchRate(); rate != 0.5 {
		t.Errorf("CatchRate() = %f, want 0.5", rate)
	}
}

func TestRecent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		if err := db.Record(ctx, "s1", "Coast", cycle(i, fishing.OutcomeCaught, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := db.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent() returned %d entries, want 2", len(got))
	}
	first := got[0]
	if first.Index != 3 || first.Area != "Coast" || first.Outcome != fishing.OutcomeCaught || first.Target != image.Pt(103, 200) || !first.Found {
		t.Errorf("newest entry = %+v", first)
	}
	if !first.Start.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("Start = %v", first.Start)
	}
}
