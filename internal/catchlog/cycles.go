package catchlog

import (
	"context"
	"database/sql"
	"image"
	"time"

	apperrors "github.com/GriffinCanCode/fishbot/internal/errors"
	"github.com/GriffinCanCode/fishbot/internal/fishing"
)

// Entry is one stored cycle.
type Entry struct {
	SessionID string
	Area      string
	fishing.Cycle
}

// Summary aggregates cycles, either for one session or for all of them.
type Summary struct {
	Sessions  int
	Cycles    int
	Caught    int
	Timeouts  int
	NoTarget  int
	Cancelled int
	LastAt    time.Time
}

// CatchRate is caught over completed (non-cancelled) cycles.
func (s Summary) CatchRate() float64 {
	done := s.Cycles - s.Cancelled
	if done <= 0 {
		return 0
	}
	return float64(s.Caught) / float64(done)
}

// Record stores a finished cycle.
func (d *DB) Record(ctx context.Context, sessionID, area string, c fishing.Cycle) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO cycles (session_id, area, cycle, outcome, found, target_x, target_y, confidence, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sessionID, area, c.Index, string(c.Outcome), boolInt(c.Found), c.Target.X, c.Target.Y,
		c.Confidence, c.Start.UTC().Format(time.RFC3339Nano), c.End.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreFailed, "record cycle").WithMetadata("session", sessionID)
	}
	return nil
}

// Summary aggregates every cycle of sessionID, or of all sessions when it is empty.
func (d *DB) Summary(ctx context.Context, sessionID string) (Summary, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT session_id),
			COUNT(*),
			COALESCE(SUM(outcome = 'caught'), 0),
			COALESCE(SUM(outcome = 'timeout'), 0),
			COALESCE(SUM(outcome = 'no_target'), 0),
			COALESCE(SUM(outcome = 'cancelled'), 0),
			MAX(ended_at)
		FROM cycles
		WHERE ? = '' OR session_id = ?
	`, sessionID, sessionID)

	var s Summary
	var last sql.NullString
	if err := row.Scan(&s.Sessions, &s.Cycles, &s.Caught, &s.Timeouts, &s.NoTarget, &s.Cancelled, &last); err != nil {
		return Summary{}, apperrors.Wrap(err, apperrors.StoreFailed, "summarize cycles")
	}
	if last.Valid {
		s.LastAt, _ = time.Parse(time.RFC3339Nano, last.String)
	}
	return s, nil
}

// Recent returns the newest cycles first.
func (d *DB) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT session_id, area, cycle, outcome, found, target_x, target_y, confidence, started_at, ended_at
		FROM cycles ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreFailed, "list cycles")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e              Entry
			outcome        string
			found          int
			x, y           int
			started, ended string
		)
		if err := rows.Scan(&e.SessionID, &e.Area, &e.Index, &outcome, &found, &x, &y, &e.Confidence, &started, &ended); err != nil {
			return nil, apperrors.Wrap(err, apperrors.StoreFailed, "scan cycle")
		}
		e.Outcome = fishing.Outcome(outcome)
		e.Found = found != 0
		e.Target = image.Pt(x, y)
		e.Start, _ = time.Parse(time.RFC3339Nano, started)
		e.End, _ = time.Parse(time.RFC3339Nano, ended)
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
