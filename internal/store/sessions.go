package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/google/uuid"
)

const checkColumns = `id, session_id, metric_key, check_window_days, due_at,
	outcome_level, metric_value, note`

const sessionColumns = `id, title, notes, duration_minutes, created_at,
	primary_metric_key, secondary_metric_keys`

// CreateSession inserts a session together with its initial checks in one
// transaction. Missing IDs are generated; the stored IDs are written back
// into s and s.Checks.
func (db *DB) CreateSession(ctx context.Context, s *SessionRow) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	secondary := s.SecondaryMetricKeys
	if secondary == nil {
		secondary = []string{}
	}
	secondaryJSON, err := json.Marshal(secondary)
	if err != nil {
		return fmt.Errorf("encoding secondary metrics: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, nullIfEmpty(s.Notes), s.DurationMinutes, formatTime(s.CreatedAt),
		s.PrimaryMetricKey, string(secondaryJSON),
	); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	now := formatTime(time.Now())
	for i := range s.Checks {
		ch := &s.Checks[i]
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}
		ch.SessionID = s.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcome_checks (`+checkColumns+`, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ch.ID, ch.SessionID, ch.MetricKey, ch.CheckWindowDays, formatTime(ch.DueAt),
			ch.Level.String(), ch.MetricValue, ch.Note, now,
		); err != nil {
			return fmt.Errorf("inserting check: %w", err)
		}
	}

	return tx.Commit()
}

// UpdateCheck applies a partial update to a single check and returns the
// stored result. Concurrent updates to the same check are last-write-wins.
func (db *DB) UpdateCheck(ctx context.Context, id string, p CheckPatch) (*outcome.Check, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now())}

	if p.Level != nil {
		sets = append(sets, "outcome_level = ?")
		args = append(args, p.Level.String())
	}
	switch {
	case p.MetricValue != nil:
		sets = append(sets, "metric_value = ?")
		args = append(args, *p.MetricValue)
	case p.ClearMetricValue:
		sets = append(sets, "metric_value = NULL")
	}
	switch {
	case p.Note != nil:
		sets = append(sets, "note = ?")
		args = append(args, *p.Note)
	case p.ClearNote:
		sets = append(sets, "note = NULL")
	}
	args = append(args, id)

	result, err := db.conn.ExecContext(ctx,
		"UPDATE outcome_checks SET "+strings.Join(sets, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating check: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("check %s: %w", id, ErrNotFound)
	}
	return db.GetCheck(ctx, id)
}

// GetCheck returns a single check by ID.
func (db *DB) GetCheck(ctx context.Context, id string) (*outcome.Check, error) {
	row := db.conn.QueryRowContext(ctx, "SELECT "+checkColumns+" FROM outcome_checks WHERE id = ?", id)
	ch, err := scanCheck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// ListSessions returns sessions created at or after since, newest first,
// each with its checks ordered by window ascending. A zero since returns
// every session.
func (db *DB) ListSessions(ctx context.Context, since time.Time) ([]SessionRow, error) {
	cutoff := ""
	if !since.IsZero() {
		cutoff = formatTime(since)
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE created_at >= ? ORDER BY created_at DESC, id",
		cutoff,
	)
	if err != nil {
		return nil, err
	}

	var sessions []SessionRow
	index := make(map[string]int)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		index[s.ID] = len(sessions)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(sessions) == 0 {
		return sessions, nil
	}

	checkRows, err := db.conn.QueryContext(ctx,
		`SELECT `+checkColumns+` FROM outcome_checks
		 WHERE session_id IN (SELECT id FROM sessions WHERE created_at >= ?)
		 ORDER BY check_window_days ASC, due_at ASC`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = checkRows.Close() }()

	for checkRows.Next() {
		ch, err := scanCheck(checkRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[ch.SessionID]; ok {
			sessions[i].Checks = append(sessions[i].Checks, ch)
		}
	}
	return sessions, checkRows.Err()
}

// GetSession returns the session whose ID equals or starts with idPrefix.
func (db *DB) GetSession(ctx context.Context, idPrefix string) (*SessionRow, error) {
	if idPrefix == "" {
		return nil, fmt.Errorf("empty session id: %w", ErrNotFound)
	}
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE substr(id, 1, ?) = ? LIMIT 2",
		len(idPrefix), idPrefix,
	)
	if err != nil {
		return nil, err
	}

	var found []SessionRow
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("session %s: %w", idPrefix, ErrNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("session id prefix %q is ambiguous", idPrefix)
	}

	s := found[0]
	checkRows, err := db.conn.QueryContext(ctx,
		"SELECT "+checkColumns+" FROM outcome_checks WHERE session_id = ? ORDER BY check_window_days ASC, due_at ASC",
		s.ID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = checkRows.Close() }()
	for checkRows.Next() {
		ch, err := scanCheck(checkRows)
		if err != nil {
			return nil, err
		}
		s.Checks = append(s.Checks, ch)
	}
	return &s, checkRows.Err()
}

// DeleteSession removes a session and, through the foreign key cascade,
// its checks.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (SessionRow, error) {
	var s SessionRow
	var notes sql.NullString
	var createdAt, secondary string
	if err := sc.Scan(&s.ID, &s.Title, &notes, &s.DurationMinutes, &createdAt,
		&s.PrimaryMetricKey, &secondary); err != nil {
		return s, err
	}
	s.Notes = notes.String
	s.CreatedAt = parseTime(createdAt)
	if err := json.Unmarshal([]byte(secondary), &s.SecondaryMetricKeys); err != nil {
		return s, fmt.Errorf("decoding secondary metrics of %s: %w", s.ID, err)
	}
	return s, nil
}

func scanCheck(sc scanner) (outcome.Check, error) {
	var ch outcome.Check
	var dueAt, level string
	var value sql.NullFloat64
	var note sql.NullString
	if err := sc.Scan(&ch.ID, &ch.SessionID, &ch.MetricKey, &ch.CheckWindowDays,
		&dueAt, &level, &value, &note); err != nil {
		return ch, err
	}
	ch.DueAt = parseTime(dueAt)
	l, err := outcome.ParseLevel(level)
	if err != nil {
		return ch, fmt.Errorf("check %s: %w", ch.ID, err)
	}
	ch.Level = l
	if value.Valid {
		v := value.Float64
		ch.MetricValue = &v
	}
	if note.Valid {
		n := note.String
		ch.Note = &n
	}
	return ch, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
