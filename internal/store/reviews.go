package store

import (
	"context"
	"database/sql"
	"time"
)

// InsertReview stores a weekly review and returns its ID.
func (db *DB) InsertReview(ctx context.Context, r *ReviewRow) (int64, error) {
	if r.TakenAt.IsZero() {
		r.TakenAt = time.Now()
	}
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO reviews (taken_at, period_start, period_end, total_score, session_count, version)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatTime(r.TakenAt), formatTime(r.PeriodStart), formatTime(r.PeriodEnd),
		r.TotalScore, r.SessionCount, r.Version,
	)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	return id, nil
}

// GetLatestReview returns the most recent review, or nil if none exist.
func (db *DB) GetLatestReview(ctx context.Context) (*ReviewRow, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, taken_at, period_start, period_end, total_score, session_count, version FROM reviews ORDER BY id DESC LIMIT 1")
	return scanReview(row)
}

// ListReviews returns the n most recent reviews, newest first.
func (db *DB) ListReviews(ctx context.Context, n int) ([]ReviewRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, taken_at, period_start, period_end, total_score, session_count, version FROM reviews ORDER BY id DESC LIMIT ?",
		n,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reviews []ReviewRow
	for rows.Next() {
		var r ReviewRow
		var takenAt, start, end string
		if err := rows.Scan(&r.ID, &takenAt, &start, &end, &r.TotalScore, &r.SessionCount, &r.Version); err != nil {
			return nil, err
		}
		r.TakenAt = parseTime(takenAt)
		r.PeriodStart = parseTime(start)
		r.PeriodEnd = parseTime(end)
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row *sql.Row) (*ReviewRow, error) {
	var r ReviewRow
	var takenAt, start, end string
	err := row.Scan(&r.ID, &takenAt, &start, &end, &r.TotalScore, &r.SessionCount, &r.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TakenAt = parseTime(takenAt)
	r.PeriodStart = parseTime(start)
	r.PeriodEnd = parseTime(end)
	return &r, nil
}
