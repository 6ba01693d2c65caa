package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/outcome"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newSession(title, metric string, createdAt time.Time) *SessionRow {
	return &SessionRow{
		Title:            title,
		DurationMinutes:  60,
		CreatedAt:        createdAt,
		PrimaryMetricKey: metric,
		Checks:           outcome.BuildChecks(catalog.Default(), metric, createdAt),
	}
}

var base = time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

func TestMigrate_SetsVersion(t *testing.T) {
	db := openTestDB(t)
	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, v)

	// Running migrations again is a no-op.
	require.NoError(t, db.Migrate())
}

func TestMigrate_RejectsNewerSchema(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Conn().Exec("UPDATE schema_version SET version = ?", currentSchemaVersion+1)
	require.NoError(t, err)

	assert.ErrorContains(t, db.Migrate(), "newer than this binary")
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "impactlog.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.FileExists(t, path)
}

func TestCreateSession_AssignsIDs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := newSession("DM outreach", "dm_started", base)
	s.SecondaryMetricKeys = []string{"positive_replies"}
	s.Notes = "15 targeted messages"
	require.NoError(t, db.CreateSession(ctx, s))

	assert.NotEmpty(t, s.ID)
	require.Len(t, s.Checks, 2)
	for _, ch := range s.Checks {
		assert.NotEmpty(t, ch.ID)
		assert.Equal(t, s.ID, ch.SessionID)
	}

	got, err := db.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "DM outreach", got.Title)
	assert.Equal(t, "15 targeted messages", got.Notes)
	assert.Equal(t, []string{"positive_replies"}, got.SecondaryMetricKeys)
	assert.True(t, base.Equal(got.CreatedAt))
	require.Len(t, got.Checks, 2)
	assert.Equal(t, 2, got.Checks[0].CheckWindowDays)
	assert.Equal(t, 7, got.Checks[1].CheckWindowDays)
	assert.True(t, base.AddDate(0, 0, 7).Equal(got.Checks[1].DueAt))
	assert.Equal(t, outcome.None, got.Checks[0].Level)
	assert.Nil(t, got.Checks[0].MetricValue)
	assert.Nil(t, got.Checks[0].Note)
}

func TestCreateSession_IsAtomic(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := newSession("Broken", "meetings", base)
	// Duplicate check IDs violate the primary key on the second insert.
	s.Checks[0].ID = "dup"
	s.Checks[1].ID = "dup"
	require.Error(t, db.CreateSession(ctx, s))

	sessions, err := db.ListSessions(ctx, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestCreateSession_RejectsNonPositiveDuration(t *testing.T) {
	s := newSession("Zero", "meetings", base)
	s.DurationMinutes = 0
	assert.Error(t, openTestDB(t).CreateSession(context.Background(), s))
}

func TestListSessions_NewestFirstWithOrderedChecks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	older := newSession("Older", "meetings", base)
	newer := newSession("Newer", "dm_started", base.Add(48*time.Hour))
	require.NoError(t, db.CreateSession(ctx, older))
	require.NoError(t, db.CreateSession(ctx, newer))

	sessions, err := db.ListSessions(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "Newer", sessions[0].Title)
	assert.Equal(t, "Older", sessions[1].Title)

	for _, s := range sessions {
		require.NotEmpty(t, s.Checks)
		for i := 1; i < len(s.Checks); i++ {
			assert.Less(t, s.Checks[i-1].CheckWindowDays, s.Checks[i].CheckWindowDays)
		}
	}
	assert.Equal(t, []int{7, 30}, []int{sessions[1].Checks[0].CheckWindowDays, sessions[1].Checks[1].CheckWindowDays})

	recent, err := db.ListSessions(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Newer", recent[0].Title)
}

func TestUpdateCheck_PartialFields(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := newSession("Revenue", "revenue_eur", base)
	require.NoError(t, db.CreateSession(ctx, s))
	id := s.Checks[0].ID

	high := outcome.High
	value := 5000.0
	got, err := db.UpdateCheck(ctx, id, CheckPatch{Level: &high, MetricValue: &value})
	require.NoError(t, err)
	assert.Equal(t, outcome.High, got.Level)
	require.NotNil(t, got.MetricValue)
	assert.Equal(t, 5000.0, *got.MetricValue)
	assert.Nil(t, got.Note)

	// Updating only the note keeps the other fields.
	note := "Signed after discovery call"
	got, err = db.UpdateCheck(ctx, id, CheckPatch{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, outcome.High, got.Level)
	require.NotNil(t, got.MetricValue)
	assert.Equal(t, 5000.0, *got.MetricValue)
	require.NotNil(t, got.Note)
	assert.Equal(t, note, *got.Note)

	got, err = db.UpdateCheck(ctx, id, CheckPatch{ClearMetricValue: true, ClearNote: true})
	require.NoError(t, err)
	assert.Nil(t, got.MetricValue)
	assert.Nil(t, got.Note)
	assert.Equal(t, outcome.High, got.Level)
}

func TestUpdateCheck_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := newSession("Leads", "qualified_leads", base)
	require.NoError(t, db.CreateSession(ctx, s))
	id := s.Checks[1].ID

	low, med := outcome.Low, outcome.Med
	_, err := db.UpdateCheck(ctx, id, CheckPatch{Level: &low})
	require.NoError(t, err)
	got, err := db.UpdateCheck(ctx, id, CheckPatch{Level: &med})
	require.NoError(t, err)
	assert.Equal(t, outcome.Med, got.Level)
}

func TestUpdateCheck_NotFound(t *testing.T) {
	high := outcome.High
	_, err := openTestDB(t).UpdateCheck(context.Background(), "missing", CheckPatch{Level: &high})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetSession_Prefix(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	a := newSession("A", "likes", base)
	a.ID = "abc-111"
	b := newSession("B", "likes", base)
	b.ID = "abd-222"
	require.NoError(t, db.CreateSession(ctx, a))
	require.NoError(t, db.CreateSession(ctx, b))

	got, err := db.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Title)

	_, err = db.GetSession(ctx, "ab")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = db.GetSession(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSession_CascadesChecks(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	s := newSession("Gone", "views", base)
	require.NoError(t, db.CreateSession(ctx, s))
	require.NoError(t, db.DeleteSession(ctx, s.ID))

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM outcome_checks").Scan(&n))
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, db.DeleteSession(ctx, s.ID), ErrNotFound)
}

func TestReviews(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	latest, err := db.GetLatestReview(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	for i, score := range []float64{12.5, 18.0} {
		r := &ReviewRow{
			TakenAt:      base.AddDate(0, 0, 7*i),
			PeriodStart:  base.AddDate(0, 0, 7*i-7),
			PeriodEnd:    base.AddDate(0, 0, 7*i),
			TotalScore:   score,
			SessionCount: 3 + i,
			Version:      "test",
		}
		_, err := db.InsertReview(ctx, r)
		require.NoError(t, err)
		assert.NotZero(t, r.ID)
	}

	latest, err = db.GetLatestReview(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 18.0, latest.TotalScore)
	assert.Equal(t, 4, latest.SessionCount)

	reviews, err := db.ListReviews(ctx, 5)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 18.0, reviews[0].TotalScore)
	assert.True(t, base.Equal(reviews[1].TakenAt))
}
