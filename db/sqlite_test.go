package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/adbreak/models"
)

const latestTitleQuery = "SELECT title FROM plays ORDER BY id DESC LIMIT 1"

func fakeSqliteStore(t *testing.T) (*SqliteStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return NewSqliteStoreFromDB(sqlx.NewDb(db, "sqlite3"), "session-a"), mock
}

func migratedSqliteStore(t *testing.T) *SqliteStore {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every new connection to :memory: is a brand new database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		db.Close()
	})
	s := NewSqliteStoreFromDB(db, "session-b")
	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSqliteStore_AppendIfNew_InsertsNewTitle(t *testing.T) {
	t.Parallel()
	s, mock := fakeSqliteStore(t)
	at := time.Date(2024, 5, 1, 10, 16, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(latestTitleQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Old Song"))
	mock.ExpectExec("INSERT INTO plays").
		WithArgs(at, "New Song", models.HashTitle("New Song"), "session-a").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	inserted, err := s.AppendIfNew(context.Background(), at, "New Song")
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteStore_AppendIfNew_SkipsDuplicate(t *testing.T) {
	t.Parallel()
	s, mock := fakeSqliteStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(latestTitleQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Same Song"))
	mock.ExpectRollback()

	inserted, err := s.AppendIfNew(context.Background(), time.Now(), "Same Song")
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteStore_AppendIfNew_QueryError(t *testing.T) {
	t.Parallel()
	s, mock := fakeSqliteStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(latestTitleQuery)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	inserted, err := s.AppendIfNew(context.Background(), time.Now(), "Song")
	assert.ErrorContains(t, err, "disk I/O error")
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqliteStore_Recent(t *testing.T) {
	t.Parallel()
	s, mock := fakeSqliteStore(t)
	at := time.Date(2024, 5, 1, 10, 16, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "played_at", "title", "title_hash", "session_id"}).
		AddRow(2, at, "bleh", "2", "s").
		AddRow(1, at, "blah", "1", "s")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, played_at, title, title_hash, session_id FROM plays ORDER BY id DESC LIMIT ?")).
		WithArgs(2).
		WillReturnRows(rows)

	want := []models.Play{
		{ID: 2, PlayedAt: at, Title: "bleh", TitleHash: "2", SessionID: "s"},
		{ID: 1, PlayedAt: at, Title: "blah", TitleHash: "1", SessionID: "s"},
	}
	got, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestSqliteStore_RecentRejectsBadLimit(t *testing.T) {
	t.Parallel()
	s, _ := fakeSqliteStore(t)
	_, err := s.Recent(context.Background(), 0)
	assert.Error(t, err)
}

func TestSqliteStore_Migrated(t *testing.T) {
	s := migratedSqliteStore(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoPlays)

	titles := []string{"A", "A", "B", "A", "A"}
	var inserted []bool
	for i, title := range titles {
		ok, err := s.AppendIfNew(ctx, start.Add(time.Duration(i)*time.Minute), title)
		require.NoError(t, err)
		inserted = append(inserted, ok)
	}
	assert.Equal(t, []bool{true, false, true, true, false}, inserted)

	latest, err := s.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", latest.Title)
	assert.Equal(t, "session-b", latest.SessionID)
	assert.Equal(t, models.HashTitle("A"), latest.TitleHash)
	assert.True(t, latest.PlayedAt.Equal(start.Add(3*time.Minute)))

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"A", "B", "A"}, []string{recent[0].Title, recent[1].Title, recent[2].Title})

	count, err := s.TimesPlayed(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.TimesPlayed(ctx, "C")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
