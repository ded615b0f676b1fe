package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/marcus-crane/adbreak/migrations"
	"github.com/marcus-crane/adbreak/models"

	_ "modernc.org/sqlite"
)

type SqliteStore struct {
	DB        *sqlx.DB
	sessionID string
}

// NewSqliteStore opens (creating if needed) the play log at dsn. sessionID
// tags every row written by this process.
func NewSqliteStore(dsn, sessionID string) (*SqliteStore, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite only tolerates one writer and we only ever have one
	db.SetMaxOpenConns(1)
	slog.Info("Opened play log", slog.String("path", dsn))
	return NewSqliteStoreFromDB(db, sessionID), nil
}

func NewSqliteStoreFromDB(db *sqlx.DB, sessionID string) *SqliteStore {
	return &SqliteStore{DB: db, sessionID: sessionID}
}

func (s *SqliteStore) ApplyMigrations() error {
	goose.SetBaseFS(migrations.FS())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}

	if err := goose.Up(s.DB.DB, migrations.Dir); err != nil {
		return err
	}

	return nil
}

func (s *SqliteStore) AppendIfNew(ctx context.Context, at time.Time, title string) (bool, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}

	var committed bool
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	var latest string
	err = tx.GetContext(ctx, &latest, "SELECT title FROM plays ORDER BY id DESC LIMIT 1")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to read latest play: %w", err)
	}
	if err == nil && latest == title {
		return false, nil
	}

	play := models.NewPlay(at, title, s.sessionID)
	_, err = tx.NamedExecContext(ctx, `
	  INSERT INTO plays (played_at, title, title_hash, session_id)
	  VALUES (:played_at, :title, :title_hash, :session_id)`,
		play)
	if err != nil {
		return false, fmt.Errorf("failed to insert play: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

func (s *SqliteStore) Latest(ctx context.Context) (models.Play, error) {
	p := models.Play{}
	err := s.DB.GetContext(ctx, &p, "SELECT id, played_at, title, title_hash, session_id FROM plays ORDER BY id DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNoPlays
	}
	return p, err
}

func (s *SqliteStore) Recent(ctx context.Context, limit int) ([]models.Play, error) {
	pl := []models.Play{}
	if err := validateLimit(limit); err != nil {
		return pl, err
	}
	if err := s.DB.SelectContext(ctx, &pl, "SELECT id, played_at, title, title_hash, session_id FROM plays ORDER BY id DESC LIMIT ?", limit); err != nil {
		return pl, err
	}
	return pl, nil
}

func (s *SqliteStore) TimesPlayed(ctx context.Context, title string) (int, error) {
	var count int
	// title_hash is indexed, title guards against the odd collision
	err := s.DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM plays WHERE title_hash = ? AND title = ?", models.HashTitle(title), title)
	return count, err
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
