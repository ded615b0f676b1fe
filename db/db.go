package db

import (
	"context"
	"errors"
	"time"

	"github.com/marcus-crane/adbreak/models"
)

var ErrNoPlays = errors.New("no plays have been logged yet")

// Store is the append-only play log.
type Store interface {
	// AppendIfNew logs title unless it matches the most recent entry.
	// It reports whether a row was written.
	AppendIfNew(ctx context.Context, at time.Time, title string) (bool, error)
	Latest(ctx context.Context) (models.Play, error)
	Recent(ctx context.Context, limit int) ([]models.Play, error)
	TimesPlayed(ctx context.Context, title string) (int, error)
	Close() error
}

func validateLimit(limit int) error {
	if limit <= 0 {
		return errors.New("must request at least one historical item")
	}
	return nil
}
