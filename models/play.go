package models

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Play is a single entry in the play log: a title seen on the stream and
// when it was first noticed.
type Play struct {
	ID        int64     `db:"id" json:"-"`
	PlayedAt  time.Time `db:"played_at" json:"played_at"`
	Title     string    `db:"title" json:"title"`
	TitleHash string    `db:"title_hash" json:"title_hash"`
	SessionID string    `db:"session_id" json:"session_id"`
}

// HashTitle is deterministic so the same title always lands on the same key
// regardless of which run logged it.
func HashTitle(title string) string {
	return strconv.FormatUint(xxhash.Sum64String(title), 16)
}

func NewPlay(at time.Time, title, sessionID string) Play {
	return Play{
		PlayedAt:  at,
		Title:     title,
		TitleHash: HashTitle(title),
		SessionID: sessionID,
	}
}
