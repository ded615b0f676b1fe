package db

import (
	"context"
	"sync"
	"time"

	"github.com/marcus-crane/adbreak/models"
)

// MemoryStore keeps the play log in process. It is used for dry runs
// where nothing should touch disk.
type MemoryStore struct {
	m         *sync.Mutex
	data      []models.Play
	sessionID string
}

func NewMemoryStore(sessionID string) *MemoryStore {
	return &MemoryStore{
		m:         new(sync.Mutex),
		data:      []models.Play{},
		sessionID: sessionID,
	}
}

func (ms *MemoryStore) AppendIfNew(ctx context.Context, at time.Time, title string) (bool, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	if n := len(ms.data); n > 0 && ms.data[n-1].Title == title {
		return false, nil
	}
	p := models.NewPlay(at, title, ms.sessionID)
	p.ID = int64(len(ms.data) + 1)
	ms.data = append(ms.data, p)
	return true, nil
}

func (ms *MemoryStore) Latest(ctx context.Context) (models.Play, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	if len(ms.data) == 0 {
		return models.Play{}, ErrNoPlays
	}
	return ms.data[len(ms.data)-1], nil
}

func (ms *MemoryStore) Recent(ctx context.Context, limit int) ([]models.Play, error) {
	pl := []models.Play{}
	if err := validateLimit(limit); err != nil {
		return pl, err
	}
	ms.m.Lock()
	defer ms.m.Unlock()
	for i := len(ms.data) - 1; i >= 0 && len(pl) < limit; i-- {
		pl = append(pl, ms.data[i])
	}
	return pl, nil
}

func (ms *MemoryStore) TimesPlayed(ctx context.Context, title string) (int, error) {
	ms.m.Lock()
	defer ms.m.Unlock()
	count := 0
	for _, p := range ms.data {
		if p.Title == title {
			count++
		}
	}
	return count, nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
