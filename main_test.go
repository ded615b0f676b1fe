package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/adbreak/config"
	"github.com/marcus-crane/adbreak/db"
	"github.com/marcus-crane/adbreak/device"
	"github.com/marcus-crane/adbreak/monitor"
)

func TestOpenStore_InMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Adbreak.DbPath = ""

	store, err := openStore(cfg, "session")
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &db.MemoryStore{}, store)
}

func TestOpenStore_Sqlite(t *testing.T) {
	cfg := config.Default()
	cfg.Adbreak.DbPath = filepath.Join(t.TempDir(), "songs.db")

	store, err := openStore(cfg, "session")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	inserted, err := store.AppendIfNew(ctx, time.Now(), "Song")
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestOpenDevice_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Device.Driver = config.DriverMemory
	cfg.Device.MemoryLevel = 22

	dev, err := openDevice(context.Background(), cfg)
	require.NoError(t, err)
	v, err := dev.Volume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 22, device.Level(v))
}

func TestNewProber(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &monitor.FFProbe{}, newProber(cfg))

	cfg.Stream.Prober = config.ProberICY
	assert.IsType(t, &monitor.ICY{}, newProber(cfg))
}
