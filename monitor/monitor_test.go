package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubProber struct {
	title string
	err   error
	block bool
}

func (s stubProber) Title(ctx context.Context) (string, error) {
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.title, s.err
}

func TestMonitor_Poll(t *testing.T) {
	m := New(stubProber{title: "  Queen - Bohemian Rhapsody\n"}, time.Second)
	title, ok := m.Poll(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "Queen - Bohemian Rhapsody", title)
}

func TestMonitor_PollSwallowsFailures(t *testing.T) {
	cases := map[string]Prober{
		"error":   stubProber{err: errors.New("connection reset")},
		"empty":   stubProber{title: ""},
		"blank":   stubProber{title: " \n"},
		"timeout": stubProber{block: true},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			m := New(p, 10*time.Millisecond)
			title, ok := m.Poll(context.Background())
			assert.False(t, ok)
			assert.Empty(t, title)
		})
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	m := New(stubProber{}, 0)
	assert.Equal(t, DefaultTimeout, m.timeout)
}

func TestFFProbe_Title(t *testing.T) {
	f := NewFFProbe("", "https://example.com/stream.mp3")
	var gotName string
	var gotArgs []string
	f.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte("Soda Stereo - De Musica Ligera\n"), nil
	}

	title, err := f.Title(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "Soda Stereo - De Musica Ligera\n", title)
	assert.Equal(t, "ffprobe", gotName)
	assert.Equal(t, "https://example.com/stream.mp3", gotArgs[len(gotArgs)-1])
	assert.Contains(t, gotArgs, "format_tags=StreamTitle")
}

func TestFFProbe_Failure(t *testing.T) {
	f := NewFFProbe("/usr/bin/ffprobe", "https://example.com/stream.mp3")
	f.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	_, err := f.Title(context.Background())
	assert.ErrorContains(t, err, "ffprobe failed")
}
