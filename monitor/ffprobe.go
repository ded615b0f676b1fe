package monitor

import (
	"context"
	"fmt"
	"os/exec"
)

// FFProbe reads the StreamTitle tag with the ffprobe binary.
type FFProbe struct {
	Path string
	URL  string

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewFFProbe(path, url string) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{
		Path: path,
		URL:  url,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

func (f *FFProbe) Title(ctx context.Context) (string, error) {
	out, err := f.run(ctx, f.Path,
		"-v", "quiet",
		"-show_entries", "format_tags=StreamTitle",
		"-of", "default=noprint_wrappers=1:nokey=1",
		f.URL,
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffprobe timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("ffprobe failed: %w", err)
	}
	return string(out), nil
}
