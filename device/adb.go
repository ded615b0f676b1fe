package device

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	// STREAM_MUSIC in Android's AudioManager
	musicStream = "3"

	keyVolumeUp   = "KEYCODE_VOLUME_UP"
	keyVolumeDown = "KEYCODE_VOLUME_DOWN"
)

var volumePattern = regexp.MustCompile(`volume is (\d+)`)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("%s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return out.Bytes(), nil
}

// ADB drives an Android TV over the adb command line tool.
type ADB struct {
	serial string
	prefix []string
	run    Runner
}

// NewADB builds a client for host:port. command is the shell-quoted
// invocation of adb, which may include a wrapper such as "docker exec tools adb".
func NewADB(host string, port int, command string) (*ADB, error) {
	prefix, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("invalid adb command %q: %w", command, err)
	}
	if len(prefix) == 0 {
		prefix = []string{"adb"}
	}
	return &ADB{
		serial: fmt.Sprintf("%s:%d", host, port),
		prefix: prefix,
		run:    execRunner,
	}, nil
}

func (a *ADB) command(ctx context.Context, args ...string) ([]byte, error) {
	full := append(append([]string{}, a.prefix[1:]...), args...)
	return a.run(ctx, a.prefix[0], full...)
}

func (a *ADB) shell(ctx context.Context, args ...string) ([]byte, error) {
	return a.command(ctx, append([]string{"-s", a.serial, "shell"}, args...)...)
}

// Connect attaches the adb server to the television. adb exits zero even
// when it fails to connect so the output has to be inspected.
func (a *ADB) Connect(ctx context.Context) error {
	out, err := a.command(ctx, "connect", a.serial)
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(string(out))
	if !strings.Contains(msg, "connected to") {
		return fmt.Errorf("failed to connect to %s: %s", a.serial, msg)
	}
	slog.Info("Connected to device", slog.String("serial", a.serial))
	return nil
}

// Volume reads the music stream level. When the read fails the adb server
// has usually dropped the device, so a reconnect is attempted for the
// benefit of the next call; this call still fails.
func (a *ADB) Volume(ctx context.Context) (*int, error) {
	out, err := a.shell(ctx, "media", "volume", "--stream", musicStream, "--get")
	if err != nil {
		if cerr := a.Connect(ctx); cerr != nil {
			slog.Debug("Reconnect failed", slog.String("error", cerr.Error()))
		}
		return nil, err
	}
	return parseVolume(out), nil
}

func (a *ADB) VolumeUp(ctx context.Context) error {
	_, err := a.shell(ctx, "input", "keyevent", keyVolumeUp)
	return err
}

func (a *ADB) VolumeDown(ctx context.Context) error {
	_, err := a.shell(ctx, "input", "keyevent", keyVolumeDown)
	return err
}

func parseVolume(out []byte) *int {
	match := volumePattern.FindSubmatch(out)
	if match == nil {
		slog.Debug("Device did not report a volume", slog.String("output", string(out)))
		return nil
	}
	v, err := strconv.Atoi(string(match[1]))
	if err != nil {
		return nil
	}
	return &v
}
