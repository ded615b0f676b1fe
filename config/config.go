package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	golobby "github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"

	"github.com/marcus-crane/adbreak/schedule"
	"github.com/marcus-crane/adbreak/utils"
)

const (
	DriverADB    = "adb"
	DriverMemory = "memory"

	ProberFFProbe = "ffprobe"
	ProberICY     = "icy"

	defaultStreamURL = "https://playerservices.streamtheworld.com/api/livestream-redirect/ASPEN.mp3?dist=infobae"
)

type Config struct {
	Adbreak  AdbreakConfig
	Device   DeviceConfig
	Volume   VolumeConfig
	Stream   StreamConfig
	Pushover PushoverConfig
}

type AdbreakConfig struct {
	DbPath       string `env:"DB_PATH"`
	HTTPAddr     string `env:"HTTP_ADDR"`
	LogLevel     string `env:"LOG_LEVEL"`
	SchedulePath string `env:"SCHEDULE_PATH"`
	TickMs       int    `env:"TICK_INTERVAL_MS"`
}

type DeviceConfig struct {
	Driver     string `env:"DEVICE_DRIVER"`
	Host       string `env:"TV_HOST"`
	Port       int    `env:"ADB_PORT"`
	ADBCommand string `env:"ADB_COMMAND"`
	// Only used by the memory driver
	MemoryLevel int `env:"MEMORY_VOLUME"`
}

type VolumeConfig struct {
	ReductionFactor float64 `env:"REDUCTION_FACTOR"`
	StepDelayMs     int     `env:"STEP_DELAY_MS"`
	// Zero means learn it from the device on the first break
	InitialVolume    int  `env:"INITIAL_VOLUME"`
	RelearnReference bool `env:"RELEARN_REFERENCE"`
}

type StreamConfig struct {
	URL                  string `env:"STREAM_URL"`
	Prober               string `env:"PROBER"`
	FFProbePath          string `env:"FFPROBE_PATH"`
	CheckIntervalSeconds int    `env:"TRACK_CHECK_INTERVAL_SECONDS"`
	ProbeTimeoutSeconds  int    `env:"PROBE_TIMEOUT_SECONDS"`
}

type PushoverConfig struct {
	Recipient string `env:"PUSHOVER_RECIPIENT"`
	Token     string `env:"PUSHOVER_TOKEN"`
}

func Default() Config {
	return Config{
		Adbreak: AdbreakConfig{
			DbPath:   "songs.db",
			LogLevel: "info",
			TickMs:   1000,
		},
		Device: DeviceConfig{
			Driver:      DriverADB,
			Port:        5555,
			ADBCommand:  "adb",
			MemoryLevel: 40,
		},
		Volume: VolumeConfig{
			ReductionFactor: 0.2,
			StepDelayMs:     300,
		},
		Stream: StreamConfig{
			URL:                  defaultStreamURL,
			Prober:               ProberFFProbe,
			FFProbePath:          "ffprobe",
			CheckIntervalSeconds: 5,
			ProbeTimeoutSeconds:  15,
		},
	}
}

// Load starts from the defaults and overlays dotEnvPath (if it exists)
// followed by the process environment.
func Load(dotEnvPath string) (Config, error) {
	cfg := Default()
	c := golobby.New()
	if dotEnvPath != "" && utils.FileExists(dotEnvPath) {
		c.AddFeeder(feeder.DotEnv{Path: dotEnvPath})
	}
	c.AddFeeder(feeder.Env{})
	c.AddStruct(&cfg)
	if err := c.Feed(); err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Device.Driver {
	case DriverADB:
		if c.Device.Host == "" {
			errs = append(errs, errors.New("TV_HOST must be provided for the adb driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DEVICE_DRIVER %q", c.Device.Driver))
	}
	switch c.Stream.Prober {
	case ProberFFProbe, ProberICY:
	default:
		errs = append(errs, fmt.Errorf("unknown PROBER %q", c.Stream.Prober))
	}
	if c.Volume.ReductionFactor <= 0 || c.Volume.ReductionFactor > 1 {
		errs = append(errs, fmt.Errorf("REDUCTION_FACTOR must be within (0, 1], got %v", c.Volume.ReductionFactor))
	}
	if c.Volume.StepDelayMs < 0 {
		errs = append(errs, errors.New("STEP_DELAY_MS cannot be negative"))
	}
	if c.Volume.InitialVolume < 0 {
		errs = append(errs, errors.New("INITIAL_VOLUME cannot be negative"))
	}
	if c.Adbreak.TickMs <= 0 {
		errs = append(errs, errors.New("TICK_INTERVAL_MS must be positive"))
	}
	if c.Stream.CheckIntervalSeconds <= 0 {
		errs = append(errs, errors.New("TRACK_CHECK_INTERVAL_SECONDS must be positive"))
	}
	if c.Stream.ProbeTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("PROBE_TIMEOUT_SECONDS must be positive"))
	}
	if c.Stream.URL == "" {
		errs = append(errs, errors.New("STREAM_URL must be provided"))
	}
	return errors.Join(errs...)
}

func (c *Config) Schedule() (schedule.Schedule, error) {
	if c.Adbreak.SchedulePath == "" {
		return schedule.Default(), nil
	}
	return schedule.Load(c.Adbreak.SchedulePath)
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Adbreak.TickMs) * time.Millisecond
}

func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.Volume.StepDelayMs) * time.Millisecond
}

func (c *Config) TrackCheckInterval() time.Duration {
	return time.Duration(c.Stream.CheckIntervalSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Stream.ProbeTimeoutSeconds) * time.Second
}

// ReferenceVolume is the configured starting reference, or nil if it
// should be learned from the device.
func (c *Config) ReferenceVolume() *int {
	if c.Volume.InitialVolume <= 0 {
		return nil
	}
	v := c.Volume.InitialVolume
	return &v
}

func (c *Config) PushoverEnabled() bool {
	return c.Pushover.Token != "" && c.Pushover.Recipient != ""
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Adbreak.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
