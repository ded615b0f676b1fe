package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/marcus-crane/adbreak/config"
	"github.com/marcus-crane/adbreak/controller"
	"github.com/marcus-crane/adbreak/db"
	"github.com/marcus-crane/adbreak/device"
	"github.com/marcus-crane/adbreak/events"
	"github.com/marcus-crane/adbreak/jobs"
	"github.com/marcus-crane/adbreak/monitor"
	"github.com/marcus-crane/adbreak/notify"
	"github.com/marcus-crane/adbreak/routes"
	"github.com/marcus-crane/adbreak/utils"
)

func main() {
	cfg, err := config.Load(utils.GetEnv("ENV_FILE", ".env"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	})))

	sched, err := cfg.Schedule()
	if err != nil {
		slog.Error("Failed to load schedule", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := uuid.NewString()

	store, err := openStore(cfg, sessionID)
	if err != nil {
		slog.Error("Failed to open play log", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	dev, err := openDevice(ctx, cfg)
	if err != nil {
		slog.Error("Failed to set up device", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctl := controller.New(controller.Options{
		ReductionFactor:    cfg.Volume.ReductionFactor,
		StepDelay:          cfg.StepDelay(),
		TrackCheckInterval: cfg.TrackCheckInterval(),
		InitialVolume:      cfg.ReferenceVolume(),
		RelearnReference:   cfg.Volume.RelearnReference,
	}, dev, sched, monitor.New(newProber(cfg), cfg.ProbeTimeout()), store)

	if cfg.PushoverEnabled() {
		ctl.SetNotifier(notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.Recipient))
	}

	sseServer := events.New()
	defer sseServer.Close()
	ctl.SetBroadcaster(events.NewBroadcaster(sseServer))

	scheduler, err := jobs.SetupInBackground(ctx, cfg.TickInterval(), ctl)
	if err != nil {
		slog.Error("Failed to schedule ticks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	attrs := []any{
		slog.String("session", sessionID),
		slog.Float64("reduction_factor", cfg.Volume.ReductionFactor),
		slog.Int("break_hours", len(sched.Hours())),
	}
	if next, ok := sched.Next(time.Now()); ok {
		attrs = append(attrs, slog.Time("next_break", next))
	}
	slog.Info("Starting volume control", attrs...)
	scheduler.StartAsync()

	var srv *http.Server
	if cfg.Adbreak.HTTPAddr != "" {
		srv = &http.Server{
			Addr:    cfg.Adbreak.HTTPAddr,
			Handler: routes.Register(http.NewServeMux(), ctl, store, sched, sseServer, time.Now),
		}
		go func() {
			slog.Info("Status API is listening", slog.String("addr", cfg.Adbreak.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Status API stopped", slog.String("error", err.Error()))
			}
		}()
	}

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	// In-flight transitions see the cancelled context and stop between
	// steps. The volume is deliberately not restored on the way out.
	scheduler.Stop()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to stop status API", slog.String("error", err.Error()))
		}
	}

	fmt.Println("adbreak has successfully shut down.")
}

func openStore(cfg config.Config, sessionID string) (db.Store, error) {
	if cfg.Adbreak.DbPath == "" {
		slog.Info("DB_PATH is empty, keeping the play log in memory")
		return db.NewMemoryStore(sessionID), nil
	}
	store, err := db.NewSqliteStore(cfg.Adbreak.DbPath, sessionID)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return store, nil
}

func openDevice(ctx context.Context, cfg config.Config) (device.Volume, error) {
	if cfg.Device.Driver == config.DriverMemory {
		slog.Warn("Using an in-memory device, no television will be touched",
			slog.Int("volume", cfg.Device.MemoryLevel))
		return device.NewMemory(cfg.Device.MemoryLevel, 100), nil
	}
	adb, err := device.NewADB(cfg.Device.Host, cfg.Device.Port, cfg.Device.ADBCommand)
	if err != nil {
		return nil, err
	}
	// Not fatal: the television may simply be off. Every tick retries.
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := adb.Connect(connectCtx); err != nil {
		slog.Warn("Could not connect to device yet", slog.String("error", err.Error()))
	}
	return adb, nil
}

func newProber(cfg config.Config) monitor.Prober {
	if cfg.Stream.Prober == config.ProberICY {
		return monitor.NewICY(cfg.Stream.URL)
	}
	return monitor.NewFFProbe(cfg.Stream.FFProbePath, cfg.Stream.URL)
}
