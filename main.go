package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println("lunchbox", version)
		return
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "lunchbox:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", defaultConfigPath(), "path to config file")
	logLevel := pflag.String("log-level", "", "override log level")
	listen := pflag.String("listen", "", "override admin listen address")
	pflag.Parse()

	// .env is optional; real env always wins.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	initLogger(cfg.Logging.levelOrDefault(), cfg.Logging.Format)
	defer logger.Sync()

	tasks, err := newTaskStore(cfg.DataDir)
	if err != nil {
		return err
	}
	calendar, err := newCalendarStore(cfg.DataDir)
	if err != nil {
		return err
	}
	timezones, err := newTimezoneStore(cfg.DataDir)
	if err != nil {
		return err
	}

	clk := clock.New()
	reminders := newReminderStore(clk, cfg.Reminders.sweepIntervalOrDefault())
	timers := newTimerStore(clk)
	discord := newDiscordClient(cfg.Discord)
	notify := discord.ReminderNotifier()

	calendarSync, err := newCalendarSyncStore(cfg.DataDir, clk, calendar, reminders, notify)
	if err != nil {
		return err
	}

	app := &App{
		Extractor:    newExtractor(),
		Tasks:        tasks,
		Calendar:     calendar,
		CalendarSync: calendarSync,
		Reminders:    reminders,
		Timers:       timers,
		Timezones:    timezones,
		Categorizer:  newCategorizer(cfg.Groq),
		Notify:       notify,
		TimerNotify:  discord.TimerNotifier(),
		Now:          clk.Now,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reminders.Start(ctx)
	defer reminders.Stop()
	if err := calendarSync.Start(ctx); err != nil {
		logWarn("calendar sync startup failed", "error", err)
	}
	defer calendarSync.Stop()

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: newRouter(app)}
	errCh := make(chan error, 1)
	go func() {
		logInfo("admin api listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logInfo("lunchbox started", "version", version, "dataDir", cfg.DataDir)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("admin api: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logWarn("admin api shutdown", "error", err)
	}
	logInfo("lunchbox stopped")
	return nil
}
