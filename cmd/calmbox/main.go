// Package main provides the calmbox command line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/calmbox/internal/app/countdown"
	"github.com/osa030/calmbox/internal/app/session"
	pattern "github.com/osa030/calmbox/internal/domain/breathing"
	"github.com/osa030/calmbox/internal/domain/meditation"
	"github.com/osa030/calmbox/internal/domain/mindful"
	"github.com/osa030/calmbox/internal/infra/config"
	"github.com/osa030/calmbox/internal/infra/healthstore"
	"github.com/osa030/calmbox/internal/infra/logger"
)

var (
	app        = kingpin.New("calmbox", "Guided breathing and meditation timer")
	configPath = app.Flag("config", "Path to config file").Default("config/calmbox.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// breathe command
	breatheCmd     = app.Command("breathe", "Run a breathing exercise")
	breathePattern = breatheCmd.Flag("pattern", "Breathing pattern (box, 4-7-8)").String()
	breatheReps    = breatheCmd.Flag("reps", "Number of repetitions (10-30)").Int()

	// meditate command
	meditateCmd     = app.Command("meditate", "Run a meditation timer")
	meditateMinutes = meditateCmd.Flag("minutes", "Session length in minutes (1-60)").Int()
	meditatePreset  = meditateCmd.Flag("preset", "Preset length, e.g. 5m, 10m, 20m, 30m").String()
	meditateBreathe = meditateCmd.Flag("breathe-first", "Run a breathing exercise before meditating").Bool()

	// patterns command
	patternsCmd = app.Command("patterns", "List breathing patterns")

	// history command
	historyCmd   = app.Command("history", "List recorded mindful sessions")
	historyLimit = historyCmd.Flag("limit", "Maximum number of sessions to show").Default("20").Int()

	// today command
	todayCmd = app.Command("today", "Show mindful minutes recorded today")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle patterns command
	if command == patternsCmd.FullCommand() {
		printPatterns()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stderr",
		Level:  "warn",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	logCloser, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logCloser.Close()

	// Load config
	zlog.Debug().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(command, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the selected command. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(command string, cfg *config.Config) error {
	switch command {
	case breatheCmd.FullCommand():
		opts, err := breatheOptions(*breathePattern, *breatheReps)
		if err != nil {
			return err
		}
		return runSession(cfg, opts)

	case meditateCmd.FullCommand():
		opts, err := meditateOptions(cfg, *meditateMinutes, *meditatePreset, *meditateBreathe)
		if err != nil {
			return err
		}
		return runSession(cfg, opts)

	case historyCmd.FullCommand():
		return withStore(cfg, func(ctx context.Context, store healthstore.Store) error {
			return printHistory(ctx, store, *historyLimit)
		})

	case todayCmd.FullCommand():
		return withStore(cfg, func(ctx context.Context, store healthstore.Store) error {
			total, err := store.TodayTotal(ctx, time.Now())
			if err != nil {
				return errors.Wrap(err, "failed to read today's sessions")
			}
			fmt.Printf("Mindful minutes today: %s\n", formatDuration(total))
			return nil
		})
	}

	return errors.Newf("unknown command: %s", command)
}

// breatheOptions builds session options from the breathe command flags.
func breatheOptions(patternFlag string, reps int) (session.Options, error) {
	opts := session.Options{
		Plan:        session.PlanBreathing,
		Repetitions: reps,
	}
	if patternFlag != "" {
		id, err := pattern.ParsePatternID(patternFlag)
		if err != nil {
			return opts, err
		}
		opts.Pattern = id
	}
	return opts, nil
}

// meditateOptions builds session options from the meditate command flags.
// Free-form minutes are clamped to the supported range; presets must be valid.
func meditateOptions(cfg *config.Config, minutes int, preset string, breatheFirst bool) (session.Options, error) {
	opts := session.Options{Plan: session.PlanMeditation}
	if breatheFirst || cfg.Meditation.BreatheFirst {
		opts.Plan = session.PlanBreathingThenMeditation
	}

	switch {
	case preset != "":
		m, err := meditation.ParsePreset(preset)
		if err != nil {
			return opts, err
		}
		if !cfg.IsPreset(m) {
			zlog.Warn().Msgf("%s is not a configured preset, using it anyway", meditation.PresetLabel(m))
		}
		minutes = m
	case minutes == 0:
		minutes = cfg.Meditation.DefaultMinutes
	default:
		clamped := meditation.ClampMinutes(minutes)
		if clamped != minutes {
			zlog.Warn().Msgf("meditation length %d minutes clamped to %d", minutes, clamped)
		}
		minutes = clamped
	}

	opts.MeditationSeconds = minutes * 60
	return opts, nil
}

// runSession runs one session on the wall clock until it ends or the process is interrupted.
func runSession(cfg *config.Config, opts session.Options) error {
	store, err := healthstore.NewFromConfig(cfg.Health)
	if err != nil {
		// Sessions still run without health records.
		zlog.Warn().Msgf("Health store disabled: %v", err)
		store = healthstore.Unavailable{}
	}
	defer store.Close()

	mgr, err := session.NewManager(cfg, countdown.WallClock{}, store)
	if err != nil {
		return errors.Wrap(err, "failed to create session manager")
	}
	defer mgr.Close()

	console := newConsole(os.Stdout)
	subscriptionID := mgr.GetNotificationManager().Subscribe(console)
	defer mgr.GetNotificationManager().Unsubscribe(subscriptionID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	executeHooks(cfg.Hooks.OnStarted, "on_started")

	console.printHelp(opts.Plan)
	if err := mgr.Start(ctx, opts); err != nil {
		return err
	}

	go watchInput(os.Stdin, mgr)

	<-mgr.Done()

	info := mgr.Status().Info
	zlog.Info().Msgf("session finished: session_id=%s outcome=%s", info.SessionID, info.Outcome)
	fmt.Println(sessionSummary(info))

	executeHooks(cfg.Hooks.OnFinished, "on_finished")
	return nil
}

// withStore opens the configured health store for a read-only command.
func withStore(cfg *config.Config, fn func(ctx context.Context, store healthstore.Store) error) error {
	store, err := healthstore.NewFromConfig(cfg.Health)
	if err != nil {
		return errors.Wrap(err, "failed to open health store")
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if !store.IsAvailable() {
		return healthstore.ErrUnavailable
	}
	return fn(ctx, store)
}

// printPatterns prints the breathing pattern catalog.
func printPatterns() {
	fmt.Println("Breathing Patterns:")
	for _, p := range pattern.Patterns() {
		fmt.Printf("  %-6s %-16s %s (%ds per cycle)\n", p.ID, p.Name, p.Description, p.CycleSeconds())
	}
}

// printHistory prints the most recent sessions.
func printHistory(ctx context.Context, store healthstore.Store, limit int) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to read sessions")
	}
	if len(sessions) == 0 {
		fmt.Println("No mindful sessions recorded yet.")
		return nil
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	fmt.Println("Mindful Sessions:")
	for _, s := range sessions {
		fmt.Printf("  %s  %s\n", s.StartedAt.Local().Format("2006-01-02 15:04"), formatDuration(s.Duration()))
	}
	fmt.Printf("Total: %s\n", formatDuration(mindful.TotalDuration(sessions)))
	return nil
}
