// Package main provides the race-insights command line: one-shot meeting
// reports and the long-running results server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/race-insights/internal/analysis"
	"github.com/yourusername/race-insights/internal/config"
	"github.com/yourusername/race-insights/internal/database"
	"github.com/yourusername/race-insights/internal/datasource"
	"github.com/yourusername/race-insights/internal/logger"
	"github.com/yourusername/race-insights/internal/metrics"
	"github.com/yourusername/race-insights/internal/repository"
	"github.com/yourusername/race-insights/internal/service"
	"github.com/yourusername/race-insights/internal/session"
	"github.com/yourusername/race-insights/internal/tracing"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	log        *logrus.Logger
	cfg        *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.AddCommand(showCmd, serveCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:           "race-insights",
	Short:         "Race meeting statistics and insights",
	Long:          `Fetches the results of a race meeting, computes per-race statistics and narrative insights, and serves them to render clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("race-insights %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// logs go to stderr so that reports on stdout stay clean
	log = logger.New(cfg.App.LogLevel, cfg.App.Environment, os.Stderr)
	metrics.InitRegistry()

	if err := tracing.Initialize(cfg.Tracing, Version, log); err != nil {
		return err
	}
	return nil
}

// app is the wired dependency graph shared by every command
type app struct {
	db      *database.DB
	session *session.Session
	results *service.ResultsService
}

func setupApp(ctx context.Context) (*app, error) {
	a := &app{session: session.New(log)}

	var reader datasource.RaceRecordReader
	var archive service.MeetingArchive
	if cfg.UsesDatabase() {
		db, err := database.Initialize(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		repos, err := repository.NewRepositories(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize repositories: %w", err)
		}
		reader = repos.RaceRecord
		archive = repos.RaceRecord
	}

	source, err := datasource.NewFactory(cfg.Source, reader, log).Create()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	generator := analysis.NewGenerator(cfg.Analysis.LongShotMultiple)
	cache := analysis.NewCache(generator, cfg.CacheTTL(), cfg.Analysis.CacheMaxSize)

	a.results = service.NewResultsService(source, a.session, cache, log)
	if archive != nil {
		a.results.WithArchive(archive)
	}

	log.WithFields(logrus.Fields{
		"source":      source.Name(),
		"environment": cfg.App.Environment,
		"database":    a.db != nil,
	}).Info("Dependencies initialized")

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// parseDate reads a YYYY-MM-DD flag in the meeting timezone; empty means today
func parseDate(s string) (time.Time, error) {
	loc := cfg.Location()
	if s == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	date, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return date, nil
}
