package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/race-insights/internal/health"
	"github.com/yourusername/race-insights/internal/scheduler"
	"github.com/yourusername/race-insights/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve today's meeting over HTTP and websocket, refreshing it on schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func runServer(ctx context.Context) error {
	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	hub := stream.New(a.session, a.results, cfg.Location(), log)
	hub.Start(ctx)

	serverCfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Server.Port,
		Logger:      log,
		Results:     a.results,
		MetricsPath: cfg.Server.MetricsPath,
		StreamPath:  cfg.Server.StreamPath,
		Stream:      hub,
	}
	if a.db != nil {
		serverCfg.DB = a.db
	}
	server := health.NewServer(serverCfg)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sched := scheduler.NewScheduler(a.results, cfg.Location(), log)
	if _, err := sched.RefreshToday(ctx); err != nil {
		// the server stays up; /ready reports the meeting as not loaded
		log.WithError(err).Warn("Initial meeting load failed")
	}

	if cfg.Schedule.Enabled {
		if _, err := sched.ScheduleMeetingRefresh(cfg.Schedule.PollCron); err != nil {
			return fmt.Errorf("failed to schedule meeting refresh: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	server.SetReady(true)
	log.WithField("port", cfg.Server.Port).Info("race-insights serving")

	<-ctx.Done()
	log.Info("Shutting down")
	server.SetReady(false)
	return nil
}
