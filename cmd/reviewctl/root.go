package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vytor/pylearn/internal/config"
	"github.com/vytor/pylearn/internal/db"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/repository/sqlite"
	"github.com/vytor/pylearn/internal/scheduler"
	"github.com/vytor/pylearn/internal/services"
)

// app bundles the services a command needs. Commands run synchronously, so
// no worker pool is started and cached metrics are only invalidated.
type app struct {
	db       *db.DB
	learners services.LearnerService
	reviews  services.ReviewService
	stats    services.StatsService
}

func openApp(dbPath string) (*app, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	learnerRepo := sqlite.NewLearnerRepository(database.DB)
	itemRepo := sqlite.NewReviewItemRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)
	sched := scheduler.New()

	return &app{
		db:       database,
		learners: services.NewLearnerService(learnerRepo),
		reviews:  services.NewReviewService(learnerRepo, itemRepo, statsRepo, nil, sched),
		stats:    services.NewStatsService(learnerRepo, itemRepo, statsRepo, sched),
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

func (a *app) learner(ctx context.Context, username string) (*models.Learner, error) {
	if username == "" {
		return nil, fmt.Errorf("--learner is required")
	}
	return a.learners.GetLearnerByUsername(ctx, username)
}

type rootOptions struct {
	dbPath  string
	verbose bool
}

// withApp opens the database for the duration of fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(o.dbPath)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "Inspect and manage concept review schedules",
		Long: `reviewctl works directly on the review database: it exports and imports
learner review data and shows due items, sessions and learning metrics.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.WARN
			if opts.verbose {
				level = logger.DEBUG
			}
			logger.SetDefault(logger.New(logger.WithLevel(level), logger.WithOutput(os.Stderr)))
		},
	}

	root.PersistentFlags().StringVar(&opts.dbPath, "db", config.Load().DBPath, "path to the sqlite database")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newLearnersCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newDueCmd(opts),
		newSessionCmd(opts),
		newMetricsCmd(opts),
	)
	return root
}
