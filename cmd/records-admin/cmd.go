package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/config"
	"github.com/noah-isme/sma-records-api/pkg/database"
	"github.com/noah-isme/sma-records-api/pkg/logger"
)

type scoreReconciler interface {
	Run(ctx context.Context) (*models.ReconciliationResult, error)
}

// environment lazily opens what a subcommand needs. Tests replace the hooks.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB

	openDB        func(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error)
	gooseRun      func(command string, db *sql.DB, dir string, args ...string) error
	newReconciler func(env *environment) scoreReconciler
}

func (e *environment) setup(ctx context.Context) error {
	if e.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		e.cfg = cfg
	}
	if e.logger == nil {
		logr, err := logger.New(e.cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		e.logger = logr
	}
	if e.db == nil {
		open := e.openDB
		if open == nil {
			open = database.NewPostgres
		}
		db, err := open(ctx, e.cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		e.db = db
	}
	return nil
}

func (e *environment) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

func newRootCommand(env *environment) *cobra.Command {
	root := &cobra.Command{
		Use:           "records-admin",
		Short:         "Administrative tasks for the school records service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return env.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			env.close()
		},
	}
	root.AddCommand(newMigrateCommand(env), newReconcileCommand(env))
	return root
}
