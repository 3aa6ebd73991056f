package main

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-records-api/migrations"
)

var migrateCommands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true, "down": true, "down-to": true,
	"redo": true, "reset": true, "status": true, "version": true,
}

func newMigrateCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [VERSION]",
		Short: "Apply the embedded schema migrations (up, down, status, ...)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !migrateCommands[args[0]] {
				return fmt.Errorf("unknown migrate command %q", args[0])
			}
			if (args[0] == "up-to" || args[0] == "down-to") && len(args) < 2 {
				return fmt.Errorf("%s requires a VERSION", args[0])
			}
			run := env.gooseRun
			if run == nil {
				goose.SetBaseFS(migrations.FS)
				if err := goose.SetDialect("postgres"); err != nil {
					return err
				}
				run = goose.Run
			}
			if err := run(args[0], env.db.DB, ".", args[1:]...); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			env.logger.Info("migration finished")
			return nil
		},
	}
}
