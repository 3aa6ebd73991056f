package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-records-api/internal/repository"
	"github.com/noah-isme/sma-records-api/internal/service"
)

func newReconcileCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Report students whose stored behaviour score disagrees with the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var reconciler scoreReconciler
			if env.newReconciler != nil {
				reconciler = env.newReconciler(env)
			} else {
				reconciler = service.NewReconciliationService(repository.NewDashboardRepository(env.db), nil, env.logger)
			}
			result, err := reconciler.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Drifts) == 0 {
				fmt.Fprintln(out, "all behaviour scores match the ledger")
				return nil
			}
			fmt.Fprintf(out, "%d student(s) drifting:\n", len(result.Drifts))
			for _, drift := range result.Drifts {
				fmt.Fprintf(out, "  %s stored=%d expected=%d\n", drift.StudentCode, drift.StoredScore, drift.ExpectedScore)
			}
			return nil
		},
	}
}
