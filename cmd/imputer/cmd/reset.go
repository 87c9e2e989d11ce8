package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var resetCompany string

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete calculated Q4 facts",
	Long: `Reset deletes calculated fourth-quarter facts so a subsequent
'impute' run recomputes them from scratch. Reported facts are never
touched; only facts flagged as calculated are removed. Without --company
the reset spans every company.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVar(&resetCompany, "company", "", "limit the reset to one company")
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	env, err := setupEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	deleted, err := env.store.DeleteQ4(ctx, resetCompany)
	if err != nil {
		return err
	}
	return env.reporter.ReportReset(deleted, os.Stdout)
}
