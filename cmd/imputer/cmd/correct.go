package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"golang-imputation-service/internal/corrector"
)

var (
	correctCompany      string
	correctAllCompanies bool
)

var correctCmd = &cobra.Command{
	Use:   "correct",
	Short: "Convert cumulative cash-flow quarters to discrete amounts",
	Long: `Correct rewrites cash-flow statement values reported cumulatively
in interim filings (six months at Q2, nine months at Q3) as discrete
three-month amounts. Corrected facts are flagged and skipped on rerun.

Run before 'impute' so Q4 is derived from discrete quarters.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireCompanyScope(correctCompany, correctAllCompanies)
	},
	RunE: runCorrect,
}

func init() {
	rootCmd.AddCommand(correctCmd)

	correctCmd.Flags().StringVar(&correctCompany, "company", "", "company identifier to process")
	correctCmd.Flags().BoolVar(&correctAllCompanies, "all-companies", false, "process every company in the fact store")
}

func runCorrect(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	env, err := setupEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	c := corrector.NewCorrector(env.store, nil)

	var summary *corrector.Summary
	if correctAllCompanies {
		summary, err = c.CorrectAll(ctx)
	} else {
		summary, err = c.CorrectCompany(ctx, correctCompany)
	}
	if summary != nil {
		if reportErr := env.reporter.ReportCorrection(summary, os.Stdout); reportErr != nil && err == nil {
			err = reportErr
		}
	}
	return err
}
