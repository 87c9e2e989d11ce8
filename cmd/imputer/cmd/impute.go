package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"golang-imputation-service/internal/imputation"
	"golang-imputation-service/internal/models"
)

var (
	imputeCompany        string
	imputeAllCompanies   bool
	imputeStatement      string
	imputeSubstituteZero bool
)

var imputeCmd = &cobra.Command{
	Use:   "impute",
	Short: "Derive Q4 facts from annual filings",
	Long: `Impute derives the fourth fiscal quarter for every non-abstract
concept of the selected companies. Flow concepts get Annual - (Q1+Q2+Q3);
point-in-time concepts get the annual balance copied. Existing Q4 facts
are skipped, so reruns are safe.

Run after 'correct' so cumulative cash-flow quarters have been converted
to discrete amounts.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := requireCompanyScope(imputeCompany, imputeAllCompanies); err != nil {
			return err
		}
		if imputeStatement != "" {
			if _, err := models.ParseStatementType(imputeStatement); err != nil {
				return err
			}
		}
		return nil
	},
	RunE: runImpute,
}

func init() {
	rootCmd.AddCommand(imputeCmd)

	imputeCmd.Flags().StringVar(&imputeCompany, "company", "", "company identifier to process")
	imputeCmd.Flags().BoolVar(&imputeAllCompanies, "all-companies", false, "process every company in the catalog")
	imputeCmd.Flags().StringVar(&imputeStatement, "statement", "",
		"limit to one statement type (income_statement, cash_flows, balance_sheet)")
	imputeCmd.Flags().BoolVar(&imputeSubstituteZero, "substitute-zero", false,
		"treat missing Q1-Q3 values as zero instead of failing")
}

func runImpute(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	env, err := setupEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	opts := imputation.Options{SubstituteZeroForMissing: imputeSubstituteZero}
	if imputeStatement != "" {
		st, err := models.ParseStatementType(imputeStatement)
		if err != nil {
			return err
		}
		opts.Statements = []models.StatementType{st}
	}
	calculator := imputation.NewCalculator(env.quarterly, env.annual, env.store, opts, nil)

	var summary *imputation.Summary
	if imputeAllCompanies {
		summary, err = calculator.RunAll(ctx)
	} else {
		summary, err = calculator.RunCompany(ctx, imputeCompany)
	}
	if summary != nil {
		if reportErr := env.reporter.ReportImputation(summary, os.Stdout); reportErr != nil && err == nil {
			err = reportErr
		}
	}
	return err
}
