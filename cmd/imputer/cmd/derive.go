package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"golang-imputation-service/internal/derived"
)

var (
	deriveCompany      string
	deriveAllCompanies bool
	deriveRecalculate  bool
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Synthesize derived concepts such as gross profit",
	Long: `Derive computes concepts defined as the difference of two reported
line items. The shipped definition is Gross Profit = Total Revenues -
Cost of Revenues, synthesized for quarters 1-4 and the annual period of
every fiscal year. Existing derived values are skipped unless
--recalculate is set, in which case they are replaced in place.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return requireCompanyScope(deriveCompany, deriveAllCompanies)
	},
	RunE: runDerive,
}

func init() {
	rootCmd.AddCommand(deriveCmd)

	deriveCmd.Flags().StringVar(&deriveCompany, "company", "", "company identifier to process")
	deriveCmd.Flags().BoolVar(&deriveAllCompanies, "all-companies", false, "process every company in the catalog")
	deriveCmd.Flags().BoolVar(&deriveRecalculate, "recalculate", false, "replace existing derived values")
}

func runDerive(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	env, err := setupEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	mapper := derived.NewFallbackMapper(derived.NewPostgresMapper(env.pool), derived.DefaultMappings())
	synthesizer := derived.NewSynthesizer(env.quarterly, env.annual, env.store, mapper, nil)
	definition := derived.GrossProfit()

	companies := []string{deriveCompany}
	if deriveAllCompanies {
		companies, err = env.quarterly.Companies(ctx)
		if err != nil {
			return err
		}
	}

	total := &derived.Summary{}
	for _, companyID := range companies {
		summary, runErr := synthesizer.SynthesizeCompany(ctx, companyID, definition, deriveRecalculate)
		total.Merge(summary)
		if runErr != nil {
			err = runErr
			break
		}
	}

	if reportErr := env.reporter.ReportSynthesis(total, os.Stdout); reportErr != nil && err == nil {
		err = reportErr
	}
	return err
}
