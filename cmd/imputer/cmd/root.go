package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-imputation-service/cmd/imputer/config"
	"golang-imputation-service/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imputer",
	Short: "Quarterly financial data imputation tool",
	Long: `Imputer derives the fourth fiscal quarter from annual filings.
Companies file three quarterly reports and one annual report per year;
imputer computes Q4 = Annual - (Q1 + Q2 + Q3) for flow concepts, copies
the annual balance for point-in-time concepts, converts cumulative
cash-flow quarters into discrete amounts, and synthesizes derived
concepts such as gross profit.

Examples:
  imputer impute --company 0000320193
  imputer impute --all-companies --output-format json
  imputer correct --all-companies
  imputer derive --company 0000320193 --recalculate
  imputer reset --company 0000320193`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("database-url", "", "Postgres connection URL")
	rootCmd.PersistentFlags().String("output-format", "console", "summary output format (console, json)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("database_url", rootCmd.PersistentFlags().Lookup("database-url"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output-format"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	viper.SetEnvPrefix("IMPUTER")
	viper.AutomaticEnv()
}

// loadConfig builds the runtime configuration and installs the global
// logger. Called by every subcommand's RunE.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if verbose && cfg.LogLevel != "debug" {
		cfg.LogLevel = "debug"
	}

	log, err := logger.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	logger.SetGlobalLogger(log)

	return cfg, nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
