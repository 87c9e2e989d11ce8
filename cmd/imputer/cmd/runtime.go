package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"golang-imputation-service/cmd/imputer/config"
	"golang-imputation-service/internal/catalog"
	"golang-imputation-service/internal/db"
	"golang-imputation-service/internal/facts"
	"golang-imputation-service/internal/reporter"
)

// environment bundles the storage handles shared by every subcommand
type environment struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	quarterly catalog.Catalog
	annual    catalog.Catalog
	store     facts.Store
	reporter  *reporter.Reporter
}

// setupEnvironment loads configuration, connects to the database, applies
// pending migrations and wires the storage layer.
func setupEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	quarterly, err := catalog.NewPostgresCatalog(pool, catalog.TableQuarterlyConcepts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	annual, err := catalog.NewPostgresCatalog(pool, catalog.TableAnnualConcepts)
	if err != nil {
		pool.Close()
		return nil, err
	}

	rep, err := reporter.NewReporter(reporter.OutputFormat(cfg.OutputFormat))
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &environment{
		cfg:       cfg,
		pool:      pool,
		quarterly: quarterly,
		annual:    annual,
		store:     facts.NewPostgresStore(pool),
		reporter:  rep,
	}, nil
}

// Close releases the database pool
func (e *environment) Close() {
	e.pool.Close()
}

// requireCompanyScope validates the company selection flags shared by the
// batch subcommands
func requireCompanyScope(companyID string, allCompanies bool) error {
	if companyID == "" && !allCompanies {
		return fmt.Errorf("either --company or --all-companies is required")
	}
	if companyID != "" && allCompanies {
		return fmt.Errorf("--company and --all-companies are mutually exclusive")
	}
	return nil
}
