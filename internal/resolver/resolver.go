// Package resolver matches quarterly concepts to their annual counterparts.
// The two catalogs are filed independently, so the same line item can carry
// a different path, parent chain, or dimensional layout in each. Resolution
// runs a strict priority chain of rules and refuses to guess: a wrong match
// would silently blend another segment's annual total into a derived
// quarter.
package resolver

import (
	"context"

	"golang-imputation-service/internal/catalog"
	"golang-imputation-service/internal/models"
	"golang-imputation-service/pkg/logger"
)

// Resolver resolves quarterly concepts against an annual catalog
type Resolver struct {
	quarterly catalog.Catalog
	annual    catalog.Catalog
	rules     []Rule
	log       logger.Logger
}

// NewResolver creates a resolver over the two catalogs with the default
// rule chain.
func NewResolver(quarterly, annual catalog.Catalog, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Resolver{
		quarterly: quarterly,
		annual:    annual,
		rules:     defaultRules(),
		log:       log.WithComponent("resolver"),
	}
}

// ResolveAnnual returns the annual concept matching the quarterly concept,
// or nil when no rule produces exactly one candidate. A nil result means
// "cannot calculate", not an error.
func (r *Resolver) ResolveAnnual(ctx context.Context, q *models.Concept) (*models.Concept, error) {
	found, err := r.annual.Find(ctx, catalog.Query{
		CompanyID:     q.CompanyID,
		StatementType: q.StatementType,
		QualifiedName: q.QualifiedName,
	})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	sourceRoot, err := catalog.RootParentName(ctx, r.quarterly, q)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(found))
	for _, c := range found {
		root, err := catalog.RootParentName(ctx, r.annual, c)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Concept: c, RootName: root})
	}

	for _, rule := range r.rules {
		if match := rule.Apply(q, sourceRoot, candidates); match != nil {
			r.log.WithFields(logger.Fields{
				"qualified_name": q.QualifiedName,
				"rule":           rule.Name(),
				"annual_path":    match.Path,
			}).Debug("resolved annual concept")
			return match, nil
		}
	}

	r.log.WithFields(logger.Fields{
		"qualified_name": q.QualifiedName,
		"candidates":     len(candidates),
	}).Debug("no unambiguous annual match")
	return nil, nil
}
