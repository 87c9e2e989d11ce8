package resolver

import (
	"golang-imputation-service/internal/models"
)

// Candidate is an annual concept paired with its precomputed root ancestor
// name. Root names are resolved once per candidate so rules stay pure.
type Candidate struct {
	Concept  *models.Concept
	RootName string
}

// Rule attempts to select exactly one annual candidate for a quarterly
// concept. A rule returns nil both when it matches nothing and when it
// matches more than one candidate; ambiguity falls through to the next rule.
type Rule interface {
	// Name identifies the rule in logs
	Name() string

	// Apply returns the single matching candidate, or nil
	Apply(source *models.Concept, sourceRoot string, candidates []Candidate) *models.Concept
}

// single returns the concept only when exactly one candidate matched
func single(matches []*models.Concept) *models.Concept {
	if len(matches) == 1 {
		return matches[0]
	}
	return nil
}

// dimensionMemberRule matches on an identical dimension member. It runs
// first because siblings sharing a path are only distinguishable by member.
type dimensionMemberRule struct{}

func (dimensionMemberRule) Name() string { return "dimension_member" }

func (dimensionMemberRule) Apply(source *models.Concept, _ string, candidates []Candidate) *models.Concept {
	if source.DimensionMember == "" {
		return nil
	}
	var matches []*models.Concept
	for _, c := range candidates {
		if c.Concept.DimensionMember == source.DimensionMember {
			matches = append(matches, c.Concept)
		}
	}
	return single(matches)
}

// exactPathRule matches on an identical presentation path
type exactPathRule struct{}

func (exactPathRule) Name() string { return "exact_path" }

func (exactPathRule) Apply(source *models.Concept, _ string, candidates []Candidate) *models.Concept {
	var matches []*models.Concept
	for _, c := range candidates {
		if c.Concept.Path == source.Path {
			matches = append(matches, c.Concept)
		}
	}
	return single(matches)
}

// rootParentRule matches dimensional candidates whose root ancestor name
// equals the source concept's root ancestor name
type rootParentRule struct{}

func (rootParentRule) Name() string { return "root_parent" }

func (rootParentRule) Apply(_ *models.Concept, sourceRoot string, candidates []Candidate) *models.Concept {
	if sourceRoot == "" {
		return nil
	}
	var matches []*models.Concept
	for _, c := range candidates {
		if c.Concept.IsDimensional && c.RootName == sourceRoot {
			matches = append(matches, c.Concept)
		}
	}
	return single(matches)
}

// labelRule matches on an identical human-readable label
type labelRule struct{}

func (labelRule) Name() string { return "label" }

func (labelRule) Apply(source *models.Concept, _ string, candidates []Candidate) *models.Concept {
	if source.Label == "" {
		return nil
	}
	var matches []*models.Concept
	for _, c := range candidates {
		if c.Concept.Label == source.Label {
			matches = append(matches, c.Concept)
		}
	}
	return single(matches)
}

// pathPrefixRule matches on the first two path segments, the coarsest
// signal of a shared statement section
type pathPrefixRule struct{}

func (pathPrefixRule) Name() string { return "path_prefix" }

func (pathPrefixRule) Apply(source *models.Concept, _ string, candidates []Candidate) *models.Concept {
	prefix := source.PathPrefix(2)
	if prefix == "" {
		return nil
	}
	var matches []*models.Concept
	for _, c := range candidates {
		if c.Concept.PathPrefix(2) == prefix {
			matches = append(matches, c.Concept)
		}
	}
	return single(matches)
}

// defaultRules returns the rules in priority order
func defaultRules() []Rule {
	return []Rule{
		dimensionMemberRule{},
		exactPathRule{},
		rootParentRule{},
		labelRule{},
		pathPrefixRule{},
	}
}
