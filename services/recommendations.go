package services

import (
	"crime-analytics/models"
	"crime-analytics/utils"
)

// MaxRecommendations caps the recommendation list
const MaxRecommendations = 8

// minRecommendations is the count below which generic lines are added
const minRecommendations = 3

// NoDataRecommendations are returned when the filters select no rows
var NoDataRecommendations = []string{
	"No specific data available for the selected filters",
	"Consider broader analysis with 'All' states or districts",
	"Check data availability for different years",
}

// GenericRecommendations backfill short lists, in this order
var GenericRecommendations = []string{
	"Improve street lighting and public infrastructure",
	"Community policing and engagement programs",
	"Regular crime prevention awareness campaigns",
	"Enhanced police-community relations",
}

// FallbackRecommendations are used when no dataset is available at all
var FallbackRecommendations = []string{
	"Improve street lighting in high-crime areas",
	"Increase police patrol frequency",
	"Community policing initiatives",
	"CCTV camera installation in sensitive areas",
	"Public awareness campaigns about crime prevention",
}

// crimePolicy holds the lines for one crime type. HighSeverity applies only
// when the total exceeds Threshold; Baseline always applies.
type crimePolicy struct {
	Threshold    float64
	HighSeverity []string
	Baseline     []string
}

var crimePolicies = map[string]crimePolicy{
	"Murder": {
		Threshold: 100,
		HighSeverity: []string{
			"Establish specialized homicide investigation units",
			"Enhance forensic capabilities and quick response teams",
		},
		Baseline: []string{
			"Strengthen community conflict resolution programs",
			"Improve witness protection programs",
		},
	},
	"Rape": {
		Threshold: 50,
		HighSeverity: []string{
			"Set up fast-track courts for sexual assault cases",
			"Establish 24/7 women's helpline and support centers",
		},
		Baseline: []string{
			"Implement comprehensive sex education in schools",
			"Enhance street lighting and public transport safety",
		},
	},
	"Theft": {
		Threshold: 500,
		HighSeverity: []string{
			"Increase CCTV surveillance in commercial areas",
			"Launch community watch programs",
		},
		Baseline: []string{
			"Improve property marking and registration systems",
			"Enhance patrol frequency in high-risk areas",
		},
	},
	"Burglary": {
		Threshold: 300,
		HighSeverity: []string{
			"Promote smart home security systems",
			"Increase night patrols in residential areas",
		},
		Baseline: []string{
			"Community awareness programs on home security",
			"Neighborhood watch initiatives",
		},
	},
	"Kidnapping": {
		Threshold: 20,
		HighSeverity: []string{
			"Strengthen anti-human trafficking units",
			"Enhance border and transportation security",
		},
		Baseline: []string{
			"Public awareness campaigns on child safety",
			"Improve emergency response systems",
		},
	},
	"Forgery": {
		Threshold: 100,
		HighSeverity: []string{
			"Establish cyber crime and financial fraud cells",
			"Enhance document verification systems",
		},
		Baseline: []string{
			"Public awareness on financial fraud prevention",
			"Strengthen inter-agency coordination for financial crimes",
		},
	},
	"Riots": {
		Threshold: 50,
		HighSeverity: []string{
			"Develop community mediation programs",
			"Enhance rapid response teams for public order",
		},
		Baseline: []string{
			"Inter-community dialogue initiatives",
			"Social media monitoring for hate speech prevention",
		},
	},
}

var jurisdictionPolicies = map[string][]string{
	"Delhi UT": {
		"Leverage Delhi's advanced surveillance infrastructure",
		"Coordinate with multiple police jurisdictions in NCT",
	},
	"Maharashtra": {
		"Utilize Mumbai's established crime branch capabilities",
		"Metropolitan policing strategies implementation",
	},
}

// RecommendationInput is what every rule sees
type RecommendationInput struct {
	CrimeType string
	State     string
	District  string
	Total     float64
	Average   float64
	// KnownColumn is false when CrimeType is not a dataset column; only
	// generic rules apply then
	KnownColumn bool
}

// Rule returns the lines to append given the input and what has been collected so far
type Rule func(in RecommendationInput, collected []string) []string

// CrimeTypeRule adds the high-severity lines above the crime type's threshold,
// then its baseline lines
func CrimeTypeRule(in RecommendationInput, _ []string) []string {
	if !in.KnownColumn {
		return nil
	}
	policy, ok := crimePolicies[in.CrimeType]
	if !ok {
		return nil
	}
	var out []string
	if in.Total > policy.Threshold {
		out = append(out, policy.HighSeverity...)
	}
	return append(out, policy.Baseline...)
}

// SeverityRule escalates resources above 1000 crimes and capabilities above 500
func SeverityRule(in RecommendationInput, _ []string) []string {
	if !in.KnownColumn {
		return nil
	}
	switch {
	case in.Total > 1000:
		return []string{
			"Allocate additional police resources and funding",
			"Implement integrated command and control centers",
		}
	case in.Total > 500:
		return []string{
			"Enhance police training and equipment",
			"Develop crime hotspot mapping and analysis",
		}
	}
	return nil
}

// JurisdictionRule adds state-specific lines
func JurisdictionRule(in RecommendationInput, _ []string) []string {
	if !in.KnownColumn {
		return nil
	}
	return jurisdictionPolicies[in.State]
}

// BackfillRule adds the generic lines when fewer than three have been collected
func BackfillRule(_ RecommendationInput, collected []string) []string {
	if len(collected) >= minRecommendations {
		return nil
	}
	return GenericRecommendations
}

// DefaultRules is the standard pipeline; order matters
var DefaultRules = []Rule{CrimeTypeRule, SeverityRule, JurisdictionRule, BackfillRule}

// Recommender runs rules in order and returns a deduplicated, capped list
type Recommender struct {
	rules []Rule
	limit int
}

// NewRecommender creates a Recommender with DefaultRules
func NewRecommender() *Recommender {
	return NewRecommenderWithRules(DefaultRules, MaxRecommendations)
}

// NewRecommenderWithRules creates a Recommender with a custom pipeline
func NewRecommenderWithRules(rules []Rule, limit int) *Recommender {
	return &Recommender{rules: rules, limit: limit}
}

// Recommend evaluates the pipeline over rows for crimeType
func (r *Recommender) Recommend(rows []*models.CrimeRecord, crimeType, state, district string, knownColumn bool) []string {
	in := RecommendationInput{
		CrimeType:   crimeType,
		State:       state,
		District:    district,
		KnownColumn: knownColumn,
	}
	if knownColumn {
		stats := summarize(rows, crimeType)
		in.Total = stats.Sum
		in.Average = stats.Mean()
	}
	return r.Evaluate(in)
}

// Evaluate runs every rule and deduplicates by first appearance
func (r *Recommender) Evaluate(in RecommendationInput) []string {
	var collected []string
	for _, rule := range r.rules {
		collected = append(collected, rule(in, collected)...)
	}

	out := utils.Dedupe(collected)
	if r.limit > 0 && len(out) > r.limit {
		out = out[:r.limit]
	}
	return out
}
