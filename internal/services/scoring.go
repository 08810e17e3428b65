package services

import (
	"sort"

	"snatch/internal/models"
)

// Dimension weights, summing to 100
const (
	WeightDomain    = 30
	WeightTrademark = 25
	WeightBusiness  = 25
	WeightSocial    = 20
)

// Score returns the weighted availability score of a probe outcome
func Score(o ProbeOutcome) int {
	score := 0
	if o.Domain {
		score += WeightDomain
	}
	if o.Trademark {
		score += WeightTrademark
	}
	if o.Business {
		score += WeightBusiness
	}
	if o.Social {
		score += WeightSocial
	}
	return score
}

// NewNameResult builds the scored result for one candidate.
// Social availability adds to the score but never gates the verdict.
func NewNameResult(name string, o ProbeOutcome) models.NameResult {
	return models.NameResult{
		Name:      name,
		Domain:    o.Domain,
		Trademark: o.Trademark,
		Business:  o.Business,
		Social:    o.Social,
		Available: o.Domain && o.Trademark && o.Business,
		Score:     Score(o),
	}
}

// Rank sorts results by descending score in place, keeping input order for ties
func Rank(results []models.NameResult) []models.NameResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
