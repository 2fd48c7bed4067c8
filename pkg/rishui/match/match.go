// Package match evaluates a business profile against a rule store.
//
// Evaluate is a pure function of (store, profile): no state, no I/O, and
// safe to call concurrently against the same store from any number of
// goroutines. All behavior flows from condition evaluation; no rule is
// ever special-cased by id.
package match

import (
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/rules"
)

// Profile describes the business being assessed. Callers validate their
// own input; a zero field simply fails any minimum bound, it never panics
// the engine.
type Profile struct {
	Area      float64             `json:"area"`
	Seats     int                 `json:"seats"`
	Employees int                 `json:"employees,omitempty"`
	Features  []condition.Feature `json:"features"`
}

// FeatureSet returns the profile features as a set.
func (p Profile) FeatureSet() map[condition.Feature]bool {
	set := make(map[condition.Feature]bool, len(p.Features))
	for _, f := range p.Features {
		set[f] = true
	}
	return set
}

// Evaluate returns the rules whose conditions the profile satisfies, in
// store order. It is total: any well-formed profile yields a decision for
// every rule without error.
func Evaluate(store *rules.Store, p Profile) []rules.Rule {
	features := p.FeatureSet()
	var out []rules.Rule
	for _, r := range store.Rules() {
		if Matches(r.If, p, features) {
			out = append(out, r)
		}
	}
	return out
}

// Matches evaluates one condition against the profile. Absent fields are
// unconstrained; present fields are ANDed. The features set must be
// p.FeatureSet(); it is passed in so Evaluate builds it once.
func Matches(c condition.Condition, p Profile, features map[condition.Feature]bool) bool {
	if c.AreaMin != nil && p.Area < *c.AreaMin {
		return false
	}
	if c.AreaMax != nil && p.Area > *c.AreaMax {
		return false
	}
	if c.SeatsMin != nil && p.Seats < *c.SeatsMin {
		return false
	}
	if c.SeatsMax != nil && p.Seats > *c.SeatsMax {
		return false
	}
	if c.EmployeesMin != nil && p.Employees < *c.EmployeesMin {
		return false
	}
	if len(c.FeaturesAny) > 0 && !anyFeature(features, c.FeaturesAny) {
		return false
	}
	if len(c.FeaturesAll) > 0 && !allFeatures(features, c.FeaturesAll) {
		return false
	}
	return true
}

func anyFeature(have map[condition.Feature]bool, want []condition.Feature) bool {
	for _, f := range want {
		if have[f] {
			return true
		}
	}
	return false
}

func allFeatures(have map[condition.Feature]bool, want []condition.Feature) bool {
	for _, f := range want {
		if !have[f] {
			return false
		}
	}
	return true
}
