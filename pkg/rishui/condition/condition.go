// Package condition defines the structured predicate attached to every
// rule and the extractor that infers it from regulatory text.
package condition

import (
	"fmt"
	"strings"
)

// Feature tags a business characteristic a rule can depend on.
type Feature string

const (
	FeatureGas         Feature = "gas"
	FeatureDelivery    Feature = "delivery"
	FeatureAlcohol     Feature = "alcohol"
	FeatureMeatAndFish Feature = "meat_and_fish"
	FeatureHood        Feature = "hood"
)

// featureLabels carries Hebrew display names for report output.
var featureLabels = map[Feature]string{
	FeatureGas:         "שימוש בגז",
	FeatureDelivery:    "שירות משלוחים",
	FeatureAlcohol:     "הגשת אלכוהול",
	FeatureMeatAndFish: "הגשת בשר ודגים",
	FeatureHood:        "מנדף מטבח מקצועי",
}

// Label returns the Hebrew display name for the feature.
func (f Feature) Label() string {
	if l, ok := featureLabels[f]; ok {
		return l
	}
	return string(f)
}

// Condition is a predicate over a business profile. Absent fields mean "no
// constraint": a zero Condition matches every profile. Present fields are
// ANDed together.
type Condition struct {
	AreaMin      *float64  `json:"area_min,omitempty"`
	AreaMax      *float64  `json:"area_max,omitempty"`
	SeatsMin     *int      `json:"seats_min,omitempty"`
	SeatsMax     *int      `json:"seats_max,omitempty"`
	EmployeesMin *int      `json:"employees_min,omitempty"`
	FeaturesAny  []Feature `json:"features_any,omitempty"`
	FeaturesAll  []Feature `json:"features_all,omitempty"`
}

// Empty reports whether the condition carries no constraints at all. Empty
// conditions mark baseline rules that apply to every business.
func (c Condition) Empty() bool {
	return c.AreaMin == nil && c.AreaMax == nil &&
		c.SeatsMin == nil && c.SeatsMax == nil &&
		c.EmployeesMin == nil &&
		len(c.FeaturesAny) == 0 && len(c.FeaturesAll) == 0
}

// Validate rejects conditions whose bounds can never be satisfied. Such
// conditions must not enter a rule store.
func (c Condition) Validate() error {
	if c.AreaMin != nil && c.AreaMax != nil && *c.AreaMin > *c.AreaMax {
		return fmt.Errorf("impossible area bounds: min %g > max %g", *c.AreaMin, *c.AreaMax)
	}
	if c.SeatsMin != nil && c.SeatsMax != nil && *c.SeatsMin > *c.SeatsMax {
		return fmt.Errorf("impossible seat bounds: min %d > max %d", *c.SeatsMin, *c.SeatsMax)
	}
	return nil
}

// String renders the condition compactly for logs.
func (c Condition) String() string {
	if c.Empty() {
		return "always"
	}
	var parts []string
	if c.AreaMin != nil {
		parts = append(parts, fmt.Sprintf("area>=%g", *c.AreaMin))
	}
	if c.AreaMax != nil {
		parts = append(parts, fmt.Sprintf("area<=%g", *c.AreaMax))
	}
	if c.SeatsMin != nil {
		parts = append(parts, fmt.Sprintf("seats>=%d", *c.SeatsMin))
	}
	if c.SeatsMax != nil {
		parts = append(parts, fmt.Sprintf("seats<=%d", *c.SeatsMax))
	}
	if c.EmployeesMin != nil {
		parts = append(parts, fmt.Sprintf("employees>=%d", *c.EmployeesMin))
	}
	if len(c.FeaturesAny) > 0 {
		parts = append(parts, "any("+joinFeatures(c.FeaturesAny)+")")
	}
	if len(c.FeaturesAll) > 0 {
		parts = append(parts, "all("+joinFeatures(c.FeaturesAll)+")")
	}
	return strings.Join(parts, " ")
}

func joinFeatures(fs []Feature) string {
	ss := make([]string, len(fs))
	for i, f := range fs {
		ss[i] = string(f)
	}
	return strings.Join(ss, ",")
}
