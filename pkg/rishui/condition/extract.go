package condition

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Regulatory band breakpoints from the licensing specification: the
// simplified (affidavit) track covers businesses up to 150 m² and 50
// seats; police requirements attach above 200 seats.
const (
	AreaBreak      = 150
	SeatsBreak     = 50
	SeatsHighBreak = 200
)

var (
	areaRe      = regexp.MustCompile(`(\d+)\s*מ[״"']*ר`)
	seatsRe     = regexp.MustCompile(`(\d+)\s*(?:מקומות|מקום|אנשים|סועדים|איש(?:[^א-ת]|$))`)
	employeesRe = regexp.MustCompile(`(מעל\s*|יותר\s*מ-?\s*)?(\d+)\s*עובדים`)
)

// Extraction is the outcome of scanning one section. Ambiguities records
// threshold contradictions that were dropped rather than emitted, so the
// synthesizer can surface them in rule provenance instead of silently
// picking a reading.
type Extraction struct {
	Cond        Condition
	Ambiguities []string
}

// Extractor infers a Condition from section text. Two independent passes:
// numeric thresholds (area, seats, employees) and feature keywords. A
// section with neither yields an empty Condition, which is a valid
// baseline rule, not an error.
type Extractor struct {
	features []featureKeywords
}

type featureKeywords struct {
	feature  Feature
	keywords []string
}

// defaultFeatures lists keyword evidence per feature tag. Reversed forms
// are kept alongside logical ones as a safety net for text the normalizer
// could not repair.
func defaultFeatures() []featureKeywords {
	return []featureKeywords{
		{FeatureGas, []string{"גז", "זג", "גפ\"מ"}},
		{FeatureDelivery, []string{"משלוח", "משלוחים", "שליחה", "חולשמ"}},
		{FeatureAlcohol, []string{"אלכוהול", "לוהוכלא", "משקאות משכרים", "משקאות"}},
		{FeatureMeatAndFish, []string{"בשר", "רשב", "דגים", "םיגד"}},
		{FeatureHood, []string{"מנדף", "מנדפים", "םיפדנמ"}},
	}
}

// NewExtractor creates an Extractor with the default feature lexicon.
func NewExtractor() *Extractor {
	return &Extractor{features: defaultFeatures()}
}

// NewExtractorWithFeatures creates an Extractor with a custom feature
// lexicon, in the given evaluation order.
func NewExtractorWithFeatures(features map[Feature][]string, order []Feature) *Extractor {
	fk := make([]featureKeywords, 0, len(order))
	for _, f := range order {
		if kws, ok := features[f]; ok {
			fk = append(fk, featureKeywords{feature: f, keywords: kws})
		}
	}
	return &Extractor{features: fk}
}

// Extract runs both passes over normalized section text. It never fails.
func (e *Extractor) Extract(text string) Extraction {
	var ex Extraction
	e.extractArea(text, &ex)
	e.extractSeats(text, &ex)
	e.extractEmployees(text, &ex)
	e.extractFeatures(text, &ex)
	return ex
}

// smallTrack reports whether the section context indicates the simplified
// affidavit track, which resolves small-vs-large threshold ambiguity in
// favor of the small-business reading.
func smallTrack(text string) bool {
	return strings.Contains(text, "תצהיר")
}

func (e *Extractor) extractArea(text string, ex *Extraction) {
	values := matchInts(areaRe, text, 1)
	if len(values) == 0 {
		return
	}

	var low, high bool
	for _, v := range values {
		if v <= AreaBreak {
			low = true
		} else {
			high = true
		}
	}

	switch {
	case low && high:
		if smallTrack(text) {
			ex.Cond.AreaMax = floatPtr(AreaBreak)
			return
		}
		// Emitting both would produce area_min=151 AND area_max=150,
		// which no profile can satisfy. Drop the pair and flag it.
		ex.Ambiguities = append(ex.Ambiguities,
			fmt.Sprintf("conflicting area thresholds %v", values))
	case low:
		ex.Cond.AreaMax = floatPtr(AreaBreak)
	case high:
		ex.Cond.AreaMin = floatPtr(AreaBreak + 1)
	}
}

func (e *Extractor) extractSeats(text string, ex *Extraction) {
	values := matchInts(seatsRe, text, 1)
	if len(values) == 0 {
		return
	}

	var low, mid, high bool
	for _, v := range values {
		switch {
		case v <= SeatsBreak:
			low = true
		case v <= SeatsHighBreak:
			mid = true
		default:
			high = true
		}
	}

	switch {
	case low && (mid || high):
		if smallTrack(text) {
			ex.Cond.SeatsMax = intPtr(SeatsBreak)
			return
		}
		ex.Ambiguities = append(ex.Ambiguities,
			fmt.Sprintf("conflicting seat thresholds %v", values))
	case high:
		ex.Cond.SeatsMin = intPtr(SeatsHighBreak + 1)
	case mid:
		ex.Cond.SeatsMin = intPtr(SeatsBreak + 1)
	case low:
		ex.Cond.SeatsMax = intPtr(SeatsBreak)
	}
}

func (e *Extractor) extractEmployees(text string, ex *Extraction) {
	ms := employeesRe.FindAllStringSubmatch(text, -1)
	if len(ms) == 0 {
		return
	}
	// First mention wins; "more than N" means a minimum of N+1.
	v, err := strconv.Atoi(ms[0][2])
	if err != nil {
		return
	}
	if strings.TrimSpace(ms[0][1]) != "" {
		v++
	}
	ex.Cond.EmployeesMin = intPtr(v)
}

func (e *Extractor) extractFeatures(text string, ex *Extraction) {
	for _, fk := range e.features {
		for _, kw := range fk.keywords {
			if containsKeyword(text, kw) {
				ex.Cond.FeaturesAny = append(ex.Cond.FeaturesAny, fk.feature)
				break
			}
		}
	}
}

// containsKeyword matches a keyword in text. Keywords of one or two runes
// are matched as whole words (allowing the Hebrew prefix letters ב ה ל ו כ
// מ ש), since substring matching on them is far too eager: "גז" occurs
// inside unrelated words.
func containsKeyword(text, kw string) bool {
	if len([]rune(kw)) > 2 {
		return strings.Contains(text, kw)
	}
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,:;!?()[]{}\"'")
		if word == kw {
			return true
		}
		runes := []rune(word)
		if len(runes) == len([]rune(kw))+1 && strings.ContainsRune("בהלוכמש", runes[0]) &&
			string(runes[1:]) == kw {
			return true
		}
	}
	return false
}

func matchInts(re *regexp.Regexp, text string, group int) []int {
	var out []int
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.Atoi(m[group]); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
