// Package classify maps document sections to regulatory categories.
//
// Classification is a fixed, ordered table of (predicate, category) pairs
// evaluated by a single dispatcher: the first entry whose predicate holds
// wins, so more specific categories must precede generic fallbacks (food
// delivery before general health, the fire affidavit track before the full
// fire track). Sections with no regulatory signal classify to nothing and
// are dropped by the caller.
package classify

import (
	"strings"

	"github.com/civika/rishui/pkg/rishui/segment"
)

// Category is a regulatory requirement category.
type Category string

const (
	CategoryHealth         Category = "health"
	CategoryHealthDelivery Category = "health-delivery"
	CategoryPolice         Category = "police"
	CategoryFireAffidavit  Category = "fire-affidavit"
	CategoryFireFull       Category = "fire-full"
	CategoryGas            Category = "gas"
	CategorySanitation     Category = "sanitation"
	CategorySignage        Category = "signage"
)

// categoryLabels carries the Hebrew display names used in reports.
var categoryLabels = map[Category]string{
	CategoryHealth:         "משרד הבריאות",
	CategoryHealthDelivery: "משרד הבריאות — שליחת מזון",
	CategoryPolice:         "משטרת ישראל",
	CategoryFireAffidavit:  "כבאות והצלה (תצהיר)",
	CategoryFireFull:       "כבאות והצלה",
	CategoryGas:            "גז (גפ\"מ)",
	CategorySanitation:     "תברואה ופסולת",
	CategorySignage:        "שילוט",
}

// Label returns the Hebrew display name for the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Entry is one row of the classification table. A section matches when its
// chapter tag equals Chapter, or when Keywords has at least one hit from
// every group. Either form of evidence is enough on its own.
type Entry struct {
	Category Category
	Chapter  segment.Chapter
	Keywords [][]string
}

// DefaultTable returns the ordered classification table for the food
// business licensing specification. Order is part of the contract.
func DefaultTable() []Entry {
	return []Entry{
		{
			Category: CategoryHealthDelivery,
			Keywords: [][]string{
				{"משלוח", "שליחה", "שליחת מזון"},
				{"מזון", "אוכל", "הזנה"},
			},
		},
		{
			Category: CategoryGas,
			Keywords: [][]string{
				{"גפ\"מ", "מתקן גז", "מערכת גז", "מתקין גז"},
			},
		},
		{
			Category: CategoryFireAffidavit,
			Chapter:  segment.ChapterFireAffidavit,
			Keywords: [][]string{
				{"תצהיר"},
				{"כבאות", "אש", "כיבוי"},
			},
		},
		{
			Category: CategoryFireFull,
			Chapter:  segment.ChapterFireFull,
			Keywords: [][]string{
				{"כבאות", "כיבוי אש", "מטפים", "מתזים", "גילוי עשן", "דרכי מוצא"},
			},
		},
		{
			Category: CategoryPolice,
			Chapter:  segment.ChapterPolice,
			Keywords: [][]string{
				{"משטרה", "אלכוהול", "משקאות משכרים", "טמ\"ס"},
			},
		},
		{
			Category: CategorySanitation,
			Keywords: [][]string{
				{"תברואה", "תברואתיים", "פסולת", "אשפה", "שפכים", "ביוב", "הדברה", "מזיקים"},
			},
		},
		{
			Category: CategorySignage,
			Keywords: [][]string{
				{"שילוט", "שלט"},
			},
		},
		{
			Category: CategoryHealth,
			Chapter:  segment.ChapterHealth,
			Keywords: [][]string{
				{"בריאות", "מזון", "מי שתייה", "מים", "עישון", "בשר", "דגים"},
			},
		},
	}
}

// tocMarkers flag table-of-contents and boilerplate sections.
var tocMarkers = []string{"תוכן עניינים", "תוכן העניינים", "עמוד"}

// Classifier evaluates the ordered classification table.
type Classifier struct {
	table []Entry
}

// New creates a Classifier with the given table. Pass DefaultTable() for
// the standard category set.
func New(table []Entry) *Classifier {
	return &Classifier{table: table}
}

// Classify returns the first matching category for a section, in table
// order. The second return is false for sections with no regulatory
// signal; such sections must be dropped, not carried with an empty
// category.
func (c *Classifier) Classify(sec *segment.Section) (Category, bool) {
	text := sec.Text()
	if !meaningful(text) {
		return "", false
	}

	for _, e := range c.table {
		if e.Chapter != segment.ChapterNone && sec.Chapter == e.Chapter {
			return e.Category, true
		}
		if len(e.Keywords) > 0 && keywordsMatch(text, e.Keywords) {
			return e.Category, true
		}
	}
	return "", false
}

// keywordsMatch requires at least one hit from every keyword group.
func keywordsMatch(text string, groups [][]string) bool {
	for _, group := range groups {
		hit := false
		for _, kw := range group {
			if strings.Contains(text, kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// meaningful rejects sections too short or too boilerplate to yield a rule.
func meaningful(text string) bool {
	if len([]rune(text)) < 20 {
		return false
	}
	for _, m := range tocMarkers {
		if strings.Contains(text, m) {
			return false
		}
	}
	return true
}
