// Package report builds a Hebrew licensing report for an assessed business:
// either through an OpenAI-compatible chat endpoint or, when no endpoint is
// configured or the call fails, through a deterministic built-in generator.
package report

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/rules"
)

// Report is the generated licensing report.
type Report struct {
	Assessment    string   `json:"assessment"`
	Complexity    string   `json:"complexity_level"`
	EstimatedTime string   `json:"estimated_time"`
	Actions       []Action `json:"actions"`
	Tips          []Tip    `json:"tips"`
}

// Action is one recommended step, derived from a matched requirement.
type Action struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	RuleID      string `json:"based_on_rule_id"`
	Explanation string `json:"explanation"`
}

// Tip is a practical recommendation keyed to the business profile.
type Tip struct {
	Category string `json:"category"`
	Tip      string `json:"tip"`
	Benefit  string `json:"benefit"`
}

var timeEstimates = map[string]string{
	"low":    "2-4 שבועות",
	"medium": "4-8 שבועות",
	"high":   "8-16 שבועות",
}

var explanations = map[classify.Category]string{
	classify.CategoryFireAffidavit:  "דרישה לבטיחות אש והצלה - יש לקבל אישור מרשויות הכיבוי",
	classify.CategoryFireFull:       "דרישה לבטיחות אש והצלה - יש לקבל אישור מרשויות הכיבוי",
	classify.CategoryPolice:         "דרישה רגולטורית - יש לקבל אישור ממשטרת ישראל",
	classify.CategoryHealth:         "דרישה תברואתית - יש לקבל אישור ממשרד הבריאות",
	classify.CategoryHealthDelivery: "דרישה תברואתית - יש לקבל אישור ממשרד הבריאות",
	classify.CategoryGas:            "דרישה לבטיחות גז - יש לקבל אישור ממתקין גפ\"מ מוסמך",
	classify.CategorySanitation:     "דרישה תברואתית - פינוי פסולת והדברה לפי הנחיות משרד הבריאות",
	classify.CategorySignage:        "דרישת שילוט - יש להציב שילוט בהתאם לתקנות",
}

const maxActions = 12

// Basic builds the deterministic fallback report from the profile and its
// matched requirements.
func Basic(p match.Profile, matched []rules.Rule) *Report {
	complexity := complexityOf(p)

	r := &Report{
		Assessment:    fmt.Sprintf("זוהו %d דרישות רגולטוריות לעסק", len(matched)),
		Complexity:    complexity,
		EstimatedTime: timeEstimates[complexity],
		Actions:       buildActions(matched),
		Tips:          buildTips(p),
	}
	return r
}

func complexityOf(p match.Profile) string {
	features := p.FeatureSet()
	switch {
	case features[condition.FeatureAlcohol], p.Area > 300, p.Seats > 100:
		return "high"
	case p.Area > 150, p.Seats > 50:
		return "medium"
	default:
		return "low"
	}
}

// buildActions turns matched requirements into a bounded action list,
// spreading the budget across categories. Shorter titles tend to be the
// general requirements, so each category is taken in title-length order.
func buildActions(matched []rules.Rule) []Action {
	byCategory := map[classify.Category][]rules.Rule{}
	var order []classify.Category
	for _, r := range matched {
		if utf8.RuneCountInString(r.Title) < 10 {
			continue
		}
		if _, seen := byCategory[r.Category]; !seen {
			order = append(order, r.Category)
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}
	if len(order) == 0 {
		return nil
	}

	perCategory := maxActions / len(order)
	if perCategory < 1 {
		perCategory = 1
	}

	var actions []Action
	for _, cat := range order {
		rs := byCategory[cat]
		sort.SliceStable(rs, func(i, j int) bool {
			return utf8.RuneCountInString(rs[i].Title) < utf8.RuneCountInString(rs[j].Title)
		})
		if len(rs) > perCategory {
			rs = rs[:perCategory]
		}
		for _, r := range rs {
			actions = append(actions, Action{
				Title:       r.Title,
				Category:    string(r.Category),
				Priority:    priorityOf(r.Category),
				RuleID:      r.ID,
				Explanation: explanationOf(r.Category),
			})
		}
	}
	return actions
}

func priorityOf(cat classify.Category) string {
	switch cat {
	case classify.CategoryGas, classify.CategoryFireAffidavit, classify.CategoryFireFull:
		return "high"
	default:
		return "medium"
	}
}

func explanationOf(cat classify.Category) string {
	if e, ok := explanations[cat]; ok {
		return e
	}
	return "דרישה רגולטורית לקבלת רישיון העסק"
}

func buildTips(p match.Profile) []Tip {
	features := p.FeatureSet()
	var tips []Tip

	if features[condition.FeatureDelivery] {
		tips = append(tips, Tip{
			Category: "שליחת מזון",
			Tip:      "הכן אזור ייעודי לשליחת מזון עם ציוד קירור מתאים",
			Benefit:  "עמידה בדרישות משרד הבריאות ומניעת קנסות",
		})
	}
	if features[condition.FeatureGas] {
		tips = append(tips, Tip{
			Category: "בטיחות גז",
			Tip:      "בצע בדיקות תקינות גז כל 6 חודשים",
			Benefit:  "מניעת תאונות ועמידה בדרישות החוק",
		})
	}
	if p.Area <= 150 && p.Seats <= 50 {
		tips = append(tips, Tip{
			Category: "כבאות",
			Tip:      "אתה זכאי למסלול תצהיר מפושט - נצל את היתרון",
			Benefit:  "חיסכון בזמן ובעלויות בהליך הרישוי",
		})
	}

	tips = append(tips,
		Tip{
			Category: "תכנון",
			Tip:      "התחל בתהליך הרישוי לפני השלמת העבודות",
			Benefit:  "חיסכון בזמן ומניעת עיכובים",
		},
		Tip{
			Category: "תיעוד",
			Tip:      "שמור את כל המסמכים והאישורים במקום נגיש",
			Benefit:  "הקלה בביקורות ובחידוש רישיונות",
		},
	)
	return tips
}
