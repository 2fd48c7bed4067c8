package rules

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/segment"
)

const (
	// maxTitleRunes caps synthesized titles; longer text is elided.
	maxTitleRunes = 100
	// minTitleRunes is the quality floor: shorter candidates are
	// extraction noise, not requirements.
	minTitleRunes = 10
)

// Synthesizer turns classified, condition-extracted sections into a rule
// store: one rule per section, deduplicated on normalized title and
// category, with generated sequential ids.
type Synthesizer struct {
	classifier *classify.Classifier
	extractor  *condition.Extractor
	logger     *slog.Logger
}

// NewSynthesizer wires a synthesizer. A nil logger defaults to
// slog.Default().
func NewSynthesizer(cls *classify.Classifier, ext *condition.Extractor, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{classifier: cls, extractor: ext, logger: logger}
}

// Synthesize builds a store from ordered document sections. Sections that
// fail classification or the title quality filter are dropped, collisions
// keep the first-seen rule, and nothing here is fatal: a bad section never
// aborts the rest of the document.
func (sy *Synthesizer) Synthesize(sections []segment.Section, sourceHash string) (*Store, error) {
	var out []Rule
	seen := make(map[string]string) // dedup key → winning rule id
	seq := make(map[classify.Category]int)

	for i := range sections {
		sec := &sections[i]
		cat, ok := sy.classifier.Classify(sec)
		if !ok {
			continue
		}

		title := sectionTitle(sec)
		if !titleOK(title) {
			sy.logger.Debug("rejected candidate rule", "reason", "title quality", "title", title)
			continue
		}

		key := dedupKey(title, cat)
		if winner, dup := seen[key]; dup {
			sy.logger.Info("discarding duplicate rule", "title", title, "category", cat, "kept", winner)
			continue
		}

		ex := sy.extractor.Extract(sec.Text())
		cond := ex.Cond
		note := fmt.Sprintf("מחולץ מעמוד %d של המסמך הרגולטורי", sec.Page)
		for _, amb := range ex.Ambiguities {
			sy.logger.Warn("ambiguous thresholds in section", "title", title, "detail", amb)
			note += "; סף דו-משמעי במקור: " + amb
		}

		// A single detected feature is a conjunctive requirement: with
		// one tag, any-of and all-of coincide, and the all-of form is
		// what curated rule sets use. Multi-feature conditions stay
		// any-of because raw text cannot distinguish OR from AND.
		if len(cond.FeaturesAny) == 1 {
			cond.FeaturesAll = cond.FeaturesAny
			cond.FeaturesAny = nil
		}

		seq[cat]++
		id := fmt.Sprintf("%s-%d", cat, seq[cat])
		out = append(out, Rule{
			ID:         id,
			Category:   cat,
			Title:      title,
			Status:     StatusMandatory,
			Note:       note,
			SectionRef: sectionRef(sec),
			If:         cond,
			SourceHash: sourceHash,
		})
		seen[key] = id
	}

	if len(out) == 0 {
		sy.logger.Warn("no rules synthesized from document")
	}
	return NewStore(out)
}

// sectionTitle prefers the heading; headingless sections fall back to the
// opening of their body text, elided at the title cap.
func sectionTitle(sec *segment.Section) string {
	title := sec.Heading
	if title == "" {
		title = strings.Join(sec.Body, " ")
	}
	runes := []rune(title)
	if len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes]) + "..."
	}
	return strings.TrimSpace(title)
}

// sectionRef points back to where the rule came from.
func sectionRef(sec *segment.Section) string {
	if sec.Heading != "" {
		return sec.Heading
	}
	if len(sec.Body) > 0 {
		return sec.Body[0]
	}
	return ""
}

// titleOK is the quality filter: minimum length and not predominantly
// punctuation.
func titleOK(title string) bool {
	runes := []rune(title)
	if len(runes) < minTitleRunes {
		return false
	}
	letters := 0
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			letters++
		}
	}
	return letters*2 >= len(runes)
}

// dedupKey collapses whitespace and case so near-identical titles in the
// same category count as one rule.
func dedupKey(title string, cat classify.Category) string {
	norm := strings.Join(strings.Fields(strings.ToLower(title)), " ")
	return norm + "::" + strings.ToLower(string(cat))
}
