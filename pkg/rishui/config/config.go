// Package config loads the extraction lexicon and wires pipeline components.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/internalerr"
	"github.com/civika/rishui/pkg/rishui/segment"
)

// Lexicon is the YAML-configurable part of the pipeline: the ordered
// classification table and the feature keyword sets. Everything omitted
// falls back to the compiled-in defaults.
type Lexicon struct {
	Categories []CategoryEntry `yaml:"categories"`
	Features   []FeatureEntry  `yaml:"features"`
}

// CategoryEntry is one row of the classification table. Order in the file
// is the evaluation order.
type CategoryEntry struct {
	Category string     `yaml:"category"`
	Chapter  string     `yaml:"chapter,omitempty"`
	Keywords [][]string `yaml:"keywords,omitempty"`
}

// FeatureEntry binds a business feature to the Hebrew keywords that signal
// it in section text.
type FeatureEntry struct {
	Feature  string   `yaml:"feature"`
	Keywords []string `yaml:"keywords"`
}

// LoadLexicon loads a lexicon from a YAML file.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, err
	}

	return &lex, nil
}

var knownCategories = map[string]classify.Category{
	string(classify.CategoryHealth):         classify.CategoryHealth,
	string(classify.CategoryHealthDelivery): classify.CategoryHealthDelivery,
	string(classify.CategoryPolice):         classify.CategoryPolice,
	string(classify.CategoryFireAffidavit):  classify.CategoryFireAffidavit,
	string(classify.CategoryFireFull):       classify.CategoryFireFull,
	string(classify.CategoryGas):            classify.CategoryGas,
	string(classify.CategorySanitation):     classify.CategorySanitation,
	string(classify.CategorySignage):        classify.CategorySignage,
}

var knownChapters = map[string]segment.Chapter{
	"":                                   segment.ChapterNone,
	string(segment.ChapterHealth):        segment.ChapterHealth,
	string(segment.ChapterPolice):        segment.ChapterPolice,
	string(segment.ChapterFireAffidavit): segment.ChapterFireAffidavit,
	string(segment.ChapterFireFull):      segment.ChapterFireFull,
}

// Table converts the lexicon's category rows into a classification table.
func (l *Lexicon) Table() ([]classify.Entry, error) {
	if len(l.Categories) == 0 {
		return classify.DefaultTable(), nil
	}

	table := make([]classify.Entry, 0, len(l.Categories))
	for _, ce := range l.Categories {
		cat, ok := knownCategories[ce.Category]
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", internalerr.ErrInvalidConfig, ce.Category)
		}
		ch, ok := knownChapters[ce.Chapter]
		if !ok {
			return nil, fmt.Errorf("%w: unknown chapter %q", internalerr.ErrInvalidConfig, ce.Chapter)
		}
		if ch == segment.ChapterNone && len(ce.Keywords) == 0 {
			return nil, fmt.Errorf("%w: category %q has neither chapter nor keywords", internalerr.ErrInvalidConfig, ce.Category)
		}
		table = append(table, classify.Entry{Category: cat, Chapter: ch, Keywords: ce.Keywords})
	}
	return table, nil
}

// FeatureKeywords converts the lexicon's feature rows into the keyword map
// and evaluation order expected by the condition extractor.
func (l *Lexicon) FeatureKeywords() (map[condition.Feature][]string, []condition.Feature, error) {
	if len(l.Features) == 0 {
		return nil, nil, nil
	}

	kw := make(map[condition.Feature][]string, len(l.Features))
	order := make([]condition.Feature, 0, len(l.Features))
	for _, fe := range l.Features {
		if fe.Feature == "" || len(fe.Keywords) == 0 {
			return nil, nil, fmt.Errorf("%w: feature entry needs a name and keywords", internalerr.ErrInvalidConfig)
		}
		f := condition.Feature(fe.Feature)
		if _, dup := kw[f]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate feature %q", internalerr.ErrInvalidConfig, fe.Feature)
		}
		kw[f] = fe.Keywords
		order = append(order, f)
	}
	return kw, order, nil
}
