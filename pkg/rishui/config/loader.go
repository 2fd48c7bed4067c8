package config

import (
	"fmt"
	"log/slog"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/rules"
	"github.com/civika/rishui/pkg/rishui/segment"
)

// Loader reads configuration files and constructs wired pipeline components.
// Empty paths fall back to compiled-in defaults (and, for RulesPath, to an
// unset rule handle).
type Loader struct {
	LexiconPath string
	RulesPath   string
	Logger      *slog.Logger
}

// Components holds the constructed pipeline components.
type Components struct {
	Segmenter   *segment.Segmenter
	Classifier  *classify.Classifier
	Extractor   *condition.Extractor
	Synthesizer *rules.Synthesizer
	Rules       *rules.Handle
}

// Load reads all configuration files and returns initialized components.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{Segmenter: segment.New()}

	lex := &Lexicon{}
	if l.LexiconPath != "" {
		loaded, err := LoadLexicon(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		lex = loaded
	}

	table, err := lex.Table()
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	comp.Classifier = classify.New(table)

	kw, order, err := lex.FeatureKeywords()
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}
	if kw == nil {
		comp.Extractor = condition.NewExtractor()
	} else {
		comp.Extractor = condition.NewExtractorWithFeatures(kw, order)
	}

	comp.Synthesizer = rules.NewSynthesizer(comp.Classifier, comp.Extractor, l.Logger)

	if l.RulesPath != "" {
		store, err := rules.LoadFile(l.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		comp.Rules = rules.NewHandle(store)
	}

	return comp, nil
}
