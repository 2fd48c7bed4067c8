// Package rishui is the business licensing engine facade: it turns
// regulatory documents into machine-usable requirement rules and evaluates
// business profiles against them.
package rishui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/docload"
	"github.com/civika/rishui/pkg/rishui/hebtext"
	"github.com/civika/rishui/pkg/rishui/internalerr"
	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/rules"
	"github.com/civika/rishui/pkg/rishui/segment"
	"github.com/civika/rishui/pkg/rishui/store"
)

// Engine is the licensing engine facade.
type Engine struct {
	loader *docload.Loader
	seg    *segment.Segmenter
	synth  *rules.Synthesizer
	handle *rules.Handle
	log    store.Store
	logger *slog.Logger
}

// Options configures an Engine instance. Rules is required for assessment;
// Loader, Segmenter and Synthesizer are required for document extraction.
// Store is optional: when set, every assessment is persisted.
type Options struct {
	Loader      *docload.Loader
	Segmenter   *segment.Segmenter
	Synthesizer *rules.Synthesizer
	Rules       *rules.Handle
	Store       store.Store
	Logger      *slog.Logger
}

// New creates an Engine with the given dependencies.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		loader: opts.Loader,
		seg:    opts.Segmenter,
		synth:  opts.Synthesizer,
		handle: opts.Rules,
		log:    opts.Store,
		logger: logger,
	}
}

// Close cleanly shuts down the engine.
func (e *Engine) Close() error {
	if e.log != nil {
		return e.log.Close()
	}
	return nil
}

// Rules returns the current rule store snapshot.
func (e *Engine) Rules() (*rules.Store, error) {
	if e.handle == nil {
		return nil, fmt.Errorf("%w: no rule store configured", internalerr.ErrStoreUnavailable)
	}
	return e.handle.Current(), nil
}

// ReloadRules swaps in a rule store loaded from path. Assessments in
// flight keep their snapshot.
func (e *Engine) ReloadRules(path string) error {
	if e.handle == nil {
		return fmt.Errorf("%w: no rule store configured", internalerr.ErrStoreUnavailable)
	}
	st, err := rules.LoadFile(path)
	if err != nil {
		return err
	}
	e.handle.Swap(st)
	e.logger.Info("rules reloaded", "path", path, "rules", st.Len())
	return nil
}

// ExtractRules loads a regulatory document, repairs and segments its text,
// and synthesizes a rule store from it.
func (e *Engine) ExtractRules(ctx context.Context, path string) (*rules.Store, *docload.Document, error) {
	if e.loader == nil || e.seg == nil || e.synth == nil {
		return nil, nil, fmt.Errorf("%w: extraction components not configured", internalerr.ErrInvalidConfig)
	}

	doc, err := e.loader.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if doc.Quality != nil && doc.Quality.NeedsOCR() {
		e.logger.Warn("document may need OCR",
			"path", path,
			"chars_per_page", doc.Quality.CharsPerPage,
			"printable_ratio", doc.Quality.PrintableRatio)
	}

	lines := stripPageArtifacts(doc.Lines)
	sections := e.seg.Segment(lines)
	e.logger.Info("document segmented", "path", path, "lines", len(lines), "sections", len(sections))

	st, err := e.synth.Synthesize(sections, doc.Hash)
	if err != nil {
		return nil, nil, err
	}
	return st, doc, nil
}

// stripPageArtifacts removes page-footer numbers and drops lines emptied by
// the cleanup. Reversal repair and enumeration stripping happen once, inside
// the segmenter.
func stripPageArtifacts(in []segment.Line) []segment.Line {
	out := make([]segment.Line, 0, len(in))
	for _, ln := range in {
		text := hebtext.StripPageArtifacts(ln.Text)
		if text == "" {
			continue
		}
		out = append(out, segment.Line{Text: text, Page: ln.Page})
	}
	return out
}

// Summary describes the assessed profile in reporting terms.
type Summary struct {
	Type      string   `json:"type"`
	Area      float64  `json:"area"`
	Seats     int      `json:"seats"`
	Features  []string `json:"features"`
	Police    string   `json:"police"`
	FireTrack string   `json:"fire_track"`
}

// Assessment is the result of evaluating a business profile.
type Assessment struct {
	ID        string       `json:"id,omitempty"`
	Summary   Summary      `json:"summary"`
	Checklist []rules.Rule `json:"checklist"`
}

// Assess evaluates a business profile against the current rule store and,
// when a history store is configured, persists the outcome.
func (e *Engine) Assess(ctx context.Context, p match.Profile) (*Assessment, error) {
	st, err := e.Rules()
	if err != nil {
		return nil, err
	}

	matched := match.Evaluate(st, p)
	a := &Assessment{
		Summary:   buildSummary(p),
		Checklist: matched,
	}

	if e.log != nil {
		rec := store.Assessment{
			Area:      p.Area,
			Seats:     p.Seats,
			Employees: p.Employees,
		}
		for _, f := range p.Features {
			rec.Features = append(rec.Features, string(f))
		}
		for _, r := range matched {
			rec.MatchedIDs = append(rec.MatchedIDs, r.ID)
		}
		id, err := e.log.LogAssessment(ctx, rec)
		if err != nil {
			// History is best-effort; the assessment itself stands.
			e.logger.Error("log assessment", "error", err)
		} else {
			a.ID = id
		}
	}

	e.logger.Info("profile assessed",
		"area", p.Area, "seats", p.Seats, "features", len(p.Features),
		"matched", len(matched))
	return a, nil
}

func buildSummary(p match.Profile) Summary {
	features := p.FeatureSet()

	small := p.Area <= 150 && p.Seats <= 50
	fireTrack := "מסלול מלא (פרק 6)"
	if small {
		fireTrack = "תצהיר (פרק 5)"
	}

	police := "חלים תנאי משטרה"
	if !features[condition.FeatureAlcohol] && p.Seats <= 200 {
		police = "פטור מדרישות משטרה (≤200 מקומות וללא אלכוהול)"
	}

	labels := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		labels = append(labels, f.Label())
	}

	return Summary{
		Type:      "restaurant",
		Area:      p.Area,
		Seats:     p.Seats,
		Features:  labels,
		Police:    police,
		FireTrack: fireTrack,
	}
}
