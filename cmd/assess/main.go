// Command assess evaluates a business profile against a rules file and
// prints the matching requirements as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/civika/rishui/internal/report"
	"github.com/civika/rishui/pkg/rishui"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/config"
	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/store/sqlite"
)

var knownFeatures = map[string]condition.Feature{
	string(condition.FeatureGas):         condition.FeatureGas,
	string(condition.FeatureDelivery):    condition.FeatureDelivery,
	string(condition.FeatureAlcohol):     condition.FeatureAlcohol,
	string(condition.FeatureMeatAndFish): condition.FeatureMeatAndFish,
	string(condition.FeatureHood):        condition.FeatureHood,
}

func parseFeatures(s string) ([]condition.Feature, error) {
	if s == "" {
		return nil, nil
	}
	var out []condition.Feature
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		f, ok := knownFeatures[part]
		if !ok {
			return nil, &unknownFeatureError{part}
		}
		out = append(out, f)
	}
	return out, nil
}

type unknownFeatureError struct{ name string }

func (e *unknownFeatureError) Error() string { return "unknown feature: " + e.name }

func main() {
	var (
		rulesPath = flag.String("rules", "configs/baseline_rules.json", "Path to the rules JSON file")
		area      = flag.Float64("area", 0, "Business area in square meters (required)")
		seats     = flag.Int("seats", 0, "Seating capacity")
		employees = flag.Int("employees", 0, "Employee count")
		features  = flag.String("features", "", "Comma-separated features (gas,delivery,alcohol,meat_and_fish,hood)")
		dbPath    = flag.String("db", "", "Optional SQLite assessment log")
		llmBase   = flag.String("llm-base", "", "Optional: OpenAI-compatible endpoint for the report")
		llmModel  = flag.String("llm-model", "", "Optional: model name for the report")
		llmAPIKey = flag.String("llm-api-key", os.Getenv("OPENAI_API_KEY"), "Optional: API key for the report endpoint")
	)
	flag.Parse()

	if *area <= 0 {
		log.Fatal("--area required and must be positive")
	}

	feats, err := parseFeatures(*features)
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	loader := config.Loader{RulesPath: *rulesPath, Logger: logger}
	components, err := loader.Load()
	if err != nil {
		log.Fatalf("load configs: %v", err)
	}

	ctx := context.Background()
	opts := rishui.Options{Rules: components.Rules, Logger: logger}
	if *dbPath != "" {
		hist, err := sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open assessment log: %v", err)
		}
		opts.Store = hist
	}

	eng := rishui.New(opts)
	defer eng.Close()

	profile := match.Profile{Area: *area, Seats: *seats, Employees: *employees, Features: feats}
	assessment, err := eng.Assess(ctx, profile)
	if err != nil {
		log.Fatalf("assess: %v", err)
	}

	result := struct {
		*rishui.Assessment
		Report *report.Report `json:"ai_report,omitempty"`
	}{Assessment: assessment}

	if *llmBase != "" && *llmModel != "" {
		client := &report.Client{BaseURL: *llmBase, APIKey: *llmAPIKey, Model: *llmModel}
		r, err := client.Generate(ctx, profile, assessment.Checklist)
		if err != nil {
			logger.Warn("report generation failed, using built-in report", "error", err)
			r = report.Basic(profile, assessment.Checklist)
		}
		result.Report = r
	} else {
		result.Report = report.Basic(profile, assessment.Checklist)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}
