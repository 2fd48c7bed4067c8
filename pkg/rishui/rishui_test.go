package rishui

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/docload"
	"github.com/civika/rishui/pkg/rishui/match"
	"github.com/civika/rishui/pkg/rishui/rules"
	"github.com/civika/rishui/pkg/rishui/segment"
	"github.com/civika/rishui/pkg/rishui/store/sqlite"
)

const baselineRulesPath = "../../configs/baseline_rules.json"

func baselineEngine(t *testing.T) *Engine {
	t.Helper()
	st, err := rules.LoadFile(baselineRulesPath)
	if err != nil {
		t.Fatalf("load baseline rules: %v", err)
	}
	return New(Options{Rules: rules.NewHandle(st)})
}

func checklistIDs(a *Assessment) map[string]bool {
	ids := map[string]bool{}
	for _, r := range a.Checklist {
		ids[r.ID] = true
	}
	return ids
}

// TestAssessSmallGasDelivery is the reference scenario: a 120 m², 45 seat
// restaurant with gas and delivery.
func TestAssessSmallGasDelivery(t *testing.T) {
	eng := baselineEngine(t)

	a, err := eng.Assess(context.Background(), match.Profile{
		Area:     120,
		Seats:    45,
		Features: []condition.Feature{condition.FeatureGas, condition.FeatureDelivery},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	ids := checklistIDs(a)
	for _, want := range []string{
		"health-baseline",
		"smoking-signage",
		"sanitation-waste",
		"delivery-rules",
		"fire-affidavit",
		"gas-cert",
		"hood-suppression",
	} {
		if !ids[want] {
			t.Errorf("checklist should include %s", want)
		}
	}
	for _, exclude := range []string{
		"fire-full-area",
		"fire-full-seats",
		"police-alcohol",
		"police-capacity",
	} {
		if ids[exclude] {
			t.Errorf("checklist should not include %s", exclude)
		}
	}

	if a.Summary.FireTrack != "תצהיר (פרק 5)" {
		t.Errorf("fire track = %q", a.Summary.FireTrack)
	}
	if a.Summary.Police != "פטור מדרישות משטרה (≤200 מקומות וללא אלכוהול)" {
		t.Errorf("police note = %q", a.Summary.Police)
	}
	wantFeatures := []string{"שימוש בגז", "שירות משלוחים"}
	if len(a.Summary.Features) != len(wantFeatures) {
		t.Fatalf("features = %v", a.Summary.Features)
	}
	for i, w := range wantFeatures {
		if a.Summary.Features[i] != w {
			t.Errorf("feature %d = %q, want %q", i, a.Summary.Features[i], w)
		}
	}
}

func TestAssessLargeAlcohol(t *testing.T) {
	eng := baselineEngine(t)

	a, err := eng.Assess(context.Background(), match.Profile{
		Area:     300,
		Seats:    250,
		Features: []condition.Feature{condition.FeatureAlcohol},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}

	ids := checklistIDs(a)
	for _, want := range []string{"fire-full-area", "fire-full-seats", "police-alcohol", "police-capacity"} {
		if !ids[want] {
			t.Errorf("checklist should include %s", want)
		}
	}
	if ids["fire-affidavit"] {
		t.Error("large business must not get the affidavit track")
	}
	if a.Summary.FireTrack != "מסלול מלא (פרק 6)" {
		t.Errorf("fire track = %q", a.Summary.FireTrack)
	}
	if a.Summary.Police != "חלים תנאי משטרה" {
		t.Errorf("police note = %q", a.Summary.Police)
	}
}

func TestAssessLogsHistory(t *testing.T) {
	ctx := context.Background()
	hist, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "hist.db"))
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}

	st, err := rules.LoadFile(baselineRulesPath)
	if err != nil {
		t.Fatal(err)
	}
	eng := New(Options{Rules: rules.NewHandle(st), Store: hist})
	defer eng.Close()

	a, err := eng.Assess(ctx, match.Profile{Area: 120, Seats: 45, Features: []condition.Feature{condition.FeatureGas}})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if a.ID == "" {
		t.Fatal("assessment should carry the history record id")
	}

	rec, err := hist.GetAssessment(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if rec.Area != 120 || rec.Seats != 45 {
		t.Errorf("persisted profile mismatch: %+v", rec)
	}
	if len(rec.MatchedIDs) != len(a.Checklist) {
		t.Errorf("persisted %d matches, checklist has %d", len(rec.MatchedIDs), len(a.Checklist))
	}
}

const sampleDocument = `תנאים לרישוי עסק - בית אוכל

פרק 1 - משרד הבריאות
1.1 הסדרים תברואתיים
יש לשמור על תנאי תברואה נאותים בכל שטחי העסק לרבות מטבח, מחסן ואולם ההגשה של בית האוכל
1.2 שליחת מזון
עסק המפעיל שירות משלוחים יקצה אזור ייעודי לאריזת מזון ויתעד את טמפרטורת ההובלה
1.3 מי שתייה
בעל העסק יספק מי שתייה העומדים בתקנות איכות מי שתייה ויחזיק את רשת המים בעסק במצב תקין
1.4 איסור עישון
בעל העסק יציב שלטי איסור עישון בכל חלקי העסק בהתאם להוראות החוק למניעת העישון במקומות ציבוריים

פרק 5 - כבאות והצלה - מסלול תצהיר
5.1 תנאי הסף למסלול
מסלול תצהיר חל על עסק ששטחו עד 150 מ"ר ותפוסתו עד 50 איש
5.2 אמצעי כיבוי
חובה להציב מטפי כיבוי אבקה בכל קומה ולסמן את דרכי המוצא בשילוט מואר

פרק 6 - כבאות והצלה - מסלול מלא
6.1 עסק גדול
עסק ששטחו 151 מ"ר או יותר יגיש בקשה במסלול רישוי מלא הכולל אישור מערך כיבוי
`

func extractionEngine(t *testing.T) *Engine {
	t.Helper()
	cls := classify.New(classify.DefaultTable())
	ext := condition.NewExtractor()
	return New(Options{
		Loader:      docload.New(docload.Config{}),
		Segmenter:   segment.New(),
		Synthesizer: rules.NewSynthesizer(cls, ext, nil),
	})
}

func TestExtractRulesFromDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.txt")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	eng := extractionEngine(t)
	st, doc, err := eng.ExtractRules(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractRules: %v", err)
	}
	if doc.Hash == "" {
		t.Error("document hash should be set")
	}
	if st.Len() == 0 {
		t.Fatal("expected synthesized rules")
	}

	cats := st.Categories()
	if cats[classify.CategoryHealth] == 0 {
		t.Error("expected health rules from chapter 1")
	}
	if cats[classify.CategorySanitation] == 0 {
		t.Error("expected a sanitation rule from the waste section")
	}
	if cats[classify.CategorySignage] == 0 {
		t.Error("expected a signage rule from the smoking section")
	}
	if cats[classify.CategoryFireAffidavit] == 0 {
		t.Error("expected affidavit-track rules from chapter 5")
	}
	if cats[classify.CategoryFireFull] == 0 {
		t.Error("expected full-track rules from chapter 6")
	}

	// The affidavit thresholds must come out as bands, not raw numbers.
	foundThresholds := false
	foundLarge := false
	for _, r := range st.Rules() {
		c := r.If
		if r.Category == classify.CategoryFireAffidavit &&
			c.AreaMax != nil && *c.AreaMax == 150 &&
			c.SeatsMax != nil && *c.SeatsMax == 50 {
			foundThresholds = true
		}
		if r.Category == classify.CategoryFireFull &&
			c.AreaMin != nil && *c.AreaMin == 151 {
			foundLarge = true
		}
	}
	if !foundThresholds {
		t.Error("no affidavit rule carries area_max=150 and seats_max=50")
	}
	if !foundLarge {
		t.Error("no full-track rule carries area_min=151")
	}
}

// TestExtractRulesIdempotent checks that extracting the same document twice
// produces byte-identical output.
func TestExtractRulesIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.txt")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	eng := extractionEngine(t)
	first, _, err := eng.ExtractRules(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := eng.ExtractRules(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	var a, b bytes.Buffer
	if err := first.Save(&a); err != nil {
		t.Fatal(err)
	}
	if err := second.Save(&b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("two runs over the same document should serialize identically")
	}
}

func TestExtractedRulesDriveAssessment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.txt")
	if err := os.WriteFile(path, []byte(sampleDocument), 0o644); err != nil {
		t.Fatal(err)
	}

	eng := extractionEngine(t)
	st, _, err := eng.ExtractRules(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}

	assessEng := New(Options{Rules: rules.NewHandle(st)})
	small, err := assessEng.Assess(context.Background(), match.Profile{Area: 120, Seats: 45})
	if err != nil {
		t.Fatal(err)
	}
	large, err := assessEng.Assess(context.Background(), match.Profile{Area: 400, Seats: 45})
	if err != nil {
		t.Fatal(err)
	}

	hasCategory := func(a *Assessment, cat classify.Category) bool {
		for _, r := range a.Checklist {
			if r.Category == cat {
				return true
			}
		}
		return false
	}
	if !hasCategory(small, classify.CategoryFireAffidavit) {
		t.Error("small profile should hit the affidavit-track rules")
	}
	if hasCategory(large, classify.CategoryFireAffidavit) {
		// The thresholded affidavit rule must not match a 400 m² hall.
		for _, r := range large.Checklist {
			if r.Category == classify.CategoryFireAffidavit && !r.If.Empty() {
				t.Error("thresholded affidavit rule matched a large profile")
			}
		}
	}
	if !hasCategory(large, classify.CategoryFireFull) {
		t.Error("large profile should hit the full-track rules")
	}
}

func TestReloadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	one := `[{"id":"health-1","category":"health","title":"עמידה בתנאי תברואה נאותים","status":"mandatory","if":{}}]`
	if err := os.WriteFile(path, []byte(one), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := rules.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	eng := New(Options{Rules: rules.NewHandle(st)})

	before, err := eng.Rules()
	if err != nil {
		t.Fatal(err)
	}
	if before.Len() != 1 {
		t.Fatalf("expected 1 rule, got %d", before.Len())
	}

	two := `[
	  {"id":"health-1","category":"health","title":"עמידה בתנאי תברואה נאותים","status":"mandatory","if":{}},
	  {"id":"gas-1","category":"gas","title":"אישור תקינות למערכת הגז","status":"mandatory","if":{"features_all":["gas"]}}
	]`
	if err := os.WriteFile(path, []byte(two), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := eng.ReloadRules(path); err != nil {
		t.Fatalf("ReloadRules: %v", err)
	}

	after, err := eng.Rules()
	if err != nil {
		t.Fatal(err)
	}
	if after.Len() != 2 {
		t.Errorf("expected 2 rules after reload, got %d", after.Len())
	}
	// The pre-reload snapshot is untouched.
	if before.Len() != 1 {
		t.Error("old snapshot should be immutable")
	}
}

func TestAssessWithoutRules(t *testing.T) {
	eng := New(Options{})
	if _, err := eng.Assess(context.Background(), match.Profile{Area: 10}); err == nil {
		t.Fatal("expected error when no rule store is configured")
	}
}
