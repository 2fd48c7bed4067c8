package hebtext

import "testing"

func TestFixReversedWord(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		// Final form at the start means the word was extracted backwards.
		{"ןוזמ", "מזון"},
		{"םיכפש", "שפכים"},
		{"ןושיע", "עישון"},
		// Non-final כ/מ/נ/פ/צ closing the word is the same signal.
		{"תרטשמ", "משטרת"},
		{"דרשמ", "משרד"},
		// Already-correct words keep their shape.
		{"בריאות", "בריאות"},
		{"עישון", "עישון"},
		{"רישיון", "רישיון"},
		// Too short to decide.
		{"גז", "גז"},
		{"אש", "אש"},
		// Punctuation-delimited tokens are never touched.
		{"(םיכפש)", "(םיכפש)"},
		{"ןוזמ.", "ןוזמ."},
		// Non-Hebrew passes through.
		{"150", "150"},
		{"delivery", "delivery"},
	}

	for _, tt := range tests {
		if got := FixReversedWord(tt.in); got != tt.want {
			t.Errorf("FixReversedWord(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixReversedPhrases(t *testing.T) {
	in := "5 קרפ - הלצהו תואבכ"
	got := FixReversed(in)
	if got != "5 פרק - כבאות והצלה" {
		t.Errorf("phrase fix failed: got %q", got)
	}

	in = "1 קרפ - תואירבה דרשמ"
	got = FixReversed(in)
	if got != "1 פרק - משרד הבריאות" {
		t.Errorf("phrase fix failed: got %q", got)
	}
}

func TestNormalizeDotLeaders(t *testing.T) {
	in := "דרישות כלליות........................ 12"
	got := Normalize(in)
	if got != "דרישות כלליות 12" {
		t.Errorf("Normalize(%q) = %q", in, got)
	}
}

func TestNormalizeEnumerationNoise(t *testing.T) {
	in := "3... תנאים מוקדמים"
	got := Normalize(in)
	if got != "תנאים מוקדמים" {
		t.Errorf("Normalize(%q) = %q", in, got)
	}
}

func TestNormalizeKeepsSubItemNumbers(t *testing.T) {
	// "4.1" is document structure, not enumeration noise; the segmenter
	// relies on it to spot sub-item headings.
	tests := []struct {
		in   string
		want string
	}{
		{"4.1 דרישות כלליות למבנה", "4.1 דרישות כלליות למבנה"},
		{"4.1.2 אוורור המטבח", "4.1.2 אוורור המטבח"},
		{"7. הגדרות", "הגדרות"},
		{"7.", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeWhitespaceCollapse(t *testing.T) {
	in := "  משרד   הבריאות \t תברואה  "
	got := Normalize(in)
	if got != "משרד הבריאות תברואה" {
		t.Errorf("Normalize(%q) = %q", in, got)
	}
}

func TestNormalizeNonHebrewUnchanged(t *testing.T) {
	in := "plain english line, no script to repair"
	if got := Normalize(in); got != in {
		t.Errorf("non-Hebrew input should be unchanged, got %q", got)
	}
}

func TestStripPageArtifacts(t *testing.T) {
	if got := StripPageArtifacts("דרישות כלליות 12"); got != "דרישות כלליות" {
		t.Errorf("StripPageArtifacts = %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := "5 קרפ - הלצהו תואבכ: תושירד"
	once := Normalize(in)
	twice := Normalize(once)
	if once != twice {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}
