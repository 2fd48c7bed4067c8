// Package hebtext repairs Hebrew text damaged by PDF extraction.
//
// PDF extractors frequently emit right-to-left text in visual order, so
// whole words come out reversed ("תואבכ" instead of "כבאות"). The repair
// heuristic relies on Hebrew letter positional constraints: a final form
// (ך ם ן ף ץ) can only close a word, and the letters כ מ נ פ צ must take
// their final form when they close one. A token violating either rule was
// extracted backwards. The package also strips table-of-contents dot
// leaders and enumeration noise and collapses whitespace.
package hebtext

import (
	"regexp"
	"strings"
)

// finalForms are the five Hebrew letters that take a distinct shape at the
// end of a word. They never legally open a token.
const finalForms = "ךםןףץ"

// mustBeFinal are the regular shapes of the five letters above. At the end
// of a word they would have been written in final form, so a token closing
// with one of these was extracted backwards.
const mustBeFinal = "כמנפצ"

var (
	hebrewRe    = regexp.MustCompile(`[א-ת]`)
	dotLeaderRe = regexp.MustCompile(`\.{3,}`)
	// A bare enumeration token ("3." or "3...") followed by whitespace or
	// the end of line. Sub-item numbering like "4.1" is document structure
	// and must survive.
	leadEnumRe = regexp.MustCompile(`^\d+\.+(?:\s+|$)`)
	trailNumRe = regexp.MustCompile(`\d+\s*$`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// reversedPhrases maps visual-order phrases seen in the source documents to
// their logical-order form. Applied before the per-word pass, because words
// like "הלצהו" carry no positional violation the letter heuristic could
// detect.
var reversedPhrases = [][2]string{
	{"הלצהו תואבכ", "כבאות והצלה"},
	{"לארשי תרטשמ", "משטרת ישראל"},
	{"תואירבה דרשמ", "משרד הבריאות"},
	{"הז ןיינעל", "לענין זה"},
	{"קסע ןיינעל", "לענין עסק"},
	{"רושיא תתל", "לתת אישור"},
	{"ךימסה אוהש רחא", "אחר שהוא הסמיך"},
	{"וכימסה םהש ימ", "מי שהם הסמיכו"},
}

// reversedWords are single visual-order words whose letters happen to
// satisfy every positional constraint, so the heuristic in FixReversedWord
// cannot detect them. Matched as whole tokens only.
var reversedWords = map[string]string{
	"ריהצת":  "תצהיר",
	"תושירד": "דרישות",
	"לוהוכלא": "אלכוהול",
	"רשב":    "בשר",
	"ןוישיר": "רישיון",
	"ןיצק":   "קצין",
	"ביצנ":   "נציב",
	"חקפמה":  "המפקח",
	"יללכה":  "הכללי",
}

// Normalize cleans a single extracted line: dot leaders and enumeration
// artifacts are removed, whitespace is collapsed, and reversed Hebrew words
// are flipped back to logical order. Input without Hebrew characters is
// returned with only the whitespace fixes applied.
func Normalize(raw string) string {
	// Enumeration noise first: once a dot leader is gone the leading "3..."
	// of a table-of-contents row loses its dot run and cannot be told apart
	// from a threshold number.
	text := leadEnumRe.ReplaceAllString(raw, "")
	text = dotLeaderRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if !ContainsHebrew(text) {
		return text
	}
	return FixReversed(text)
}

// StripPageArtifacts removes trailing page numbers left over from page
// footers. Kept separate from Normalize because body sentences may
// legitimately end with a number (thresholds, standard references).
func StripPageArtifacts(line string) string {
	return strings.TrimSpace(trailNumRe.ReplaceAllString(line, ""))
}

// ContainsHebrew reports whether s has at least one Hebrew letter.
func ContainsHebrew(s string) bool {
	return hebrewRe.MatchString(s)
}

// FixReversed repairs word-level reversal in text. Known multi-word phrases
// are fixed first, then each remaining word is checked individually. Words
// without Hebrew characters pass through untouched.
func FixReversed(text string) string {
	if !ContainsHebrew(text) {
		return text
	}

	for _, p := range reversedPhrases {
		text = strings.ReplaceAll(text, p[0], p[1])
	}

	words := strings.Split(text, " ")
	for i, w := range words {
		if ContainsHebrew(w) {
			words[i] = FixReversedWord(w)
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// FixReversedWord flips a single word back to logical order when one of its
// letters violates Hebrew positional constraints. Tokens of one or two
// runes and tokens delimited by punctuation are left alone: they carry too
// little signal to decide direction safely.
func FixReversedWord(word string) string {
	if fixed, ok := reversedWords[word]; ok {
		return fixed
	}

	runes := []rune(word)
	if len(runes) <= 2 || !ContainsHebrew(word) {
		return word
	}

	first := runes[0]
	last := runes[len(runes)-1]

	if strings.ContainsRune(".,:;!?()[]{}", last) {
		return word
	}
	if strings.ContainsRune("([{", first) {
		return word
	}

	// A final form opening the token is conclusive.
	if strings.ContainsRune(finalForms, first) {
		return reverse(runes)
	}

	// A letter that should have taken its final form closing the token.
	if strings.ContainsRune(mustBeFinal, last) {
		return reverse(runes)
	}

	return word
}

func reverse(runes []rune) string {
	out := make([]rune, len(runes))
	for i, r := range runes {
		out[len(runes)-1-i] = r
	}
	return string(out)
}
