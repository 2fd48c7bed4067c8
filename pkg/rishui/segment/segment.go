// Package segment groups normalized document lines into ordered sections.
//
// A section is a contiguous span of text anchored by an optional heading
// and tagged with the regulatory chapter (authority) it falls under. The
// chapter tag persists across sub-headings until the next chapter-level
// heading, so body paragraphs inherit the authority of their nearest
// chapter even when intervening sub-headings exist.
package segment

import (
	"regexp"
	"strings"

	"github.com/civika/rishui/pkg/rishui/hebtext"
)

// Chapter identifies the regulatory authority a section belongs to.
type Chapter string

const (
	ChapterNone          Chapter = ""
	ChapterHealth        Chapter = "health"
	ChapterPolice        Chapter = "police"
	ChapterFireAffidavit Chapter = "fire-affidavit"
	ChapterFireFull      Chapter = "fire-full"
)

// Line is one unit of extracted document text with optional page metadata.
type Line struct {
	Text string
	Page int
}

// Section is a contiguous span of document text. Append-only during
// segmentation, frozen afterward.
type Section struct {
	Heading string
	Body    []string
	Chapter Chapter
	Page    int
}

// Text returns the heading and body joined into one string, the form the
// classifier and condition extractor operate on.
func (s *Section) Text() string {
	parts := make([]string, 0, len(s.Body)+1)
	if s.Heading != "" {
		parts = append(parts, s.Heading)
	}
	parts = append(parts, s.Body...)
	return strings.Join(parts, " ")
}

// Word-level direction repair cannot reorder words across a line, so a
// chapter heading may read "פרק 5 - כבאות" or "5 פרק - כבאות" depending on
// how the source was extracted. One marker pattern accepts both orders.
var chapterMarkerRe = regexp.MustCompile(`פרק\s*-?\s*\d+|\d+\s*-?\s*פרק`)

// chapterPhrases maps an authority phrase (in logical order, as produced by
// hebtext) to its chapter tag. Order matters: the affidavit variant of the
// fire authority must be checked before the generic one.
var chapterPhrases = []struct {
	phrase  string
	extra   string
	chapter Chapter
}{
	{"כבאות והצלה", "תצהיר", ChapterFireAffidavit},
	{"כבאות והצלה", "", ChapterFireFull},
	{"משטרת ישראל", "", ChapterPolice},
	{"משרד הבריאות", "", ChapterHealth},
}

// structural heading patterns: numbered sub-items (4.1, 4.1.2), lettered
// items (א. ב.), and the recurring section names of the source document.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\d+(\.\d+)?\b`),
	regexp.MustCompile(`^[א-ת]\.\s`),
	regexp.MustCompile(`^תנאים\s+מוקדמים`),
	regexp.MustCompile(`^הגדרות\b`),
	regexp.MustCompile(`^מי\s+שתייה`),
	regexp.MustCompile(`^שפכים\b`),
	regexp.MustCompile(`^מזון\s+והזנה`),
	regexp.MustCompile(`^הסדרים\s+תברואתיים`),
	regexp.MustCompile(`^פסולת\b`),
}

var hebrewLetterRe = regexp.MustCompile(`[א-ת]`)

// Segmenter walks a linear sequence of lines and produces ordered sections.
type Segmenter struct{}

// New creates a Segmenter.
func New() *Segmenter {
	return &Segmenter{}
}

// DetectChapter returns the chapter tag for a chapter-level heading line,
// or ChapterNone. The line must carry both the chapter marker ("פרק N")
// and a known authority phrase.
func DetectChapter(line string) Chapter {
	if !chapterMarkerRe.MatchString(line) {
		return ChapterNone
	}
	for _, cp := range chapterPhrases {
		if !strings.Contains(line, cp.phrase) {
			continue
		}
		if cp.extra != "" && !strings.Contains(line, cp.extra) {
			continue
		}
		return cp.chapter
	}
	return ChapterNone
}

// IsHeading decides heading-vs-body for a normalized line: a structural
// pattern, a trailing colon, or a short mostly-Hebrew line.
func IsHeading(line string) bool {
	if DetectChapter(line) != ChapterNone {
		return true
	}
	for _, re := range headingPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	if strings.HasSuffix(line, ":") {
		return true
	}

	runes := []rune(line)
	if len(runes) < 10 || len(runes) > 60 {
		return false
	}
	hebrew := len(hebrewLetterRe.FindAllString(line, -1))
	return float64(hebrew) >= float64(len(runes))*0.5
}

// Segment groups normalized lines into ordered sections. A document with
// no detected headings yields a single section holding every line. Empty
// lines are skipped. Segment never fails; it returns whatever structure it
// managed to recover.
func (sg *Segmenter) Segment(lines []Line) []Section {
	var out []Section
	chapter := ChapterNone
	current := Section{}

	flush := func() {
		if current.Heading != "" || len(current.Body) > 0 {
			out = append(out, current)
		}
	}

	for _, ln := range lines {
		text := hebtext.Normalize(ln.Text)
		if text == "" {
			continue
		}

		if ch := DetectChapter(text); ch != ChapterNone {
			flush()
			chapter = ch
			current = Section{Heading: text, Chapter: chapter, Page: ln.Page}
			continue
		}

		if IsHeading(text) {
			flush()
			current = Section{Heading: text, Chapter: chapter, Page: ln.Page}
			continue
		}

		if len(current.Body) == 0 && current.Heading == "" && current.Page == 0 {
			current.Page = ln.Page
		}
		current.Chapter = chapter
		current.Body = append(current.Body, text)
	}
	flush()

	return out
}
