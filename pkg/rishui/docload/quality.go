package docload

import "unicode"

// ExtractionQuality captures metrics about PDF text extraction quality.
// Scanned regulatory documents extract as near-empty pages; a low Hebrew
// ratio on a Hebrew-language document usually means broken font encoding.
type ExtractionQuality struct {
	PageCount      int     `json:"page_count"`
	CharsPerPage   float64 `json:"chars_per_page"`
	PrintableRatio float64 `json:"printable_ratio"`
	HebrewRatio    float64 `json:"hebrew_ratio"`
}

// NeedsOCR reports whether the PDF likely needs OCR to yield usable text.
func (q *ExtractionQuality) NeedsOCR() bool {
	return q.CharsPerPage < 50 || q.PrintableRatio < 0.85
}

// Suspicious reports whether the extracted text looks garbled for a
// Hebrew regulatory document.
func (q *ExtractionQuality) Suspicious() bool {
	return q.HebrewRatio < 0.2
}

// computePrintableRatio returns the ratio of printable characters in text.
// Private Use Area runes, U+FFFD and non-whitespace control characters
// count as garbage.
func computePrintableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// computeHebrewRatio returns the share of letters that are Hebrew.
func computeHebrewRatio(text string) float64 {
	letters := 0
	hebrew := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if r >= 0x05D0 && r <= 0x05EA {
			hebrew++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(hebrew) / float64(letters)
}
