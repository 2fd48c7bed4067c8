package docload

import (
	"strings"

	"github.com/civika/rishui/pkg/rishui/segment"
)

// formFeed separates pages in plain-text dumps of paginated documents.
const formFeed = "\f"

// extractText splits a plain text payload into lines. Form feed characters
// advance the page counter, matching how pdftotext-style dumps paginate.
func extractText(data []byte) []segment.Line {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	var lines []segment.Line
	page := 1
	for _, pageText := range strings.Split(text, formFeed) {
		for _, ln := range strings.Split(pageText, "\n") {
			ln = strings.TrimSpace(ln)
			if ln == "" {
				continue
			}
			lines = append(lines, segment.Line{Text: ln, Page: page})
		}
		page++
	}
	return lines
}
