package docload

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/civika/rishui/pkg/rishui/segment"
)

// extractHTML pulls block-level text out of an HTML payload. Headings,
// paragraphs, list items and table cells each become one line. HTML
// documents carry no page structure, so every line is page 1.
func extractHTML(data []byte) ([]segment.Line, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var lines []segment.Line
	appendLine := func(text string) {
		text = strings.TrimSpace(text)
		if text != "" {
			lines = append(lines, segment.Line{Text: text, Page: 1})
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
				atom.P, atom.Li, atom.Td, atom.Th:
				appendLine(collectText(n))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(lines) == 0 {
		appendLine(collectText(doc))
	}

	return lines, nil
}

// collectText extracts all text from a node subtree.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
