package docload

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/civika/rishui/pkg/rishui/segment"
)

// extractDocx parses a .docx payload by reading word/document.xml from the
// ZIP archive. Each paragraph becomes one line; explicit page breaks and
// the lastRenderedPageBreak markers advance the page counter.
func extractDocx(data []byte) ([]segment.Line, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var lines []segment.Line
	var current strings.Builder
	inParagraph := false
	page := 1

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "br":
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" && attr.Value == "page" {
						page++
					}
				}
			case "lastRenderedPageBreak":
				page++
			}

		case xml.CharData:
			if inParagraph {
				current.Write(t)
			}

		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				if text := strings.TrimSpace(current.String()); text != "" {
					lines = append(lines, segment.Line{Text: text, Page: page})
				}
			}
		}
	}

	return lines, nil
}
