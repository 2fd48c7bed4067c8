// Package docload reads regulatory documents and turns them into
// page-tagged lines ready for normalization and segmentation.
//
// Supported formats:
//   - .pdf   — PDF text extraction (pdfcpu, one page per unit)
//   - .docx  — Microsoft Word (archive/zip → word/document.xml)
//   - .txt   — plain text
//   - .html  — HTML block elements
//
// Extracted text is returned as-is: Hebrew PDFs often carry visually
// reversed text, which is the normalizer's job, not this package's.
package docload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/civika/rishui/pkg/rishui/internalerr"
	"github.com/civika/rishui/pkg/rishui/segment"
)

// Format identifies a document type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"
	FormatTXT  Format = "txt"
	FormatHTML Format = "html"
)

// Document is the result of loading a source file.
type Document struct {
	Path    string             `json:"path"`
	Format  Format             `json:"format"`
	Hash    string             `json:"hash"` // SHA-256 of the raw file bytes
	Lines   []segment.Line     `json:"lines"`
	Quality *ExtractionQuality `json:"quality,omitempty"`
}

// Config configures the loader.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 50 MB).
	MaxFileSize int64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Loader is the document loading engine.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Loader with the given configuration.
func New(cfg Config) *Loader {
	cfg.defaults()
	return &Loader{cfg: cfg, logger: cfg.Logger}
}

// Detect returns the document format based on file extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDocx, nil
	case ".txt", ".text":
		return FormatTXT, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnsupportedDoc, ext)
	}
}

// Load reads a document file and returns its page-tagged lines.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > l.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: file too large: %d bytes (max %d)",
			internalerr.ErrInvalidInput, info.Size(), l.cfg.MaxFileSize)
	}

	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)

	l.logger.Debug("loading document", "path", path, "format", format, "bytes", len(data))

	var lines []segment.Line
	var quality *ExtractionQuality

	switch format {
	case FormatPDF:
		lines, quality, err = extractPDF(data)
	case FormatDocx:
		lines, err = extractDocx(data)
	case FormatTXT:
		lines = extractText(data)
	case FormatHTML:
		lines, err = extractHTML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s (%s): %w", path, format, err)
	}

	return &Document{
		Path:    path,
		Format:  format,
		Hash:    hex.EncodeToString(sum[:]),
		Lines:   lines,
		Quality: quality,
	}, nil
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"pdf", "docx", "txt", "html"}
}
