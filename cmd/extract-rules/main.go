// Command extract-rules turns a regulatory document (PDF, DOCX, TXT or
// HTML) into a machine-usable rules JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/civika/rishui/pkg/rishui"
	"github.com/civika/rishui/pkg/rishui/config"
	"github.com/civika/rishui/pkg/rishui/docload"
)

func main() {
	var (
		input   = flag.String("input", "", "Path to the regulatory document (required)")
		output  = flag.String("output", "", "Path for the rules JSON file (default: stdout)")
		lexicon = flag.String("lexicon", "", "Optional extraction lexicon YAML")
		verbose = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loader := config.Loader{LexiconPath: *lexicon, Logger: logger}
	components, err := loader.Load()
	if err != nil {
		log.Fatalf("load configs: %v", err)
	}

	eng := rishui.New(rishui.Options{
		Loader:      docload.New(docload.Config{Logger: logger}),
		Segmenter:   components.Segmenter,
		Synthesizer: components.Synthesizer,
		Logger:      logger,
	})

	st, doc, err := eng.ExtractRules(context.Background(), *input)
	if err != nil {
		log.Fatalf("extract rules: %v", err)
	}

	if *output == "" {
		if err := st.Save(os.Stdout); err != nil {
			log.Fatalf("write rules: %v", err)
		}
	} else {
		if err := st.SaveFile(*output); err != nil {
			log.Fatalf("write rules: %v", err)
		}
	}

	fmt.Fprintf(os.Stderr, "%s: %d rules from %d lines (sha256 %s)\n",
		*input, st.Len(), len(doc.Lines), doc.Hash[:12])
	for cat, n := range st.Categories() {
		fmt.Fprintf(os.Stderr, "  %-16s %d\n", cat, n)
	}
}
