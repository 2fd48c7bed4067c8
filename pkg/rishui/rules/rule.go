// Package rules defines regulatory rules, the immutable ordered store that
// holds them, and the synthesizer that builds a store from classified
// document sections.
package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/civika/rishui/pkg/rishui/classify"
	"github.com/civika/rishui/pkg/rishui/condition"
	"github.com/civika/rishui/pkg/rishui/internalerr"
)

// Status marks whether a requirement is binding or advisory.
type Status string

const (
	StatusMandatory   Status = "mandatory"
	StatusRecommended Status = "recommended"
)

// Label returns the Hebrew display name for the status.
func (s Status) Label() string {
	switch s {
	case StatusMandatory:
		return "חובה"
	case StatusRecommended:
		return "מומלץ"
	}
	return string(s)
}

// Rule is one regulatory requirement with the condition under which it
// applies. Rules are immutable once synthesized.
type Rule struct {
	ID         string              `json:"id"`
	Category   classify.Category   `json:"category"`
	Title      string              `json:"title"`
	Status     Status              `json:"status"`
	Note       string              `json:"note,omitempty"`
	SectionRef string              `json:"section_ref,omitempty"`
	If         condition.Condition `json:"if"`

	// SourceHash identifies the document the rule was extracted from.
	// Internal provenance, not part of the wire shape.
	SourceHash string `json:"-"`
}

// Store is an ordered, immutable collection of rules with unique ids. A
// refresh publishes a whole new Store through a Handle; a Store is never
// mutated after construction, so concurrent readers need no locking.
type Store struct {
	rules []Rule
	byID  map[string]int
}

// NewStore builds a store from an ordered rule list. Duplicate ids and
// rules carrying impossible conditions are rejected: the synthesizer and
// the loader are expected to have dealt with both already.
func NewStore(rs []Rule) (*Store, error) {
	byID := make(map[string]int, len(rs))
	for i, r := range rs {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: %w: empty id", i, internalerr.ErrInvalidInput)
		}
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("rule %q: %w", r.ID, internalerr.ErrDuplicateRule)
		}
		if err := r.If.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.ID, err)
		}
		byID[r.ID] = i
	}
	return &Store{rules: rs, byID: byID}, nil
}

// Rules returns the rules in store order. Callers must not mutate the
// returned slice.
func (s *Store) Rules() []Rule {
	return s.rules
}

// Len returns the number of rules in the store.
func (s *Store) Len() int {
	return len(s.rules)
}

// Get returns the rule with the given id.
func (s *Store) Get(id string) (Rule, bool) {
	if i, ok := s.byID[id]; ok {
		return s.rules[i], true
	}
	return Rule{}, false
}

// Categories returns the distinct categories in store order with their
// rule counts.
func (s *Store) Categories() map[classify.Category]int {
	out := make(map[classify.Category]int)
	for _, r := range s.rules {
		out[r.Category]++
	}
	return out
}

// Save writes the store as an ordered JSON array. The encoding is
// deterministic: the same store always produces byte-identical output.
func (s *Store) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(s.rules)
}

// SaveFile writes the store to path, replacing any existing file.
func (s *Store) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	defer f.Close()
	if err := s.Save(f); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// Load reads an ordered JSON rule array, as produced by Save or curated by
// hand. The matching engine treats both identically.
func Load(r io.Reader) (*Store, error) {
	var rs []Rule
	if err := json.NewDecoder(r).Decode(&rs); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if len(rs) == 0 {
		return nil, internalerr.ErrEmptyStore
	}
	return NewStore(rs)
}

// LoadFile reads a rule store from a JSON file.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Handle is an atomically swappable reference to the current store.
// Reloads publish a complete new store; in-flight readers keep the
// snapshot they started with and never observe a partial mix.
type Handle struct {
	ptr atomic.Pointer[Store]
}

// NewHandle creates a handle holding the given store.
func NewHandle(s *Store) *Handle {
	h := &Handle{}
	h.ptr.Store(s)
	return h
}

// Current returns the store snapshot at this moment.
func (h *Handle) Current() *Store {
	return h.ptr.Load()
}

// Swap atomically replaces the store.
func (h *Handle) Swap(s *Store) {
	h.ptr.Store(s)
}
