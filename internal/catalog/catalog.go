// Package catalog loads the forbidden-term catalog that drives validation.
// A Catalog is immutable once loaded and may be shared by every editor.
package catalog

import (
	"sort"
	"strings"
	"time"
)

// Term is one catalog entry: a canonical key with every surface form that
// should be flagged, plus guidance shown to the author.
type Term struct {
	Key         string   `json:"key" yaml:"key" validate:"required"`
	Forms       []string `json:"forms" yaml:"forms"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
	Rationale   string   `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Replacement string   `json:"replacement,omitempty" yaml:"replacement,omitempty"`
}

// Catalog maps canonical keys to terms.
type Catalog struct {
	Version  string          `json:"version,omitempty" yaml:"version,omitempty"`
	Source   string          `json:"source,omitempty" yaml:"-"`
	LoadedAt time.Time       `json:"loaded_at" yaml:"-"`
	Terms    map[string]Term `json:"terms" yaml:"terms"`
}

// New builds a catalog from a term list. Terms without a key are skipped and
// a term without forms is matched by its key.
func New(source string, terms ...Term) *Catalog {
	c := &Catalog{Source: source, LoadedAt: time.Now().UTC(), Terms: make(map[string]Term, len(terms))}
	for _, t := range terms {
		t.Key = strings.TrimSpace(t.Key)
		if t.Key == "" {
			continue
		}
		c.Terms[t.Key] = t
	}
	return c
}

// Empty reports whether the catalog yields no surface forms.
func (c *Catalog) Empty() bool {
	return c == nil || len(c.Forms()) == 0
}

// Len returns the number of terms.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Terms)
}

// Forms returns every distinct surface form, lowercased and trimmed.
func (c *Catalog) Forms() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	add := func(f string) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			return
		}
		seen[f] = true
		out = append(out, f)
	}
	for _, t := range c.Terms {
		if len(t.Forms) == 0 {
			add(t.Key)
		}
		for _, f := range t.Forms {
			add(f)
		}
	}
	sort.Strings(out)
	return out
}

// Lookup returns the term owning a surface form, matched case-insensitively.
func (c *Catalog) Lookup(form string) (Term, bool) {
	if c == nil {
		return Term{}, false
	}
	form = strings.ToLower(strings.TrimSpace(form))
	if t, ok := c.Terms[form]; ok {
		return t, true
	}
	for _, t := range c.Terms {
		if strings.EqualFold(t.Key, form) {
			return t, true
		}
		for _, f := range t.Forms {
			if strings.EqualFold(strings.TrimSpace(f), form) {
				return t, true
			}
		}
	}
	return Term{}, false
}

// List returns the terms sorted by key.
func (c *Catalog) List() []Term {
	if c == nil {
		return nil
	}
	out := make([]Term, 0, len(c.Terms))
	for _, t := range c.Terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Builtin returns the fallback catalog used whenever the configured source is
// empty or cannot be loaded.
func Builtin() *Catalog {
	return New("builtin",
		Term{Key: "cure", Forms: []string{"cure", "cures", "cured", "curing"}, Category: "health-claim",
			Rationale: "Products may not claim to cure a disease.", Replacement: "may help with"},
		Term{Key: "miracle", Forms: []string{"miracle", "miraculous"}, Category: "exaggeration",
			Rationale: "Unverifiable superlative.", Replacement: "remarkable"},
		Term{Key: "guaranteed", Forms: []string{"guaranteed", "guarantee", "guarantees"}, Category: "absolute-claim",
			Rationale: "Outcomes cannot be guaranteed.", Replacement: "designed to"},
		Term{Key: "risk-free", Forms: []string{"risk-free", "risk free", "no risk"}, Category: "absolute-claim",
			Rationale: "Nothing is free of risk.", Replacement: "low-risk"},
		Term{Key: "clinically proven", Forms: []string{"clinically proven", "clinically tested", "scientifically proven"},
			Category: "health-claim", Rationale: "Requires documented clinical evidence.", Replacement: "studied"},
		Term{Key: "100% natural", Forms: []string{"100% natural", "all natural", "all-natural"}, Category: "origin-claim",
			Rationale: "Natural origin claims need substantiation.", Replacement: "made with natural ingredients"},
		Term{Key: "instant results", Forms: []string{"instant results", "overnight results"}, Category: "exaggeration",
			Rationale: "Implies unrealistic timing.", Replacement: "visible results over time"},
		Term{Key: "detox", Forms: []string{"detox", "detoxify", "detoxifies"}, Category: "health-claim",
			Rationale: "Detoxification claims are not substantiated.", Replacement: "refresh"},
	)
}
