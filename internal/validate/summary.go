package validate

import "sort"

// Chip is one grouped entry of the violation summary.
type Chip struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
	Kind        Kind   `json:"kind"`
	Category    string `json:"category,omitempty"`
	Replacement string `json:"replacement,omitempty"`
}

// Report is the outcome of one validation pass.
type Report struct {
	Terms    []Violation `json:"terms"`
	Patterns []Violation `json:"patterns"`
	Summary  []Chip      `json:"summary"`
	Disabled bool        `json:"matcher_disabled,omitempty"`
}

// Total counts every violation in the report.
func (r Report) Total() int {
	return len(r.Terms) + len(r.Patterns)
}

// Summarize groups violations by key. Terms come before patterns; within a
// kind, higher counts first, then labels alphabetically. The matcher, when
// given, supplies catalog guidance for term chips.
func Summarize(vs []Violation, m *Matcher) []Chip {
	index := map[Kind]map[string]*Chip{}
	var chips []*Chip
	for _, v := range vs {
		byKey := index[v.Kind]
		if byKey == nil {
			byKey = map[string]*Chip{}
			index[v.Kind] = byKey
		}
		c := byKey[v.Key]
		if c == nil {
			c = &Chip{Key: v.Key, Kind: v.Kind, Label: v.Key}
			switch v.Kind {
			case KindPattern:
				c.Label = RuleLabel(v.Key)
			case KindTerm:
				if t, ok := m.Catalog().Lookup(v.Key); ok {
					c.Category = t.Category
					c.Replacement = t.Replacement
				}
			}
			byKey[v.Key] = c
			chips = append(chips, c)
		}
		c.Count++
	}
	sort.Slice(chips, func(i, j int) bool {
		a, b := chips[i], chips[j]
		if a.Kind != b.Kind {
			return a.Kind == KindTerm
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Label < b.Label
	})
	out := make([]Chip, len(chips))
	for i, c := range chips {
		out[i] = *c
	}
	return out
}
