// Package validate finds forbidden terms in the plain-text projection and
// structural anti-patterns in canonical markup.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/copyedit/internal/catalog"
)

// Kind separates catalog hits from markup anti-patterns; the two are shown
// with different severities.
type Kind string

const (
	KindTerm    Kind = "term"
	KindPattern Kind = "pattern"
)

// Violation is one match. Term spans are rune offsets into the projection;
// pattern spans are byte offsets into the markup.
type Violation struct {
	Kind            Kind   `json:"kind"`
	Key             string `json:"key"`
	Match           string `json:"match"`
	OccurrenceIndex int    `json:"occurrence_index"`
	SpanStart       int    `json:"span_start"`
	SpanEnd         int    `json:"span_end"`
}

// Matcher is a compiled term alternation. The zero value and a nil Matcher
// match nothing.
type Matcher struct {
	re      *regexp.Regexp
	forms   []string
	catalog *catalog.Catalog
}

// wordChar is the class of characters that may not touch either side of a
// match. isWordRune is the same class for the leading side, which is checked
// against the full text.
const wordChar = `\p{L}\p{M}\p{N}_`

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r)
}

// Compile builds one case-insensitive matcher from every distinct surface
// form in cat, longest form first so that a multi-word term wins over a word
// it contains. An empty or nil catalog compiles the built-in list instead.
func Compile(cat *catalog.Catalog) (*Matcher, error) {
	if cat.Empty() {
		cat = catalog.Builtin()
	}
	forms := cat.Forms()
	sort.SliceStable(forms, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(forms[i]), utf8.RuneCountInString(forms[j])
		if li != lj {
			return li > lj
		}
		return forms[i] < forms[j]
	})
	alts := make([]string, len(forms))
	for i, f := range forms {
		alts[i] = spaceRun.ReplaceAllString(regexp.QuoteMeta(f), `\s+`)
	}
	expr := `(?i)(` + strings.Join(alts, "|") + `)(?:[^` + wordChar + `]|$)`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile term matcher (%d forms): %w", len(forms), err)
	}
	return &Matcher{re: re, forms: forms, catalog: cat}, nil
}

// spaceRun matches the whitespace inside a quoted multi-word form.
var spaceRun = regexp.MustCompile(`(?:\\ |\s)+`)

// MustCompile is Compile for catalogs known to be valid, such as the
// built-in list.
func MustCompile(cat *catalog.Catalog) *Matcher {
	m, err := Compile(cat)
	if err != nil {
		panic(err)
	}
	return m
}

// Enabled reports whether the matcher can produce violations.
func (m *Matcher) Enabled() bool {
	return m != nil && m.re != nil
}

// Forms returns the compiled forms in match-priority order.
func (m *Matcher) Forms() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.forms...)
}

// Catalog returns the catalog the matcher was compiled from.
func (m *Matcher) Catalog() *catalog.Catalog {
	if m == nil {
		return nil
	}
	return m.catalog
}

// Scan finds every non-overlapping match in one left-to-right pass. Each
// violation is keyed by the matched form lowercased with its whitespace
// collapsed, and numbered within its key.
func (m *Matcher) Scan(text string) []Violation {
	if !m.Enabled() {
		return nil
	}
	var (
		out     []Violation
		counts  = map[string]int{}
		pos     int
		runePos int
		runeAt  int
	)
	for pos <= len(text) {
		loc := m.re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[2], pos+loc[3]
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && isWordRune(r) {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + max(size, 1)
			continue
		}
		runePos += utf8.RuneCountInString(text[runeAt:start])
		runeStart := runePos
		runePos += utf8.RuneCountInString(text[start:end])
		runeAt = end

		match := text[start:end]
		key := termKey(match)
		out = append(out, Violation{
			Kind:            KindTerm,
			Key:             key,
			Match:           match,
			OccurrenceIndex: counts[key],
			SpanStart:       runeStart,
			SpanEnd:         runePos,
		})
		counts[key]++
		// The trailing boundary character may open the next match.
		pos = end
	}
	return out
}

func termKey(match string) string {
	return strings.ToLower(strings.Join(strings.Fields(match), " "))
}

// Counts aggregates violations per key.
func Counts(vs []Violation) map[string]int {
	out := map[string]int{}
	for _, v := range vs {
		out[v.Key]++
	}
	return out
}
