package validate

import (
	"strings"
	"testing"

	"github.com/dgallion1/copyedit/internal/catalog"
)

func catalogOf(forms ...string) *catalog.Catalog {
	var terms []catalog.Term
	for _, f := range forms {
		terms = append(terms, catalog.Term{Key: f, Forms: []string{f}})
	}
	return catalog.New("test", terms...)
}

func TestScan_SingleTerm(t *testing.T) {
	m := MustCompile(catalogOf("cures"))
	vs := m.Scan("This cures everything")
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(vs))
	}
	v := vs[0]
	if v.Key != "cures" || v.Kind != KindTerm {
		t.Errorf("expected term cures, got %s %q", v.Kind, v.Key)
	}
	if v.SpanStart != 5 || v.SpanEnd != 10 {
		t.Errorf("expected span 5-10, got %d-%d", v.SpanStart, v.SpanEnd)
	}
	if got := Counts(vs)["cures"]; got != 1 {
		t.Errorf("expected count 1, got %d", got)
	}
}

func TestScan_LongestMatchWins(t *testing.T) {
	m := MustCompile(catalogOf("heart", "heart disease"))
	vs := m.Scan("prevents heart disease and heart attacks")
	var keys []string
	for _, v := range vs {
		keys = append(keys, v.Key)
	}
	if got := strings.Join(keys, ","); got != "heart disease,heart" {
		t.Errorf("expected heart disease,heart, got %s", got)
	}
}

func TestScan_WordBoundaries(t *testing.T) {
	m := MustCompile(catalogOf("cures"))
	cases := []struct {
		text string
		want int
	}{
		{"procures nothing", 0},
		{"curesé", 0},
		{"cures_x", 0},
		{"it cures, really", 1},
		{"(cures)", 1},
		{"cures cures", 2},
		{"cures", 1},
		{"", 0},
	}
	for _, tc := range cases {
		if got := len(m.Scan(tc.text)); got != tc.want {
			t.Errorf("%q: expected %d matches, got %d", tc.text, tc.want, got)
		}
	}
}

func TestScan_LeadingBoundaryUsesFullText(t *testing.T) {
	cases := []struct {
		form string
		text string
		want int
	}{
		{"#1", "#1#1", 1},
		{"#1", "#1 #1", 2},
		{"-free", "sugar-free", 0},
		{"cafe", "cafe\u0301 au lait", 0},
		{"cafe", "a cafe nearby", 1},
		{"cure", "xcure cure", 1},
	}
	for _, tc := range cases {
		m := MustCompile(catalogOf(tc.form))
		if got := len(m.Scan(tc.text)); got != tc.want {
			t.Errorf("%q in %q: expected %d matches, got %d", tc.form, tc.text, tc.want, got)
		}
	}
}

func TestScan_KeyCollapsesWhitespace(t *testing.T) {
	m := MustCompile(catalogOf("heart disease"))
	vs := m.Scan("Heart  disease and heart\ndisease")
	if len(vs) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(vs))
	}
	for _, v := range vs {
		if v.Key != "heart disease" {
			t.Errorf("expected key heart disease, got %q", v.Key)
		}
	}
	if vs[1].OccurrenceIndex != 1 {
		t.Errorf("expected both matches under one key, got index %d", vs[1].OccurrenceIndex)
	}
	if _, ok := m.Catalog().Lookup(vs[0].Key); !ok {
		t.Errorf("expected key %q to resolve in the catalog", vs[0].Key)
	}
}

func TestScan_CaseInsensitiveKeyLowercased(t *testing.T) {
	m := MustCompile(catalogOf("miracle"))
	vs := m.Scan("A MIRACLE and a Miracle")
	if len(vs) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(vs))
	}
	if vs[0].Key != "miracle" || vs[0].Match != "MIRACLE" {
		t.Errorf("expected key miracle for MIRACLE, got %q/%q", vs[0].Key, vs[0].Match)
	}
	if vs[1].OccurrenceIndex != 1 {
		t.Errorf("expected second occurrence index 1, got %d", vs[1].OccurrenceIndex)
	}
}

func TestScan_RuneOffsets(t *testing.T) {
	m := MustCompile(catalogOf("cures"))
	vs := m.Scan("héllo — cures")
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(vs))
	}
	if vs[0].SpanStart != 8 || vs[0].SpanEnd != 13 {
		t.Errorf("expected rune span 8-13, got %d-%d", vs[0].SpanStart, vs[0].SpanEnd)
	}
}

func TestScan_RegexpMetacharactersAreLiteral(t *testing.T) {
	m := MustCompile(catalogOf("100% natural", "a.b"))
	if got := len(m.Scan("axb is 100% natural")); got != 1 {
		t.Errorf("expected 1 match, got %d", got)
	}
}

func TestCompile_FallsBackToBuiltin(t *testing.T) {
	for _, cat := range []*catalog.Catalog{nil, catalog.New("empty")} {
		m, err := Compile(cat)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		if m.Catalog().Source != "builtin" {
			t.Errorf("expected builtin catalog, got %q", m.Catalog().Source)
		}
		if got := len(m.Scan("a miracle that is guaranteed")); got != 2 {
			t.Errorf("expected 2 builtin matches, got %d", got)
		}
	}
}

func TestMatcher_NilMatchesNothing(t *testing.T) {
	var m *Matcher
	if m.Enabled() {
		t.Error("expected nil matcher to be disabled")
	}
	if vs := m.Scan("cures"); vs != nil {
		t.Errorf("expected no violations, got %d", len(vs))
	}
}

func TestScanMarkupPatterns(t *testing.T) {
	cases := []struct {
		markup string
		want   string
	}{
		{`<p>x<strong>a<strong>b</strong></strong></p>`, "nested-bold"},
		{`<p>x<em>a<em>b</em></em></p>`, "nested-italic"},
		{`<h2><strong>Title</strong></h2>`, "bold-heading"},
		{`<p>a<em> </em>b</p>`, "empty-formatting"},
		{`<p>a<br><br>b</p>`, "stacked-breaks"},
		{`<ul><li></li></ul>`, "empty-list-item"},
		{`<p><strong>all bold</strong></p>`, "bold-paragraph"},
	}
	for _, tc := range cases {
		vs := ScanMarkupPatterns(tc.markup)
		if len(vs) != 1 {
			t.Errorf("%s: expected 1 violation, got %d", tc.markup, len(vs))
			continue
		}
		if vs[0].Key != tc.want || vs[0].Kind != KindPattern {
			t.Errorf("%s: expected %s, got %s", tc.markup, tc.want, vs[0].Key)
		}
	}
}

func TestScanMarkupPatterns_Clean(t *testing.T) {
	if vs := ScanMarkupPatterns(`<h2>Title</h2><p>a <strong>b</strong> c</p><ul><li>x</li></ul>`); len(vs) != 0 {
		t.Errorf("expected no violations, got %+v", vs)
	}
}

func TestScanMarkupPatterns_ByteSpan(t *testing.T) {
	markup := `<p>x<strong>a<strong>b</strong></strong></p>`
	vs := ScanMarkupPatterns(markup)
	if len(vs) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(vs))
	}
	if got := markup[vs[0].SpanStart:vs[0].SpanEnd]; got != "<strong>b</strong>" {
		t.Errorf("expected inner element span, got %q", got)
	}
}

func TestSummarize_Ordering(t *testing.T) {
	m := MustCompile(catalog.Builtin())
	vs := m.Scan("cures and miracle and cures, a miracle, guaranteed")
	vs = append(vs, ScanMarkupPatterns(`<ul><li></li><li></li></ul><p>a<br><br>b</p>`)...)
	chips := Summarize(vs, m)

	want := []struct {
		label string
		count int
		kind  Kind
	}{
		{"cures", 2, KindTerm},
		{"miracle", 2, KindTerm},
		{"guaranteed", 1, KindTerm},
		{"Empty list item", 2, KindPattern},
		{"Stacked line breaks", 1, KindPattern},
	}
	if len(chips) != len(want) {
		t.Fatalf("expected %d chips, got %d: %+v", len(want), len(chips), chips)
	}
	for i, w := range want {
		c := chips[i]
		if c.Label != w.label || c.Count != w.count || c.Kind != w.kind {
			t.Errorf("chip %d: expected %s/%d/%s, got %s/%d/%s", i, w.label, w.count, w.kind, c.Label, c.Count, c.Kind)
		}
	}
	if chips[0].Category != "health-claim" {
		t.Errorf("expected catalog category on term chip, got %q", chips[0].Category)
	}
}
