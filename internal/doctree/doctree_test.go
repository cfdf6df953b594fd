package doctree

import "testing"

func TestParseRender_RoundTrip(t *testing.T) {
	in := `<h2>Title</h2><p>a <strong>b</strong> &amp; <em>c</em><br>d</p><ul><li>x</li></ul>`
	got := Render(MustParse(in))
	if got != in {
		t.Errorf("expected %q, got %q", in, got)
	}
}

func TestParse_KeepsOnlyClass(t *testing.T) {
	root := MustParse(`<p id="x" style="color:red"><span class="hl-violation" data-x="1">cures</span></p>`)
	got := Render(root)
	want := `<p><span class="hl-violation">cures</span></p>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPlainText_NoBlockSeparators(t *testing.T) {
	root := MustParse(`<p>ab</p><ul><li>c<ul><li>d</li></ul></li></ul><h3>é</h3>`)
	if got := PlainText(root); got != "abcdé" {
		t.Errorf("expected %q, got %q", "abcdé", got)
	}
	if got := root.Len(); got != 5 {
		t.Errorf("expected rune length 5, got %d", got)
	}
}

func TestRuns_OffsetsAndBlocks(t *testing.T) {
	root := MustParse(`<p>ab<strong>cd</strong></p><p>éf</p>`)
	runs := Runs(root)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	want := []Run{{Start: 0, End: 2, Block: 0}, {Start: 2, End: 4, Block: 0}, {Start: 4, End: 6, Block: 1}}
	for i, w := range want {
		r := runs[i]
		if r.Start != w.Start || r.End != w.End || r.Block != w.Block {
			t.Errorf("run %d: expected %d-%d block %d, got %d-%d block %d", i, w.Start, w.End, w.Block, r.Start, r.End, r.Block)
		}
	}
}

func TestBlockSpan_NestedList(t *testing.T) {
	root := MustParse(`<ul><li>ab<ul><li>cd</li></ul></li></ul><p>ef</p>`)
	cases := []struct {
		ordinal    int
		start, end int
		tag        string
	}{
		{0, 0, 2, "li"},
		{1, 2, 4, "li"},
		{2, 4, 6, "p"},
	}
	for _, tc := range cases {
		blk, start, end, ok := BlockSpan(root, tc.ordinal)
		if !ok {
			t.Fatalf("block %d not found", tc.ordinal)
		}
		if start != tc.start || end != tc.end || blk.Tag != tc.tag {
			t.Errorf("block %d: expected %s %d-%d, got %s %d-%d", tc.ordinal, tc.tag, tc.start, tc.end, blk.Tag, start, end)
		}
	}
	if _, _, _, ok := BlockSpan(root, 3); ok {
		t.Error("expected no block at ordinal 3")
	}
}

func TestNormalize_MergesRunsAndWrappers(t *testing.T) {
	p := NewElement("p",
		NewText("a"), NewText(""), NewText("b"),
		NewElement("strong", NewText("c")), NewElement("strong", NewText("d")),
		NewMark("e"), NewMark("f"),
	)
	root := NewRoot(p)
	Normalize(root)
	got := Render(root)
	want := `<p>ab<strong>cd</strong><span class="hl-violation">e</span><span class="hl-violation">f</span></p>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	for _, c := range Collect(root, func(*Node) bool { return true }) {
		for _, k := range c.Children {
			if k.Parent != c {
				t.Fatalf("broken parent link under %q", c.Tag)
			}
		}
	}
}

func TestInsert_MovesWithinSameParent(t *testing.T) {
	a, b, c := NewText("a"), NewText("b"), NewText("c")
	p := NewElement("p", a, b, c)
	p.Insert(3, a)
	if got := p.TextContent(); got != "bca" {
		t.Errorf("expected %q, got %q", "bca", got)
	}
}

func TestUnwrapAndWrap(t *testing.T) {
	root := MustParse(`<p>a<em>b<strong>c</strong></em>d</p>`)
	em := Collect(root, func(n *Node) bool { return n.Is("em") })[0]
	em.Unwrap()
	if got := Render(root); got != `<p>ab<strong>c</strong>d</p>` {
		t.Errorf("unexpected unwrap result %q", got)
	}
	first := root.Children[0].Children[0]
	first.Wrap("em")
	if got := Render(root); got != `<p><em>a</em>b<strong>c</strong>d</p>` {
		t.Errorf("unexpected wrap result %q", got)
	}
}

func TestPathAndAt(t *testing.T) {
	root := MustParse(`<p>a</p><ul><li>b<strong>c</strong></li></ul>`)
	runs := TextRuns(root)
	last := runs[len(runs)-1]
	path := last.Path()
	if got := root.At(path); got != last {
		t.Errorf("expected At(%v) to resolve to the run", path)
	}
	if root.At([]int{9}) != nil {
		t.Error("expected nil for an out-of-range path")
	}
}

func TestSplitText_Runes(t *testing.T) {
	p := NewElement("p", NewText("héllo"))
	tail := SplitText(p.Children[0], 2)
	if tail == nil {
		t.Fatal("expected a tail run")
	}
	if p.Children[0].Text != "hé" || tail.Text != "llo" {
		t.Errorf("expected hé|llo, got %s|%s", p.Children[0].Text, tail.Text)
	}
	if SplitText(tail, 0) != nil || SplitText(tail, 3) != nil {
		t.Error("expected no split at run edges")
	}
}

func TestSplitAfter_ClonesInlineAncestors(t *testing.T) {
	root := MustParse(`<p>ab<strong>cd</strong>ef</p>`)
	strongText := Collect(root, func(n *Node) bool { return n.IsText() && n.Text == "cd" })[0]
	p := root.Children[0]
	right := SplitAfter(p, Point{Node: strongText, Offset: 1})
	Prune(root)
	got := Render(root)
	want := `<p>ab<strong>c</strong></p><p><strong>d</strong>ef</p>`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if right != root.Children[1] {
		t.Error("expected the returned clone to follow the original block")
	}
}

func TestComparePoints(t *testing.T) {
	root := MustParse(`<p>ab<br>cd</p><p>ef</p>`)
	p0 := root.Children[0]
	ab, cd := p0.Children[0], p0.Children[2]
	ef := root.Children[1].Children[0]
	ordered := []Point{
		{Node: ab, Offset: 0},
		{Node: ab, Offset: 2},
		{Node: p0, Offset: 2},
		{Node: cd, Offset: 1},
		{Node: ef, Offset: 0},
	}
	for i := 0; i+1 < len(ordered); i++ {
		if ComparePoints(ordered[i], ordered[i+1]) >= 0 {
			t.Errorf("expected point %d before point %d", i, i+1)
		}
		if ComparePoints(ordered[i+1], ordered[i]) <= 0 {
			t.Errorf("expected point %d after point %d", i+1, i)
		}
	}
	if ComparePoints(ordered[1], ordered[1]) != 0 {
		t.Error("expected a point to equal itself")
	}
}

func TestPrune_RemovesEmptyWrappersAndLists(t *testing.T) {
	root := NewRoot(
		NewElement("p", NewText("a"), NewElement("strong", NewElement("em"))),
		NewElement("ul"),
	)
	Prune(root)
	if got := Render(root); got != `<p>a</p>` {
		t.Errorf("expected %q, got %q", `<p>a</p>`, got)
	}
}

func TestPretty_Layout(t *testing.T) {
	root := MustParse(`<p>a <strong>b</strong></p><ul><li>x<ul><li>y</li></ul></li><li>z</li></ul>`)
	got := Pretty(root)
	want := "<p>a <strong>b</strong></p>\n" +
		"<ul>\n" +
		"  <li>x\n" +
		"    <ul>\n" +
		"      <li>y</li>\n" +
		"    </ul>\n" +
		"  </li>\n" +
		"  <li>z</li>\n" +
		"</ul>"
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestPretty_RoundTrip(t *testing.T) {
	cases := []string{
		`<p>plain</p>`,
		`<h2>Head</h2><p>a <em>b</em> c</p>`,
		`<ul><li>one</li><li>two <strong>bold</strong></li></ul>`,
		`<ol><li>a <ul><li>b</li></ul></li></ol><p>tail</p>`,
		`<p>line<br>break</p>`,
	}
	for _, in := range cases {
		root, err := ParsePretty(Pretty(MustParse(in)))
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := Render(root); got != in {
			t.Errorf("round trip of %q gave %q", in, got)
		}
	}
}

func TestUnpretty_KeepsInlineWhitespace(t *testing.T) {
	got := Unpretty("<p>a\n  b</p>\n<p>c</p>")
	if got != "<p>a\n  b</p><p>c</p>" {
		t.Errorf("unexpected %q", got)
	}
}

func TestLines(t *testing.T) {
	root := MustParse(`<p>a<br>b</p><ul><li>c<ul><li>d</li></ul></li></ul>`)
	got := Lines(root)
	want := []string{"a\nb", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
