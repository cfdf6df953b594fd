package editor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/copyedit/internal/caret"
)

func at(start, block, breaks int) *caret.Position {
	return &caret.Position{Start: start, End: start, StartBlock: block, EndBlock: block, StartBreaks: breaks, EndBreaks: breaks}
}

func TestInput_Operations(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		sel    *caret.Position
		ev     InputEvent
		want   string
		caret  int
	}{
		{"insert text", `<p>ab</p>`, at(1, 0, 0), InputEvent{Type: InsertText, Text: "XY"}, `<p>aXYb</p>`, 3},
		{"insert text into empty document", ``, at(0, -1, 0), InputEvent{Type: InsertText, Text: "hi"}, `<p>hi</p>`, 2},
		{"split paragraph", `<p>hello world</p>`, at(5, 0, 0), InputEvent{Type: InsertParagraph}, `<p>hello</p><p> world</p>`, 5},
		{"split keeps formatting", `<p>a<strong>bc</strong></p>`, at(2, 0, 0), InputEvent{Type: InsertParagraph}, `<p>a<strong>b</strong></p><p><strong>c</strong></p>`, 2},
		{"heading continues as paragraph", `<h2>Title</h2>`, at(5, 0, 0), InputEvent{Type: InsertParagraph}, `<h2>Title</h2><p></p>`, 5},
		{"empty item leaves list", `<ul><li>a</li><li></li></ul>`, at(1, 1, 0), InputEvent{Type: InsertParagraph}, `<ul><li>a</li></ul><p></p>`, 1},
		{"line break", `<p>ab</p>`, at(1, 0, 0), InputEvent{Type: InsertLineBreak}, `<p>a<br>b</p>`, 1},
		{"backspace removes break", `<p>a<br>b</p>`, at(1, 0, 1), InputEvent{Type: DeleteBackward}, `<p>ab</p>`, 1},
		{"backspace removes character", `<p>abc</p>`, at(2, 0, 0), InputEvent{Type: DeleteBackward}, `<p>ac</p>`, 1},
		{"backspace removes grapheme", "<p>ae\u0301</p>", at(3, 0, 0), InputEvent{Type: DeleteBackward}, `<p>a</p>`, 1},
		{"backspace merges blocks", `<p>ab</p><h2>cd</h2>`, at(2, 1, 0), InputEvent{Type: DeleteBackward}, `<p>abcd</p>`, 2},
		{"backspace lifts item", `<ul><li>a</li><li>b</li></ul>`, at(1, 1, 0), InputEvent{Type: DeleteBackward}, `<ul><li>a</li></ul><p>b</p>`, 1},
		{"backspace at document start", `<p>ab</p>`, at(0, 0, 0), InputEvent{Type: DeleteBackward}, `<p>ab</p>`, 0},
		{"delete removes character", `<p>abc</p>`, at(1, 0, 0), InputEvent{Type: DeleteForward}, `<p>ac</p>`, 1},
		{"delete removes break", `<p>a<br>b</p>`, at(1, 0, 0), InputEvent{Type: DeleteForward}, `<p>ab</p>`, 1},
		{"delete merges blocks", `<p>ab</p><p>cd</p>`, at(2, 0, 0), InputEvent{Type: DeleteForward}, `<p>abcd</p>`, 2},
		{"delete at document end", `<p>ab</p>`, at(2, 0, 0), InputEvent{Type: DeleteForward}, `<p>ab</p>`, 2},
		{
			"typing replaces a range across blocks",
			`<p>abc</p><h2>def</h2>`,
			&caret.Position{Start: 1, End: 5, StartBlock: 0, EndBlock: 1},
			InputEvent{Type: InsertText, Text: "X"},
			`<p>aXf</p>`, 2,
		},
		{
			"backspace deletes a range inside one run",
			`<p>abcdef</p>`,
			&caret.Position{Start: 1, End: 4, StartBlock: 0, EndBlock: 0},
			InputEvent{Type: DeleteBackward},
			`<p>aef</p>`, 1,
		},
		{
			"range across list items joins them",
			`<ul><li>one</li><li>two</li><li>six</li></ul>`,
			&caret.Position{Start: 2, End: 7, StartBlock: 0, EndBlock: 2},
			InputEvent{Type: DeleteForward},
			`<ul><li>onix</li></ul>`, 2,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t, tc.markup)
			require.NoError(t, e.SetSelection(tc.sel))
			require.NoError(t, e.Input(tc.ev))
			require.Equal(t, tc.want, e.Markup())
			sel := e.Selection()
			require.NotNil(t, sel)
			require.Equal(t, tc.caret, sel.Start)
			require.True(t, sel.Collapsed())
		})
	}
}

func TestInput_LineBreakCaretFollowsBreak(t *testing.T) {
	e := newEngine(t, `<p>ab</p>`)
	require.NoError(t, e.SetSelection(at(2, 0, 0)))
	require.NoError(t, e.Input(InputEvent{Type: InsertLineBreak}))
	require.NoError(t, e.Input(InputEvent{Type: InsertText, Text: "c"}))
	require.Equal(t, `<p>ab<br>c</p>`, e.Markup())
}

func TestInput_UnknownType(t *testing.T) {
	e := newEngine(t, `<p>ab</p>`)
	require.ErrorIs(t, e.Input(InputEvent{Type: "insert_emoji"}), ErrUnknownInput)
	require.Equal(t, `<p>ab</p>`, e.Markup())
}

func TestInput_DoesNotCommit(t *testing.T) {
	e := newEngine(t, `<p>ab</p>`)
	require.NoError(t, e.Input(InputEvent{Type: InsertText, Text: "c"}))
	require.False(t, e.CanUndo())
}

func TestReplaceContent_KeepsEmptyParagraphs(t *testing.T) {
	e := newEngine(t, `<p>a</p>`)
	require.NoError(t, e.ReplaceContent(`<p>a</p><p></p><p>b  <span class="hl-violation">x</span></p>`, at(1, 1, 0)))
	require.Equal(t, `<p>a</p><p></p><p>b x</p>`, e.Markup())
	require.Equal(t, `<p>a</p><p>b x</p>`, e.Content())
	sel := e.Selection()
	require.Equal(t, 1, sel.Start)
	require.Equal(t, 1, sel.StartBlock)
}
