package editor

import (
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dgallion1/copyedit/internal/doctree"
)

// WordsPerMinute is the reading speed behind EstimatedReadingMinutes.
const WordsPerMinute = 200

// Stats are counters derived from the plain-text projection.
type Stats struct {
	CharacterCount          int `json:"character_count"`
	WordCount               int `json:"word_count"`
	EstimatedReadingMinutes int `json:"estimated_reading_minutes"`
}

// Stats counts user-perceived characters and whitespace-separated words.
// Block boundaries separate words even though the projection has no
// character there.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsLocked()
}

func (e *Engine) statsLocked() Stats {
	tree := e.root
	if e.mode == ModeRaw {
		tree = e.rawTree()
	}
	return Compute(tree)
}

// Compute derives Stats from a document tree.
func Compute(root *doctree.Node) Stats {
	words := 0
	for _, line := range doctree.Lines(root) {
		words += len(strings.Fields(line))
	}
	return Stats{
		CharacterCount:          uniseg.GraphemeClusterCount(doctree.PlainText(root)),
		WordCount:               words,
		EstimatedReadingMinutes: (words + WordsPerMinute - 1) / WordsPerMinute,
	}
}
