package importer

import (
	"bufio"
	"io"
	"strings"
)

// TextConverter handles plain text files. Blank lines separate paragraphs;
// single newlines inside a paragraph become line breaks.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs [][]string
	var current []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	var buf strings.Builder
	for _, para := range paragraphs {
		buf.WriteString("<p>")
		for i, line := range para {
			if i > 0 {
				buf.WriteString("<br>")
			}
			buf.WriteString(escape(line))
		}
		buf.WriteString("</p>")
	}
	return &Document{Title: baseTitle(filename), Format: "text", Markup: buf.String()}, nil
}
