package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
)

// DOCXConverter handles .docx files. Heading styles map to heading tags and
// bold or italic runs keep their emphasis; everything else is a paragraph.
type DOCXConverter struct{}

func (c *DOCXConverter) Convert(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Document{Title: baseTitle(filename), Format: "docx"}
	var buf strings.Builder
	titled := false
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		inner := docxParagraphHTML(para)
		if strings.TrimSpace(inner) == "" {
			continue
		}
		tag := "p"
		if level := docxHeadingLevel(para); level > 0 {
			tag = fmt.Sprintf("h%d", level)
			if level == 1 && !titled {
				out.Title = docxParagraphText(para)
				titled = true
			}
		}
		buf.WriteString("<" + tag + ">" + inner + "</" + tag + ">")
	}
	out.Markup = buf.String()
	return out, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if len(style) == len("heading1") && strings.HasPrefix(style, "heading") {
		if d := style[len(style)-1]; d >= '1' && d <= '6' {
			return int(d - '0')
		}
	}
	return 0
}

// docxParagraphHTML renders the runs of para, wrapping bold and italic runs.
func docxParagraphHTML(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		t := runText(run)
		if t == "" {
			continue
		}
		t = escape(t)
		if props := run.RunProperties; props != nil {
			if props.Italic != nil {
				t = "<em>" + t + "</em>"
			}
			if props.Bold != nil {
				t = "<strong>" + t + "</strong>"
			}
		}
		buf.WriteString(t)
	}
	return buf.String()
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			buf.WriteString(runText(run))
		}
	}
	return strings.TrimSpace(buf.String())
}

func runText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		if t, ok := rc.(*docx.Text); ok {
			buf.WriteString(t.Text)
		}
	}
	return buf.String()
}
