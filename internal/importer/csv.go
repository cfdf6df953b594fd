package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/copyedit/internal/doctree"
)

// csvBatchSize is how many data rows share one section.
const csvBatchSize = 20

// CSVConverter handles CSV files. The first row holds the headers; data rows
// are grouped into sections of csvBatchSize, one list item per row.
type CSVConverter struct{}

func (c *CSVConverter) Convert(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	out := &Document{Title: baseTitle(filename), Format: "csv"}
	if len(records) == 0 {
		return out, nil
	}

	headers := records[0]
	dataRows := records[1:]

	var buf strings.Builder
	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		fmt.Fprintf(&buf, "<h3>Rows %d-%d</h3><ul>", i+2, end+1)
		for _, row := range dataRows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cell = headers[j] + ": " + cell
				}
				cells = append(cells, cell)
			}
			buf.WriteString("<li>" + escape(strings.Join(cells, ", ")) + "</li>")
		}
		buf.WriteString("</ul>")
	}
	out.Markup = buf.String()
	return out, nil
}

func escape(s string) string { return doctree.EscapeText(s) }
