package convert

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSVConverter renders CSV files as a Markdown table, first row taken
// as the header.
type CSVConverter struct{}

func (c *CSVConverter) Convert(srcPath string, opts Options) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	headers := records[0]

	var buf strings.Builder
	writeRow := func(cells []string) {
		buf.WriteString("|")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = strings.ReplaceAll(cells[i], "|", "\\|")
			}
			buf.WriteString(" " + cell + " |")
		}
		buf.WriteString("\n")
	}

	writeRow(headers)
	buf.WriteString("|")
	for range headers {
		buf.WriteString(" --- |")
	}
	buf.WriteString("\n")
	for _, row := range records[1:] {
		writeRow(row)
	}

	return buf.String(), nil
}
