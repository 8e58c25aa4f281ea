package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders reports as CSV. Summary fields become two-column rows, and each section is
// introduced by a heading row and separated from the next by a blank line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the report.
func (e *CSVExporter) Render(report Report) ([]byte, error) {
	if len(report.Sections) == 0 {
		return nil, fmt.Errorf("csv report requires at least one section")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	write := func(record ...string) error {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
		return nil
	}

	if report.Title != "" {
		if err := write(report.Title); err != nil {
			return nil, err
		}
	}
	for _, f := range report.Summary {
		if err := write(f.Label, f.Value); err != nil {
			return nil, err
		}
	}

	for i, section := range report.Sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("csv section %q requires at least one header", section.Heading)
		}
		if i > 0 || report.Title != "" || len(report.Summary) > 0 {
			if err := write(""); err != nil {
				return nil, err
			}
		}
		if section.Heading != "" {
			if err := write(section.Heading); err != nil {
				return nil, err
			}
		}
		if err := write(section.Data.Headers...); err != nil {
			return nil, err
		}
		for _, row := range section.Data.Rows {
			record := make([]string, len(section.Data.Headers))
			for j, header := range section.Data.Headers {
				record[j] = row[header]
			}
			if err := write(record...); err != nil {
				return nil, err
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
