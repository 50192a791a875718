package processors

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// CSVProcessor emits one Unit per row, formatted "col1: v1 | col2: v2 | ...".
// No pack example repo parses CSV beyond spreadsheet (xlsx) libraries,
// which assume a different container format; encoding/csv is the correct
// tool for a text/csv MIME type and needs no third-party replacement (see
// DESIGN.md).
type CSVProcessor struct{}

// CanProcess reports whether mimeType is CSV.
func (p *CSVProcessor) CanProcess(mimeType string) bool {
	return mimeType == "text/csv"
}

// Process reads all rows, using the first row as column headers when
// present.
func (p *CSVProcessor) Process(ctx context.Context, data []byte) (Result, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return Result{TechnicalMetadata: map[string]string{"rows": "0", "type": "csv"}}, nil
	}

	header := rows[0]
	dataRows := rows[1:]
	units := make([]Unit, 0, len(dataRows))
	var allText strings.Builder

	for i, row := range dataRows {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		text := formatRow(header, row)
		units = append(units, Unit{Key: strconv.Itoa(i), Text: text})
		allText.WriteString(text)
		allText.WriteString("\n")
	}

	return Result{
		RawText: allText.String(),
		Units:   units,
		TechnicalMetadata: map[string]string{
			"rows": strconv.Itoa(len(dataRows)),
			"type": "csv",
		},
	}, nil
}

func formatRow(header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, v := range row {
		col := strconv.Itoa(i)
		if i < len(header) && header[i] != "" {
			col = header[i]
		}
		parts = append(parts, fmt.Sprintf("%s: %s", col, v))
	}
	return strings.Join(parts, " | ")
}
