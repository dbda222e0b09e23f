package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// loadCSV emits one segment per data row. Each row is rendered as
// "header: value" lines so the column names travel with the values.
func loadCSV(source string, content []byte) ([]Segment, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%s: %w", source, ErrDecode)
	}

	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read csv header: %w", source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var segments []Segment
	for row := 0; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read csv row %d: %w", source, row, err)
		}

		segments = append(segments, Segment{
			Text:     formatRow(header, record),
			Source:   source,
			Kind:     KindCSV,
			Unit:     UnitRow,
			Position: row,
		})
	}

	return segments, nil
}

func formatRow(header, record []string) string {
	n := len(header)
	if len(record) > n {
		n = len(record)
	}

	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("column_%d", i+1)
		if i < len(header) && header[i] != "" {
			key = header[i]
		}
		var value string
		if i < len(record) {
			value = strings.TrimSpace(record[i])
		}
		lines = append(lines, key+": "+value)
	}
	return strings.Join(lines, "\n")
}
