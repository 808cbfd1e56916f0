// Package dataimport implements the contact import pipeline: delimited-text
// parsing, header-to-field mapping, row normalization and validation,
// duplicate detection against the live contact set, and conflict resolution.
// Everything here is pure and in-memory; persistence happens in the service
// layer at commit time.
package dataimport

import (
	"errors"
	"strings"
)

// ErrMalformedInput is returned when parsing leaves fewer than one header
// row plus one data row.
var ErrMalformedInput = errors.New("malformed input: need a header row and at least one data row")

// RawTable is the rectangular grid of string cells produced by parsing,
// before any semantic interpretation. Every row has exactly len(Headers)
// cells.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ParseTable scans raw delimited text into a RawTable. Quoted fields may
// contain the delimiter, embedded newlines and doubled quotes ("" decodes to
// a literal quote). Any newline convention is accepted. Short rows are
// right-padded with empty cells and long rows are truncated to header
// length; both are deliberate lossy policies surfaced to the operator, not
// defects. Rows whose cells are all empty are dropped.
func ParseTable(text string, delim rune) (*RawTable, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var rows [][]string
	var row []string
	var field strings.Builder
	inQuotes := false
	fieldStarted := false

	endField := func() {
		row = append(row, field.String())
		field.Reset()
		fieldStarted = false
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if inQuotes {
			if ch == '"' {
				if i+1 < len(runes) && runes[i+1] == '"' {
					field.WriteRune('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteRune(ch)
			continue
		}

		switch {
		case ch == '"' && !fieldStarted:
			inQuotes = true
			fieldStarted = true
		case ch == delim:
			endField()
		case ch == '\n':
			endRow()
		default:
			field.WriteRune(ch)
			fieldStarted = true
		}
	}
	// A trailing field or row with no terminating newline is still emitted.
	if fieldStarted || field.Len() > 0 || len(row) > 0 {
		endRow()
	}

	kept := rows[:0]
	for _, r := range rows {
		if !rowIsEmpty(r) {
			kept = append(kept, r)
		}
	}
	if len(kept) < 2 {
		return nil, ErrMalformedInput
	}

	headers := kept[0]
	data := make([][]string, 0, len(kept)-1)
	for _, r := range kept[1:] {
		data = append(data, fitToWidth(r, len(headers)))
	}

	return &RawTable{Headers: headers, Rows: data}, nil
}

// Serialize renders the table back to delimited text, quoting any cell that
// contains the delimiter, a quote or a newline.
func (t *RawTable) Serialize(delim rune) string {
	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteRune(delim)
			}
			if strings.ContainsAny(cell, string(delim)+"\"\n") {
				b.WriteString(`"` + strings.ReplaceAll(cell, `"`, `""`) + `"`)
			} else {
				b.WriteString(cell)
			}
		}
		b.WriteString("\n")
	}
	writeRow(t.Headers)
	for _, r := range t.Rows {
		writeRow(r)
	}
	return b.String()
}

func rowIsEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func fitToWidth(cells []string, width int) []string {
	if len(cells) > width {
		return cells[:width]
	}
	for len(cells) < width {
		cells = append(cells, "")
	}
	return cells
}
