package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// contextCheckInterval is how often (in rows) to check for context
// cancellation. Checking every row would be expensive; checking periodically
// balances responsiveness with throughput.
const contextCheckInterval = 100

// utf8BOM is the byte order mark Excel prepends to exported CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is the parsed form of one uploaded CSV file. Header order is
// significant and duplicates are allowed. Rows whose cell count differs from
// the header count are padded (never rejected) and noted in Diagnostics.
type RawTable struct {
	FileName    string          `json:"fileName"`
	Headers     []string        `json:"headers"`
	Rows        [][]string      `json:"rows"`
	Diagnostics []RowDiagnostic `json:"diagnostics,omitempty"`
}

// Parse turns raw CSV text into a RawTable.
//
// The input is expected to be pre-bounded by the caller (the web layer
// enforces the configured file-size cap). Blank lines are dropped, each
// surviving line is tokenized with a quote-aware scanner, and every token is
// trimmed. The first surviving line becomes the header row.
//
// Parse fails with *ParseError when fewer than two non-blank lines remain:
// either there is no header at all, or a header with zero data rows.
func Parse(ctx context.Context, fileName string, data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = sanitizeUTF8(data)

	lines := splitLines(string(data))
	if len(lines) < 2 {
		return nil, &ParseError{Reason: "need a header row and at least one data row"}
	}

	headers := splitLine(lines[0])
	table := &RawTable{
		FileName: fileName,
		Headers:  headers,
		Rows:     make([][]string, 0, len(lines)-1),
	}

	want := len(headers)
	for i, line := range lines[1:] {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row := splitLine(line)
		if len(row) != want {
			table.Diagnostics = append(table.Diagnostics, RowDiagnostic{
				Row:     i,
				Cells:   len(row),
				Want:    want,
				Message: fmt.Sprintf("row %d has %d cells, expected %d", i+1, len(row), want),
			})
			// Pad short rows; long rows keep their extra cells.
			for len(row) < want {
				row = append(row, "")
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// splitLines splits raw text on newlines and drops blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitLine tokenizes a single CSV line. A double quote toggles the
// in-quotes flag; commas split only outside quotes; every token is trimmed.
func splitLine(line string) []string {
	var (
		tokens   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			tokens = append(tokens, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	tokens = append(tokens, strings.TrimSpace(current.String()))

	return tokens
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode
// replacement character so downstream string handling stays well-formed.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
