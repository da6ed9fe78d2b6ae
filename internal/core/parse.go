package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseResult is a fully parsed CSV.
type ParseResult struct {
	Headers []string
	Rows    []RowData

	// DuplicateHeaders lists header names that occur more than once. For
	// those columns the right-most value wins in every row; this is a
	// known limitation, surfaced so callers can warn the uploader.
	DuplicateHeaders []string
}

// ParseCSV turns raw CSV bytes into headers and header-keyed rows.
//
// The first non-blank record is the header row; header names are trimmed.
// Empty lines are skipped. Short rows yield null cells for the missing
// trailing headers and long rows drop the extra fields. Any malformed
// field fails the whole parse with a *ParseError listing every issue
// found (up to a cap), and no partial result is returned.
func ParseCSV(data []byte) (*ParseResult, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	data = bytes.ToValidUTF8(data, []byte("\uFFFD"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = false

	var (
		result  ParseResult
		issues  []ParseIssue
		header  bool
		headers []string
	)

	for len(issues) < maxParseIssues {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			issues = append(issues, ParseIssue{
				Line:    perr.Line,
				Column:  perr.Column,
				Message: perr.Err.Error(),
			})
			header = true
			continue
		}

		if isEmptyLine(record) {
			continue
		}

		if !header {
			header = true
			headers = trimHeaders(record)
			result.DuplicateHeaders = duplicates(headers)
			continue
		}

		result.Rows = append(result.Rows, buildRow(headers, record))
	}

	if len(issues) > 0 {
		return nil, &ParseError{Issues: issues}
	}
	if !header {
		return nil, &ParseError{Issues: []ParseIssue{{Line: 1, Message: "missing header row"}}}
	}

	result.Headers = headers
	if result.Rows == nil {
		result.Rows = []RowData{}
	}
	return &result, nil
}

// buildRow keys record by headers. Missing trailing fields become null
// unless a duplicate header already supplied a value.
func buildRow(headers, record []string) RowData {
	row := make(RowData, len(headers))
	for i, h := range headers {
		if i < len(record) {
			row[h] = StringCell(record[i])
			continue
		}
		if _, ok := row[h]; !ok {
			row[h] = NullCell()
		}
	}
	return row
}

func trimHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

// duplicates returns each repeated header once, in first-seen order.
func duplicates(headers []string) []string {
	seen := make(map[string]int, len(headers))
	var dups []string
	for _, h := range headers {
		seen[h]++
		if seen[h] == 2 {
			dups = append(dups, h)
		}
	}
	return dups
}

// isEmptyLine reports a line with no content at all. Rows of blank or
// whitespace cells such as "," are data and are kept.
func isEmptyLine(record []string) bool {
	return len(record) == 1 && record[0] == ""
}
