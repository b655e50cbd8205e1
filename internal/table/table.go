// Package table reads the raw spreadsheet a pharmacy exports into a header row and string cells.
package table

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/farmastock/internal/domain"
)

// Table is a raw tabular dataset: one header row and the data rows beneath it.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the value at row r, column c, or "" when the row is short.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}

	return t.Rows[r][c]
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Read parses data as an XLSX workbook (first sheet) or a delimited text file.
// The name is only used as a format hint and for error messages.
func Read(name string, data []byte) (*Table, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrUnreadableTable, name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	var (
		t   *Table
		err error
	)
	switch {
	case bytes.HasPrefix(data, zipMagic) || ext == ".xlsx" || ext == ".xlsm":
		t, err = readXLSX(data)
	default:
		t, err = readCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUnreadableTable, name, err)
	}
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", domain.ErrUnreadableTable, name)
	}

	return t, nil
}

// build trims headers, drops blank rows and pads every row to the header width.
func build(records [][]string) *Table {
	t := &Table{}
	for len(records) > 0 && isBlank(records[0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return t
	}

	for _, h := range records[0] {
		t.Headers = append(t.Headers, strings.TrimSpace(h))
	}
	for len(t.Headers) > 0 && t.Headers[len(t.Headers)-1] == "" {
		t.Headers = t.Headers[:len(t.Headers)-1]
	}

	width := len(t.Headers)
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		row := make([]string, width)
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}

	return t
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}

	return true
}
