package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark if present.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(len(utf8BOM))
	if err == nil && bytes.Equal(peeked, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	return br
}

// decode returns a UTF-8 reader over data. Spanish pharmacy software commonly
// exports Windows-1252, so anything that is not valid UTF-8 is decoded as such.
func decode(data []byte) io.Reader {
	r := skipBOM(bytes.NewReader(data))
	if utf8.Valid(data) {
		return r
	}

	return transform.NewReader(r, charmap.Windows1252.NewDecoder())
}

// sniffDelimiter picks the most frequent candidate separator on the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{';', ',', '\t', '|'} {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

func readCSV(data []byte) (*Table, error) {
	if !utf8.Valid(data) && bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("binary content is not a delimited text table")
	}

	reader := csv.NewReader(decode(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	return build(records), nil
}
