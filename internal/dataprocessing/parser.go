package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExpectedFieldCount is the number of fields every record of a sales extract
// must carry, header included.
const ExpectedFieldCount = 7

var errEmptyFile = errors.New("file has no header row")

// ParseResult is the outcome of parsing one file. Exactly one of Table and
// Err is meaningful: a failed file carries the reason in Err.
type ParseResult struct {
	Path  string
	Table Table
	Err   error
}

// OK reports whether the file parsed.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// ParseFile reads a comma-delimited sales extract. Any failure is returned in
// the result rather than as an error so one bad file cannot stop a run.
func ParseFile(path string) ParseResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ParseResult{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	table, err := ParseBytes(data)
	if err != nil {
		return ParseResult{Path: path, Err: err}
	}
	return ParseResult{Path: path, Table: table}
}

// ParseBytes decodes data as UTF-8 text (a leading byte order mark is
// dropped) and parses it as CSV with exactly seven fields per record. The
// first record becomes the column names.
func ParseBytes(data []byte) (Table, error) {
	text, err := decodeText(data)
	if err != nil {
		return Table{}, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = ExpectedFieldCount

	var table Table
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if header {
			table.Columns = record
			header = false
			continue
		}
		table.Rows = append(table.Rows, record)
		table.Lines = append(table.Lines, line)
	}

	if header {
		return Table{}, errEmptyFile
	}
	return table, nil
}

// decodeText strips a byte order mark and rejects content that is not valid
// UTF-8. UTF-16 input announced by a BOM is transcoded.
func decodeText(data []byte) ([]byte, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if !utf8.Valid(decoded) {
		return nil, errors.New("decode: content is not valid UTF-8")
	}
	return decoded, nil
}
