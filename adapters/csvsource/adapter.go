// Package csvsource - CSV row input
// Reads the input spreadsheet into rows keyed by header name. Column
// semantics are applied downstream through input.Columns.
package csvsource

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"contract-pricing/core/input"
	"contract-pricing/internal/errors"
)

// Load reads all data rows from a CSV file. The first line is the header;
// a UTF-8 byte order mark on the first header cell is stripped.
func Load(path string) ([]input.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeInput, "opening input CSV "+path, err)
	}
	defer file.Close()
	return Read(file)
}

// Read decodes CSV rows from a reader
func Read(r io.Reader) ([]input.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeParsing, "reading CSV header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []input.Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.TypeParsing, "reading CSV row", err)
		}
		row := make(input.Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
