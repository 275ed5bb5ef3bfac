package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// CSVReader streams a plan catalog export. The first row holds the column
// names in any convention the projector understands ("PlanId", "PLAN_ID",
// "plan_id"); every following row is one plan.
type CSVReader struct {
	file    *os.File
	csv     *csv.Reader
	rowNum  int64
	headers []string
}

func NewCSVReader(filepath string) (*CSVReader, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath, err)
	}

	bufReader := bufio.NewReaderSize(file, 256*1024)

	// Skip UTF-8 BOM if present
	bom, err := bufReader.Peek(3)
	if err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	r := &CSVReader{file: file, csv: reader}

	r.headers, err = reader.Read()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}
	r.rowNum++
	for i, h := range r.headers {
		r.headers[i] = strings.TrimSpace(h)
	}

	return r, nil
}

// Headers returns the trimmed column names.
func (r *CSVReader) Headers() []string { return r.headers }

// RowNum returns the 1-based line of the last row read, header included.
func (r *CSVReader) RowNum() int64 { return r.rowNum }

// Next returns the next row padded or truncated to the header width. Empty
// cells come back as nil. It returns io.EOF after the last row.
func (r *CSVReader) Next() ([]any, error) {
	record, err := r.csv.Read()
	if err != nil {
		return nil, err
	}
	r.rowNum++

	row := make([]any, len(r.headers))
	for i := range row {
		if i >= len(record) {
			continue
		}
		v := strings.TrimSpace(record[i])
		if v == "" {
			continue
		}
		row[i] = v
	}
	return row, nil
}

func (r *CSVReader) Close() error {
	return r.file.Close()
}
