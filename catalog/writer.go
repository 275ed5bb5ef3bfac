package catalog

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// PlanWriter writes PlanRow records to a zstd-compressed Parquet file.
// A national catalog is a few tens of thousands of plans, so one row group
// usually holds the whole file.
type PlanWriter struct {
	file   *os.File
	writer *parquet.GenericWriter[PlanRow]
	count  int
}

// NewPlanWriter creates filename and returns a writer for it.
func NewPlanWriter(filename string) (*PlanWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}

	writer := parquet.NewGenericWriter[PlanRow](file,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedDefault}),
		parquet.PageBufferSize(8*1024),
		parquet.DataPageStatistics(true),
		parquet.CreatedBy("planrec", "1.0", ""),
	)

	return &PlanWriter{
		file:   file,
		writer: writer,
	}, nil
}

// Write appends a batch of rows.
func (w *PlanWriter) Write(rows []PlanRow) (int, error) {
	n, err := w.writer.Write(rows)
	w.count += n
	if err != nil {
		return n, fmt.Errorf("write parquet rows: %w", err)
	}
	return n, nil
}

// Close flushes the final row group and closes the file.
func (w *PlanWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

// Count returns the total number of rows written.
func (w *PlanWriter) Count() int {
	return w.count
}
