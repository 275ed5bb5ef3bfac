package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// ConvertStats summarizes a CSV to Parquet conversion.
type ConvertStats struct {
	Rows       int
	InputSize  int64
	OutputSize int64
	Elapsed    time.Duration
}

// ConvertCSV projects every row of a CSV catalog export onto the canonical
// plan schema and writes it to outputPath as Parquet. A row that does not
// project aborts the conversion; the error carries its CSV line number.
func ConvertCSV(inputPath, outputPath string, batchSize int, logger *slog.Logger) (ConvertStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 10000
	}
	start := time.Now()

	reader, err := NewCSVReader(inputPath)
	if err != nil {
		return ConvertStats{}, fmt.Errorf("open CSV: %w", err)
	}
	defer reader.Close()

	writer, err := NewPlanWriter(outputPath)
	if err != nil {
		return ConvertStats{}, fmt.Errorf("create Parquet: %w", err)
	}

	var stats ConvertStats
	if fi, err := os.Stat(inputPath); err == nil {
		stats.InputSize = fi.Size()
	}
	logger.Info("converting catalog", "input", inputPath, "output", outputPath,
		"columns", len(reader.Headers()), "size_mb", float64(stats.InputSize)/1024/1024)

	batch := make([][]any, 0, batchSize)
	firstLine := reader.RowNum() + 1
	lastLog := time.Now()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		plans, err := Project(reader.Headers(), batch, PlanDateFields)
		if err != nil {
			var rerr *RowError
			if errors.As(err, &rerr) {
				return fmt.Errorf("CSV line %d: %w", firstLine+int64(rerr.Row), err)
			}
			return err
		}
		rows := make([]PlanRow, len(plans))
		for i, p := range plans {
			rows[i] = RowFromPlan(p)
		}
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("write Parquet batch: %w", err)
		}
		stats.Rows += len(rows)
		batch = batch[:0]
		firstLine = reader.RowNum() + 1
		return nil
	}

	for {
		row, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			writer.Close()
			return stats, fmt.Errorf("read CSV row %d: %w", reader.RowNum(), err)
		}
		batch = append(batch, row)

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				writer.Close()
				return stats, err
			}
		}

		if time.Since(lastLog) >= 5*time.Second {
			elapsed := time.Since(start).Seconds()
			logger.Info("progress", "csv_rows", reader.RowNum()-1,
				"parquet_rows", stats.Rows, "rows_per_sec", float64(stats.Rows)/elapsed)
			lastLog = time.Now()
		}
	}

	if err := flush(); err != nil {
		writer.Close()
		return stats, err
	}
	if err := writer.Close(); err != nil {
		return stats, fmt.Errorf("close Parquet: %w", err)
	}

	stats.Elapsed = time.Since(start)
	if fi, err := os.Stat(outputPath); err == nil {
		stats.OutputSize = fi.Size()
	}
	logger.Info("conversion done", "rows", stats.Rows,
		"elapsed", stats.Elapsed.Round(time.Millisecond), "output_mb", float64(stats.OutputSize)/1024/1024)
	return stats, nil
}
