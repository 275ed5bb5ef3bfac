package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"planrec/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parquet-go/parquet-go"
)

// LoadStats summarizes a Parquet to warehouse load.
type LoadStats struct {
	RowsRead   int64
	RowsCopied int64
	Elapsed    time.Duration
}

// LoadParquet copies every plan in parquetPath into the warehouse table,
// committing once per batch of batchSize rows.
func LoadParquet(ctx context.Context, pool *pgxpool.Pool, parquetPath string, batchSize int, logger *slog.Logger) (LoadStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = 5000
	}
	start := time.Now()

	f, err := os.Open(parquetPath)
	if err != nil {
		return LoadStats{}, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[PlanRow](f)
	defer reader.Close()

	totalRows := reader.NumRows()
	logger.Info("loading catalog", "input", parquetPath, "rows", totalRows)

	if err := pool.Ping(ctx); err != nil {
		return LoadStats{}, fmt.Errorf("ping: %w", err)
	}

	const readBatch = 8192
	buf := make([]PlanRow, readBatch)

	var (
		stats   LoadStats
		pending = make([]db.InsertPlansParams, 0, batchSize)
		lastLog = time.Now()
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		copied, err := copyBatch(ctx, pool, pending)
		if err != nil {
			return err
		}
		stats.RowsCopied += copied
		pending = pending[:0]
		return nil
	}

	for {
		n, readErr := reader.Read(buf)
		for i := 0; i < n; i++ {
			if buf[i].PlanID == "" {
				return stats, fmt.Errorf("row %d: empty plan_id", stats.RowsRead)
			}
			pending = append(pending, buf[i].insertParams())
			stats.RowsRead++

			if len(pending) >= batchSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}

		if time.Since(lastLog) >= 5*time.Second {
			elapsed := time.Since(start).Seconds()
			pct := 0.0
			if totalRows > 0 {
				pct = float64(stats.RowsRead) / float64(totalRows) * 100
			}
			logger.Info("progress", "rows", stats.RowsRead, "total", totalRows,
				"percent", fmt.Sprintf("%.1f", pct), "rows_per_sec", float64(stats.RowsRead)/elapsed)
			lastLog = time.Now()
		}

		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("read parquet: %w", readErr)
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	logger.Info("load done", "rows_read", stats.RowsRead, "rows_copied", stats.RowsCopied,
		"elapsed", stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}

func copyBatch(ctx context.Context, pool *pgxpool.Pool, rows []db.InsertPlansParams) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	copied, err := db.New(pool).WithTx(tx).InsertPlans(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("copy insurance_plans: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return copied, nil
}

// ReadParquet reads every plan row in path.
func ReadParquet(path string) ([]PlanRow, error) {
	rows, err := parquet.ReadFile[PlanRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
