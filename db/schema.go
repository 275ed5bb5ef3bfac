package db

import (
	"context"
	_ "embed"
)

//go:embed sql/schema.sql
var Schema string

// InitSchema creates the patients and insurance_plans tables if missing.
func InitSchema(ctx context.Context, conn DBTX) error {
	_, err := conn.Exec(ctx, Schema)
	return err
}
