package exports

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"pickstation/infrastructure/audit"
	"pickstation/infrastructure/sqlite"
	"pickstation/infrastructure/timeutil"
	"pickstation/models"
)

func recordExportRun(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, run *models.ExportRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(run).Exec(ctx); err != nil {
			return err
		}
		if auditSvc == nil {
			return nil
		}
		return auditSvc.Write(ctx, tx, audit.ActionExport, "picklist", run.Picklist, nil, map[string]any{
			"mode":      run.Mode,
			"file_name": run.FileName,
			"rows":      run.RowCount,
		})
	})
}

// LoadRecentRuns returns the newest export runs, newest first.
func LoadRecentRuns(ctx context.Context, db *sqlite.DB, limit int) ([]models.ExportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := make([]models.ExportRun, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&runs).OrderExpr("er.id DESC").Limit(limit).Scan(ctx)
	})
	return runs, err
}

func toRunRows(runs []models.ExportRun) []RunRow {
	out := make([]RunRow, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunRow{
			Picklist:  r.Picklist,
			Mode:      r.Mode,
			FileName:  r.FileName,
			ByteSize:  r.ByteSize,
			RowCount:  r.RowCount,
			CreatedAt: r.CreatedAt.In(timeutil.WIB).Format("02/01/2006 15:04"),
		})
	}
	return out
}
