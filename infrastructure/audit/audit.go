package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"pickstation/infrastructure/sqlite"
	"pickstation/models"
)

// Actions journaled by the station.
const (
	ActionPhotoUpload        = "product.photo_upload"
	ActionExtraBarcodeAdd    = "product.extra_barcode_add"
	ActionExtraBarcodeDelete = "product.extra_barcode_delete"
	ActionExport             = "picklist.export"
)

// Service writes station audit records.
type Service struct {
	db        *sqlite.DB
	stationID string
}

func NewService(db *sqlite.DB, stationID string) *Service {
	return &Service{db: db, stationID: stationID}
}

// Write inserts one record inside the caller transaction.
func (s *Service) Write(ctx context.Context, tx bun.Tx, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	log := &models.AuditLog{
		StationID:  s.stationID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = tx.NewInsert().Model(log).Exec(ctx)
	return err
}

// Record writes one record in its own transaction. Backend mutations happen
// outside the journal, so most callers have no transaction to share.
func (s *Service) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return s.Write(ctx, tx, action, entityType, entityID, before, after)
	})
	if err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// Recent returns the newest records for an entity, newest first.
func (s *Service) Recent(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().
			Model(&logs).
			Where("entity_type = ?", entityType).
			Where("entity_id = ?", entityID).
			OrderExpr("id DESC").
			Limit(limit).
			Scan(ctx)
	})
	return logs, err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
