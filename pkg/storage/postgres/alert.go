package postgres

import (
	"context"
	"fmt"
	"time"

	"streakwatch/internal/quotex/memorystore"

	"gorm.io/gorm/clause"
)

// Record journals a delivered alert.
func (p *PostgresClient) Record(ctx context.Context, a memorystore.Alert) error {
	return p.InsertAlert(ctx, ToAlertRecord(a))
}

func (p *PostgresClient) InsertAlert(ctx context.Context, record *AlertRecord) error {
	tx := p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "asset"},
			{Name: "candle_ts"},
			{Name: "direction"},
		},
		DoNothing: true,
	}).Create(record)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return fmt.Errorf(
			"duplicate alert skipped: asset=%s candle_ts=%d direction=%s",
			record.Asset,
			record.CandleTS,
			record.Direction,
		)
	}

	return nil
}

// ListAlerts returns the newest alerts for an asset, newest first. Used by
// operators and tests.
func (p *PostgresClient) ListAlerts(ctx context.Context, asset string, limit int) ([]AlertRecord, error) {
	var out []AlertRecord
	err := p.DB.WithContext(ctx).
		Where("asset = ?", asset).
		Order("sent_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PostgresClient) DeleteOldAlerts(ctx context.Context, before time.Time) error {
	return p.DB.WithContext(ctx).
		Where("sent_at < ?", before).
		Delete(&AlertRecord{}).Error
}
