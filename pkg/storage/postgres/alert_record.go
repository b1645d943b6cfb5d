package postgres

import (
	"time"

	"streakwatch/internal/quotex/memorystore"
)

// AlertRecord is one delivered streak alert. The table is an audit trail only;
// the monitor never reads it back.
type AlertRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Asset     string `gorm:"type:text;not null;index:idx_alert_asset;index:idx_asset_candle_direction,unique"`
	CandleTS  int64  `gorm:"not null;index:idx_asset_candle_direction,unique"`
	Direction string `gorm:"type:varchar(8);not null;index:idx_asset_candle_direction,unique"`

	Message string    `gorm:"type:text;not null"`
	SentAt  time.Time `gorm:"not null;index:idx_alert_sent_at"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (AlertRecord) TableName() string {
	return "alert_record"
}

// ToAlertRecord converts a delivered alert into a row.
func ToAlertRecord(a memorystore.Alert) *AlertRecord {
	return &AlertRecord{
		Asset:     a.Asset,
		CandleTS:  a.CandleTS,
		Direction: a.Direction.String(),
		Message:   a.Message,
		SentAt:    a.SentAt.UTC(),
	}
}
