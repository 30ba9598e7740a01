package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AlertTypeLossWarning       = "loss-warning"
	AlertTypeCapabilityWarning = "capability-warning"
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlertRecord is a persisted copy of a computed alert, written by the
// periodic sweep so the notification sink has a durable queue. On-demand
// alert endpoints always recompute and never read from this table.
type AlertRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ProjectID uint64 `gorm:"not null;index"`

	AlertType string `gorm:"type:varchar(30);not null;index"`
	Severity  string `gorm:"type:varchar(10);not null;index"`

	Title   string `gorm:"type:varchar(200);not null"`
	Message string `gorm:"type:text;not null"`

	ThresholdValue float64 `gorm:"type:numeric(30,10);not null"`
	ActualValue    float64 `gorm:"type:numeric(30,10);not null"`

	Context datatypes.JSON `gorm:"type:jsonb"`

	Read     bool `gorm:"not null;default:false;index"`
	Resolved bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (AlertRecord) TableName() string {
	return "alert_records"
}
