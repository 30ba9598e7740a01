package models

import "time"

// ModificationHistory is an append-only, field-level audit entry. Rows are
// written once when an existing record changes and never updated or deleted.
type ModificationHistory struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ProjectID uint64 `gorm:"not null;index"`

	TableName_ string `gorm:"column:table_name;type:varchar(50);not null;index"`
	RecordID   uint64 `gorm:"not null;index"`
	FieldName  string `gorm:"type:varchar(50);not null"`

	OldValue string  `gorm:"type:text;not null"`
	NewValue string  `gorm:"type:text;not null"`
	Reason   *string `gorm:"type:text"`

	ModifiedBy string    `gorm:"type:varchar(100);not null"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ModificationHistory) TableName() string {
	return "modification_histories"
}
