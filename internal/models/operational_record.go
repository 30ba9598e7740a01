package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationalRecord is one day's revenue/expense entry for a project.
// Exactly one live row exists per (project_id, record_date); re-submission
// replaces the row and leaves a field-level trail in modification_histories.
type OperationalRecord struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	ProjectID  uint64    `gorm:"not null;uniqueIndex:ux_record_project_date,priority:1"`
	RecordDate time.Time `gorm:"type:date;not null;uniqueIndex:ux_record_project_date,priority:2;index"`

	Revenue decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	// TotalExpenses and Profit are derived server-side; caller-supplied
	// values are never trusted.
	TotalExpenses decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	Profit        decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CustomerCount *int    `gorm:""`
	Note          *string `gorm:"type:text"`

	CreatedBy string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (OperationalRecord) TableName() string {
	return "operational_records"
}

// ExpenseItem is one line of a record's expense breakdown. Items are
// replaced as a set whenever their parent record is re-saved.
type ExpenseItem struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	RecordID uint64 `gorm:"not null;index"`

	Category string          `gorm:"type:varchar(30);not null;index"`
	Amount   decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Description *string `gorm:"type:text"`
	// ReceiptURL is an opaque reference into the file store; never opened here.
	ReceiptURL *string `gorm:"type:varchar(500)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (ExpenseItem) TableName() string {
	return "expense_items"
}

// ExpenseCategories is the closed set of valid expense line categories.
var ExpenseCategories = []string{
	"labor",
	"materials",
	"rent",
	"utilities",
	"marketing",
	"logistics",
	"maintenance",
	"other",
}

func ValidExpenseCategory(category string) bool {
	for _, c := range ExpenseCategories {
		if c == category {
			return true
		}
	}
	return false
}
