package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is the join between an investor and a project. One row per
// pair; its CreatedAt anchors the ROI holding period.
type Investment struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	InvestorID uint64 `gorm:"not null;uniqueIndex:ux_investment_investor_project,priority:1"`
	ProjectID  uint64 `gorm:"not null;uniqueIndex:ux_investment_investor_project,priority:2;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Investment) TableName() string {
	return "investments"
}

// Distribution is a payout from a project to an investor.
type Distribution struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	InvestorID uint64 `gorm:"not null;index:idx_distribution_investor_project,priority:1"`
	ProjectID  uint64 `gorm:"not null;index:idx_distribution_investor_project,priority:2"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	DistributedAt time.Time `gorm:"type:timestamptz;not null"`
	CreatedAt     time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Distribution) TableName() string {
	return "distributions"
}
