package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"type:varchar(200);not null"`
	Status string `gorm:"type:varchar(20);not null;default:'active';index"`

	// FundingTarget is the project's total funding goal; it anchors the
	// profit-loss rate and investor share ratios.
	FundingTarget    decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	CurrentValuation decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}
