package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"opsmonitor/internal/models"
)

// Repository is the typed persistence port for the analytics core. The
// services depend only on this interface; the gorm implementation lives
// in repository/gorm.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Projects
	CreateProject(ctx context.Context, item *models.Project) error
	GetProjectByID(ctx context.Context, id uint64) (*models.Project, error)
	ListProjects(ctx context.Context, params ListProjectsParams) ([]models.Project, error)
	CountProjects(ctx context.Context, params ListProjectsParams) (int64, error)

	// Operational records + expense line items
	GetRecordByProjectDate(ctx context.Context, projectID uint64, date time.Time) (*models.OperationalRecord, error)
	ListRecords(ctx context.Context, params ListRecordsParams) ([]models.OperationalRecord, error)
	CountRecords(ctx context.Context, params ListRecordsParams) (int64, error)
	ListExpenseItemsByRecordID(ctx context.Context, recordID uint64) ([]models.ExpenseItem, error)
	CreateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error
	UpdateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error
	ListRecordDates(ctx context.Context, projectID uint64, from, to time.Time) ([]time.Time, error)
	CountLossRecords(ctx context.Context, projectID uint64, from, to time.Time) (int64, error)
	SummarizeRecords(ctx context.Context, projectID uint64, from, to time.Time) (RecordTotals, error)

	// Modification history (append-only)
	InsertModificationHistoryTx(ctx context.Context, tx *gorm.DB, entries []models.ModificationHistory) error
	ListModificationHistory(ctx context.Context, params ListHistoryParams) ([]models.ModificationHistory, error)
	CountModificationHistory(ctx context.Context, params ListHistoryParams) (int64, error)

	// Investments & distributions
	CreateInvestment(ctx context.Context, item *models.Investment) error
	GetInvestment(ctx context.Context, investorID, projectID uint64) (*models.Investment, error)
	CreateDistribution(ctx context.Context, item *models.Distribution) error
	SumDistributions(ctx context.Context, investorID, projectID uint64) (decimal.Decimal, error)

	// Performance assessments
	UpsertAssessment(ctx context.Context, item *models.PerformanceAssessment) error
	GetAssessment(ctx context.Context, memberID uint64, period string) (*models.PerformanceAssessment, error)
	ListAssessmentsByProjectPeriod(ctx context.Context, projectID uint64, period string) ([]models.PerformanceAssessment, error)
	ListAssessmentPeriods(ctx context.Context, projectID uint64) ([]string, error)
	ListAssessmentsByMember(ctx context.Context, memberID uint64) ([]models.PerformanceAssessment, error)

	// Alert records (sweep output; the sink owns read/resolve state)
	InsertAlertRecord(ctx context.Context, item *models.AlertRecord) error
	HasOpenAlert(ctx context.Context, projectID uint64, alertType string) (bool, error)
	ListAlertRecords(ctx context.Context, params ListAlertsParams) ([]models.AlertRecord, error)
	CountAlertRecords(ctx context.Context, params ListAlertsParams) (int64, error)
	SetAlertRead(ctx context.Context, id uint64, read bool) error
	SetAlertResolved(ctx context.Context, id uint64, resolved bool) error
}

// RecordTotals is a range aggregate over operational records. Totals are
// zero (never null) when the range is empty.
type RecordTotals struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Profit   decimal.Decimal
	Count    int64
}

type ListProjectsParams struct {
	Limit   int
	Offset  int
	Status  *string
	OrderBy string
	Asc     *bool
}

type ListRecordsParams struct {
	ProjectID uint64
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
	OrderBy   string
	Asc       *bool
}

type ListHistoryParams struct {
	ProjectID uint64
	Table     *string
	RecordID  *uint64
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

type ListAlertsParams struct {
	ProjectID *uint64
	AlertType *string
	Severity  *string
	Unread    *bool
	Limit     int
	Offset    int
}
