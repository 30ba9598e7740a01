package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Projects ---------------------------------------------------------------

func (s *Store) CreateProject(ctx context.Context, item *models.Project) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetProjectByID(ctx context.Context, id uint64) (*models.Project, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Project
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListProjects(ctx context.Context, params repository.ListProjectsParams) ([]models.Project, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Project{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "id")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Project
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountProjects(ctx context.Context, params repository.ListProjectsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Project{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// --- Operational records ----------------------------------------------------

func (s *Store) GetRecordByProjectDate(ctx context.Context, projectID uint64, date time.Time) (*models.OperationalRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.OperationalRecord
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where("record_date = ?", dateOnly(date)).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRecords(ctx context.Context, params repository.ListRecordsParams) ([]models.OperationalRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.OperationalRecord{}).
		Where("project_id = ?", params.ProjectID)
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("record_date >= ?", dateOnly(*params.From))
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("record_date <= ?", dateOnly(*params.To))
	}
	query = applyOrder(query, params.OrderBy, params.Asc, "record_date")
	limit := normalizeLimit(params.Limit, 1000)
	offset := normalizeOffset(params.Offset)
	var items []models.OperationalRecord
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRecords(ctx context.Context, params repository.ListRecordsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.OperationalRecord{}).
		Where("project_id = ?", params.ProjectID)
	if params.From != nil && !params.From.IsZero() {
		query = query.Where("record_date >= ?", dateOnly(*params.From))
	}
	if params.To != nil && !params.To.IsZero() {
		query = query.Where("record_date <= ?", dateOnly(*params.To))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListExpenseItemsByRecordID(ctx context.Context, recordID uint64) ([]models.ExpenseItem, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ExpenseItem
	if err := s.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error {
	if tx == nil || record == nil {
		return nil
	}
	record.RecordDate = dateOnly(record.RecordDate)
	if err := tx.WithContext(ctx).Create(record).Error; err != nil {
		return err
	}
	return insertExpenseItems(ctx, tx, record.ID, items)
}

// UpdateRecordTx replaces the record row and its expense line items as one
// unit. The old item set is removed before the new one is inserted so no
// caller ever observes a mixed set.
func (s *Store) UpdateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error {
	if tx == nil || record == nil || record.ID == 0 {
		return nil
	}
	record.RecordDate = dateOnly(record.RecordDate)
	if err := tx.WithContext(ctx).Save(record).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).
		Where("record_id = ?", record.ID).
		Delete(&models.ExpenseItem{}).Error; err != nil {
		return err
	}
	return insertExpenseItems(ctx, tx, record.ID, items)
}

func insertExpenseItems(ctx context.Context, tx *gorm.DB, recordID uint64, items []models.ExpenseItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].RecordID = recordID
	}
	return tx.WithContext(ctx).Create(&items).Error
}

func (s *Store) ListRecordDates(ctx context.Context, projectID uint64, from, to time.Time) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var dates []time.Time
	if err := s.db.WithContext(ctx).
		Model(&models.OperationalRecord{}).
		Where("project_id = ?", projectID).
		Where("record_date >= ?", dateOnly(from)).
		Where("record_date <= ?", dateOnly(to)).
		Order("record_date asc").
		Distinct().
		Pluck("record_date", &dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}

func (s *Store) CountLossRecords(ctx context.Context, projectID uint64, from, to time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.OperationalRecord{}).
		Where("project_id = ?", projectID).
		Where("record_date >= ?", dateOnly(from)).
		Where("record_date <= ?", dateOnly(to)).
		Where("profit < 0").
		Count(&total).Error
	return total, err
}

func (s *Store) SummarizeRecords(ctx context.Context, projectID uint64, from, to time.Time) (repository.RecordTotals, error) {
	out := repository.RecordTotals{
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		Profit:   decimal.Zero,
	}
	if s == nil || s.db == nil {
		return out, nil
	}
	var row struct {
		Revenue  decimal.Decimal
		Expenses decimal.Decimal
		Profit   decimal.Decimal
		Count    int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.OperationalRecord{}).
		Where("project_id = ?", projectID).
		Where("record_date >= ?", dateOnly(from)).
		Where("record_date <= ?", dateOnly(to)).
		Select(`
			COALESCE(SUM(revenue),0) AS revenue,
			COALESCE(SUM(total_expenses),0) AS expenses,
			COALESCE(SUM(profit),0) AS profit,
			COUNT(*) AS count
		`).
		Scan(&row).Error
	if err != nil {
		return out, err
	}
	out.Revenue = row.Revenue
	out.Expenses = row.Expenses
	out.Profit = row.Profit
	out.Count = row.Count
	return out, nil
}

// --- Modification history ---------------------------------------------------

func (s *Store) InsertModificationHistoryTx(ctx context.Context, tx *gorm.DB, entries []models.ModificationHistory) error {
	if tx == nil || len(entries) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&entries).Error
}

func (s *Store) ListModificationHistory(ctx context.Context, params repository.ListHistoryParams) ([]models.ModificationHistory, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := historyQuery(s.db.WithContext(ctx), params)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.ModificationHistory
	if err := query.Order("created_at desc").Order("id desc").
		Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountModificationHistory(ctx context.Context, params repository.ListHistoryParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := historyQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func historyQuery(db *gorm.DB, params repository.ListHistoryParams) *gorm.DB {
	query := db.Model(&models.ModificationHistory{}).
		Where("project_id = ?", params.ProjectID)
	if params.Table != nil && strings.TrimSpace(*params.Table) != "" {
		query = query.Where("table_name = ?", strings.TrimSpace(*params.Table))
	}
	if params.RecordID != nil && *params.RecordID > 0 {
		query = query.Where("record_id = ?", *params.RecordID)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("created_at <= ?", params.Until.UTC())
	}
	return query
}

// --- Investments & distributions --------------------------------------------

func (s *Store) CreateInvestment(ctx context.Context, item *models.Investment) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetInvestment(ctx context.Context, investorID, projectID uint64) (*models.Investment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Investment
	err := s.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Where("project_id = ?", projectID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateDistribution(ctx context.Context, item *models.Distribution) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SumDistributions(ctx context.Context, investorID, projectID uint64) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var out decimal.Decimal
	err := s.db.WithContext(ctx).
		Model(&models.Distribution{}).
		Where("investor_id = ?", investorID).
		Where("project_id = ?", projectID).
		Select("COALESCE(SUM(amount),0)").
		Scan(&out).Error
	return out, err
}

// --- Performance assessments ------------------------------------------------

func (s *Store) UpsertAssessment(ctx context.Context, item *models.PerformanceAssessment) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "member_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"project_id",
			"professional_score",
			"attitude_score",
			"teamwork_score",
			"communication_score",
			"problem_solving_score",
			"overall_score",
			"assessed_by",
			"comments",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetAssessment(ctx context.Context, memberID uint64, period string) (*models.PerformanceAssessment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PerformanceAssessment
	err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Where("period = ?", period).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAssessmentsByProjectPeriod(ctx context.Context, projectID uint64, period string) ([]models.PerformanceAssessment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PerformanceAssessment
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where("period = ?", period).
		Order("overall_score desc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListAssessmentPeriods(ctx context.Context, projectID uint64) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var periods []string
	if err := s.db.WithContext(ctx).
		Model(&models.PerformanceAssessment{}).
		Where("project_id = ?", projectID).
		Distinct().
		Order("period asc").
		Pluck("period", &periods).Error; err != nil {
		return nil, err
	}
	return periods, nil
}

func (s *Store) ListAssessmentsByMember(ctx context.Context, memberID uint64) ([]models.PerformanceAssessment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.PerformanceAssessment
	if err := s.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("period asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Alert records ----------------------------------------------------------

func (s *Store) InsertAlertRecord(ctx context.Context, item *models.AlertRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) HasOpenAlert(ctx context.Context, projectID uint64, alertType string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.AlertRecord{}).
		Where("project_id = ?", projectID).
		Where("alert_type = ?", alertType).
		Where("resolved = ?", false).
		Count(&total).Error
	return total > 0, err
}

func (s *Store) ListAlertRecords(ctx context.Context, params repository.ListAlertsParams) ([]models.AlertRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := alertQuery(s.db.WithContext(ctx), params)
	limit := normalizeLimit(params.Limit, 100)
	offset := normalizeOffset(params.Offset)
	var items []models.AlertRecord
	if err := query.Order("created_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAlertRecords(ctx context.Context, params repository.ListAlertsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := alertQuery(s.db.WithContext(ctx), params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func alertQuery(db *gorm.DB, params repository.ListAlertsParams) *gorm.DB {
	query := db.Model(&models.AlertRecord{})
	if params.ProjectID != nil && *params.ProjectID > 0 {
		query = query.Where("project_id = ?", *params.ProjectID)
	}
	if params.AlertType != nil && strings.TrimSpace(*params.AlertType) != "" {
		query = query.Where("alert_type = ?", strings.TrimSpace(*params.AlertType))
	}
	if params.Severity != nil && strings.TrimSpace(*params.Severity) != "" {
		query = query.Where("severity = ?", strings.TrimSpace(*params.Severity))
	}
	if params.Unread != nil && *params.Unread {
		query = query.Where("read = ?", false)
	}
	return query
}

func (s *Store) SetAlertRead(ctx context.Context, id uint64, read bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.AlertRecord{}).
		Where("id = ?", id).
		Update("read", read).Error
}

func (s *Store) SetAlertResolved(ctx context.Context, id uint64, resolved bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.AlertRecord{}).
		Where("id = ?", id).
		Update("resolved", resolved).Error
}

// --- helpers ----------------------------------------------------------------

func normalizeLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 5000 {
		return 5000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, def string) *gorm.DB {
	column := strings.TrimSpace(strings.ToLower(orderBy))
	if column == "" {
		column = def
	}
	dir := "desc"
	if asc != nil && *asc {
		dir = "asc"
	}
	return query.Order(column + " " + dir)
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
