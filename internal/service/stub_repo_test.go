package service

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface; date filtering and ordering mirror the
// gorm store closely enough for the service tests.
type stubRepo struct {
	nextID        uint64
	projects      map[uint64]models.Project
	records       []models.OperationalRecord
	expenseItems  map[uint64][]models.ExpenseItem
	history       []models.ModificationHistory
	investments   []models.Investment
	distributions []models.Distribution
	assessments   []models.PerformanceAssessment
	alerts        []models.AlertRecord
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		projects:     map[uint64]models.Project{},
		expenseItems: map[uint64][]models.ExpenseItem{},
	}
}

func (s *stubRepo) id() uint64 {
	s.nextID++
	return s.nextID
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) CreateProject(ctx context.Context, item *models.Project) error {
	if item.ID == 0 {
		item.ID = s.id()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.projects[item.ID] = *item
	return nil
}

func (s *stubRepo) GetProjectByID(ctx context.Context, id uint64) (*models.Project, error) {
	if p, ok := s.projects[id]; ok {
		out := p
		return &out, nil
	}
	return nil, nil
}

func (s *stubRepo) ListProjects(ctx context.Context, params repository.ListProjectsParams) ([]models.Project, error) {
	ids := make([]uint64, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []models.Project{}
	for _, id := range ids {
		p := s.projects[id]
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		out = append(out, p)
	}
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []models.Project{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountProjects(ctx context.Context, params repository.ListProjectsParams) (int64, error) {
	var n int64
	for _, p := range s.projects {
		if params.Status != nil && p.Status != *params.Status {
			continue
		}
		n++
	}
	return n, nil
}

func (s *stubRepo) GetRecordByProjectDate(ctx context.Context, projectID uint64, date time.Time) (*models.OperationalRecord, error) {
	for _, rec := range s.records {
		if rec.ProjectID == projectID && dayKey(rec.RecordDate) == dayKey(date) {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListRecords(ctx context.Context, params repository.ListRecordsParams) ([]models.OperationalRecord, error) {
	out := []models.OperationalRecord{}
	for _, rec := range s.records {
		if rec.ProjectID != params.ProjectID {
			continue
		}
		if params.From != nil && rec.RecordDate.Before(params.From.UTC().Truncate(24*time.Hour)) {
			continue
		}
		if params.To != nil && rec.RecordDate.After(params.To.UTC()) {
			continue
		}
		out = append(out, rec)
	}
	asc := params.Asc == nil || *params.Asc
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].RecordDate.Before(out[j].RecordDate)
		}
		return out[j].RecordDate.Before(out[i].RecordDate)
	})
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []models.OperationalRecord{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountRecords(ctx context.Context, params repository.ListRecordsParams) (int64, error) {
	params.Limit = 0
	params.Offset = 0
	recs, err := s.ListRecords(ctx, params)
	return int64(len(recs)), err
}

func (s *stubRepo) ListExpenseItemsByRecordID(ctx context.Context, recordID uint64) ([]models.ExpenseItem, error) {
	return s.expenseItems[recordID], nil
}

func (s *stubRepo) CreateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error {
	if record.ID == 0 {
		record.ID = s.id()
	}
	s.records = append(s.records, *record)
	stored := make([]models.ExpenseItem, 0, len(items))
	for _, item := range items {
		item.ID = s.id()
		item.RecordID = record.ID
		stored = append(stored, item)
	}
	s.expenseItems[record.ID] = stored
	return nil
}

func (s *stubRepo) UpdateRecordTx(ctx context.Context, tx *gorm.DB, record *models.OperationalRecord, items []models.ExpenseItem) error {
	for i, rec := range s.records {
		if rec.ID == record.ID {
			s.records[i] = *record
			break
		}
	}
	stored := make([]models.ExpenseItem, 0, len(items))
	for _, item := range items {
		item.ID = s.id()
		item.RecordID = record.ID
		stored = append(stored, item)
	}
	s.expenseItems[record.ID] = stored
	return nil
}

func (s *stubRepo) ListRecordDates(ctx context.Context, projectID uint64, from, to time.Time) ([]time.Time, error) {
	recs, err := s.ListRecords(ctx, repository.ListRecordsParams{ProjectID: projectID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.RecordDate)
	}
	return out, nil
}

func (s *stubRepo) CountLossRecords(ctx context.Context, projectID uint64, from, to time.Time) (int64, error) {
	recs, err := s.ListRecords(ctx, repository.ListRecordsParams{ProjectID: projectID, From: &from, To: &to})
	if err != nil {
		return 0, err
	}
	var n int64
	for _, rec := range recs {
		if rec.Profit.IsNegative() {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) SummarizeRecords(ctx context.Context, projectID uint64, from, to time.Time) (repository.RecordTotals, error) {
	totals := repository.RecordTotals{
		Revenue:  decimal.Zero,
		Expenses: decimal.Zero,
		Profit:   decimal.Zero,
	}
	recs, err := s.ListRecords(ctx, repository.ListRecordsParams{ProjectID: projectID, From: &from, To: &to})
	if err != nil {
		return totals, err
	}
	for _, rec := range recs {
		totals.Revenue = totals.Revenue.Add(rec.Revenue)
		totals.Expenses = totals.Expenses.Add(rec.TotalExpenses)
		totals.Profit = totals.Profit.Add(rec.Profit)
		totals.Count++
	}
	return totals, nil
}

func (s *stubRepo) InsertModificationHistoryTx(ctx context.Context, tx *gorm.DB, entries []models.ModificationHistory) error {
	for _, entry := range entries {
		entry.ID = s.id()
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		s.history = append(s.history, entry)
	}
	return nil
}

func (s *stubRepo) matchHistory(entry models.ModificationHistory, params repository.ListHistoryParams) bool {
	if entry.ProjectID != params.ProjectID {
		return false
	}
	if params.Table != nil && entry.TableName_ != *params.Table {
		return false
	}
	if params.RecordID != nil && entry.RecordID != *params.RecordID {
		return false
	}
	if params.Since != nil && entry.CreatedAt.Before(*params.Since) {
		return false
	}
	if params.Until != nil && entry.CreatedAt.After(*params.Until) {
		return false
	}
	return true
}

func (s *stubRepo) ListModificationHistory(ctx context.Context, params repository.ListHistoryParams) ([]models.ModificationHistory, error) {
	out := []models.ModificationHistory{}
	for _, entry := range s.history {
		if s.matchHistory(entry, params) {
			out = append(out, entry)
		}
	}
	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []models.ModificationHistory{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out, nil
}

func (s *stubRepo) CountModificationHistory(ctx context.Context, params repository.ListHistoryParams) (int64, error) {
	var n int64
	for _, entry := range s.history {
		if s.matchHistory(entry, params) {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) CreateInvestment(ctx context.Context, item *models.Investment) error {
	if item.ID == 0 {
		item.ID = s.id()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.investments = append(s.investments, *item)
	return nil
}

func (s *stubRepo) GetInvestment(ctx context.Context, investorID, projectID uint64) (*models.Investment, error) {
	for _, inv := range s.investments {
		if inv.InvestorID == investorID && inv.ProjectID == projectID {
			out := inv
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) CreateDistribution(ctx context.Context, item *models.Distribution) error {
	if item.ID == 0 {
		item.ID = s.id()
	}
	s.distributions = append(s.distributions, *item)
	return nil
}

func (s *stubRepo) SumDistributions(ctx context.Context, investorID, projectID uint64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, dist := range s.distributions {
		if dist.InvestorID == investorID && dist.ProjectID == projectID {
			total = total.Add(dist.Amount)
		}
	}
	return total, nil
}

func (s *stubRepo) UpsertAssessment(ctx context.Context, item *models.PerformanceAssessment) error {
	for i, existing := range s.assessments {
		if existing.MemberID == item.MemberID && existing.Period == item.Period {
			item.ID = existing.ID
			item.CreatedAt = existing.CreatedAt
			s.assessments[i] = *item
			return nil
		}
	}
	if item.ID == 0 {
		item.ID = s.id()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.assessments = append(s.assessments, *item)
	return nil
}

func (s *stubRepo) GetAssessment(ctx context.Context, memberID uint64, period string) (*models.PerformanceAssessment, error) {
	for _, a := range s.assessments {
		if a.MemberID == memberID && a.Period == period {
			out := a
			return &out, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListAssessmentsByProjectPeriod(ctx context.Context, projectID uint64, period string) ([]models.PerformanceAssessment, error) {
	out := []models.PerformanceAssessment{}
	for _, a := range s.assessments {
		if a.ProjectID == projectID && a.Period == period {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OverallScore > out[j].OverallScore })
	return out, nil
}

func (s *stubRepo) ListAssessmentPeriods(ctx context.Context, projectID uint64) ([]string, error) {
	seen := map[string]struct{}{}
	out := []string{}
	for _, a := range s.assessments {
		if a.ProjectID != projectID {
			continue
		}
		if _, ok := seen[a.Period]; ok {
			continue
		}
		seen[a.Period] = struct{}{}
		out = append(out, a.Period)
	}
	sort.Strings(out)
	return out, nil
}

func (s *stubRepo) ListAssessmentsByMember(ctx context.Context, memberID uint64) ([]models.PerformanceAssessment, error) {
	out := []models.PerformanceAssessment{}
	for _, a := range s.assessments {
		if a.MemberID == memberID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (s *stubRepo) InsertAlertRecord(ctx context.Context, item *models.AlertRecord) error {
	if item.ID == 0 {
		item.ID = s.id()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.alerts = append(s.alerts, *item)
	return nil
}

func (s *stubRepo) HasOpenAlert(ctx context.Context, projectID uint64, alertType string) (bool, error) {
	for _, alert := range s.alerts {
		if alert.ProjectID == projectID && alert.AlertType == alertType && !alert.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) ListAlertRecords(ctx context.Context, params repository.ListAlertsParams) ([]models.AlertRecord, error) {
	out := []models.AlertRecord{}
	for _, alert := range s.alerts {
		if params.ProjectID != nil && alert.ProjectID != *params.ProjectID {
			continue
		}
		if params.AlertType != nil && alert.AlertType != *params.AlertType {
			continue
		}
		if params.Severity != nil && alert.Severity != *params.Severity {
			continue
		}
		if params.Unread != nil && *params.Unread && alert.Read {
			continue
		}
		out = append(out, alert)
	}
	return out, nil
}

func (s *stubRepo) CountAlertRecords(ctx context.Context, params repository.ListAlertsParams) (int64, error) {
	items, err := s.ListAlertRecords(ctx, params)
	return int64(len(items)), err
}

func (s *stubRepo) SetAlertRead(ctx context.Context, id uint64, read bool) error {
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Read = read
		}
	}
	return nil
}

func (s *stubRepo) SetAlertResolved(ctx context.Context, id uint64, resolved bool) error {
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Resolved = resolved
		}
	}
	return nil
}
