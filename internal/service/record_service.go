package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"opsmonitor/internal/config"
	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

// trackedFields are the record columns diffed into modification history on
// re-save.
var trackedFields = []string{"revenue", "total_expenses"}

type RecordService struct {
	Repo    repository.Repository
	Logger  *zap.Logger
	Anomaly config.AnomalyConfig
}

// Validate checks one incoming entry. Errors block the write; warnings
// (overwrite notice, statistical anomalies) never do.
func (s *RecordService) Validate(ctx context.Context, projectID uint64, input RecordInput) (ValidationResult, error) {
	result := ValidationResult{Errors: []FieldError{}, Warnings: []FieldWarning{}}

	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return result, err
	}
	if project == nil {
		result.Errors = append(result.Errors, FieldError{
			Field:   "project_id",
			Code:    "project_not_found",
			Message: fmt.Sprintf("project %d does not exist", projectID),
			Value:   fmt.Sprint(projectID),
		})
		return result, nil
	}

	result.Errors = append(result.Errors, validateStructure(input)...)
	if len(result.Errors) > 0 {
		return result, nil
	}
	result.Valid = true

	existing, err := s.Repo.GetRecordByProjectDate(ctx, projectID, input.Date)
	if err != nil {
		return result, err
	}
	if existing != nil {
		result.Warnings = append(result.Warnings, FieldWarning{
			Field:      "date",
			Message:    fmt.Sprintf("a record already exists for %s and will be overwritten", input.Date.Format("2006-01-02")),
			Suggestion: "export the existing record first if you need to retain it",
		})
	}

	anomalies, err := s.detectAnomalies(ctx, projectID, input)
	if err != nil {
		return result, err
	}
	result.Warnings = append(result.Warnings, anomalies...)
	return result, nil
}

// validateStructure is pure and collects every violation, not just the first.
func validateStructure(input RecordInput) []FieldError {
	var errs []FieldError
	if input.Date.IsZero() {
		errs = append(errs, FieldError{
			Field:   "date",
			Code:    "date_required",
			Message: "record date is required",
		})
	}
	if input.Revenue.IsNegative() {
		errs = append(errs, FieldError{
			Field:   "revenue",
			Code:    "revenue_negative",
			Message: "revenue must not be negative",
			Value:   input.Revenue.String(),
		})
	}
	for i, item := range input.Expenses {
		if !models.ValidExpenseCategory(item.Category) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("expenses[%d].category", i),
				Code:    "category_unknown",
				Message: "unknown expense category",
				Value:   item.Category,
			})
		}
		if item.Amount.IsNegative() {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("expenses[%d].amount", i),
				Code:    "amount_negative",
				Message: "expense amount must not be negative",
				Value:   item.Amount.String(),
			})
		}
	}
	return errs
}

// detectAnomalies compares the entry against a trailing baseline window.
// Fewer than MinBaselineRecords historical records means no signal, not an
// error.
func (s *RecordService) detectAnomalies(ctx context.Context, projectID uint64, input RecordInput) ([]FieldWarning, error) {
	baselineDays := s.Anomaly.BaselineDays
	if baselineDays <= 0 {
		baselineDays = 30
	}
	minRecords := s.Anomaly.MinBaselineRecords
	if minRecords <= 0 {
		minRecords = 7
	}
	deviationPct := s.Anomaly.DeviationPct
	if deviationPct <= 0 {
		deviationPct = 50
	}
	dominance := s.Anomaly.DominanceRatio
	if dominance <= 0 {
		dominance = 0.7
	}

	from := input.Date.AddDate(0, 0, -baselineDays)
	to := input.Date.AddDate(0, 0, -1)
	history, err := s.Repo.ListRecords(ctx, repository.ListRecordsParams{
		ProjectID: projectID,
		From:      &from,
		To:        &to,
		Limit:     baselineDays,
		OrderBy:   "record_date",
		Asc:       boolPtr(true),
	})
	if err != nil {
		return nil, err
	}
	if len(history) < minRecords {
		return nil, nil
	}

	var warnings []FieldWarning
	n := decimal.NewFromInt(int64(len(history)))
	sumRevenue := decimal.Zero
	sumExpenses := decimal.Zero
	for _, rec := range history {
		sumRevenue = sumRevenue.Add(rec.Revenue)
		sumExpenses = sumExpenses.Add(rec.TotalExpenses)
	}
	meanRevenue := sumRevenue.Div(n)
	meanExpenses := sumExpenses.Div(n)

	if dev, ok := deviation(input.Revenue, meanRevenue); ok && dev > deviationPct {
		warnings = append(warnings, FieldWarning{
			Field: "revenue",
			Message: fmt.Sprintf("revenue %s deviates %.1f%% from the %d-day mean %s",
				input.Revenue.StringFixed(2), dev, baselineDays, meanRevenue.StringFixed(2)),
			Suggestion: "verify the entry before saving",
		})
	}

	totalExpenses := sumExpenseItems(input.Expenses)
	if dev, ok := deviation(totalExpenses, meanExpenses); ok && dev > deviationPct {
		warnings = append(warnings, FieldWarning{
			Field: "expenses",
			Message: fmt.Sprintf("total expenses %s deviate %.1f%% from the %d-day mean %s",
				totalExpenses.StringFixed(2), dev, baselineDays, meanExpenses.StringFixed(2)),
			Suggestion: "verify the entry before saving",
		})
	}

	if totalExpenses.IsPositive() {
		for i, item := range input.Expenses {
			share, _ := item.Amount.Div(totalExpenses).Float64()
			if share > dominance {
				warnings = append(warnings, FieldWarning{
					Field: fmt.Sprintf("expenses[%d]", i),
					Message: fmt.Sprintf("category %q accounts for %.0f%% of the day's spend",
						item.Category, share*100),
					Suggestion: "check whether the amount belongs to a single category",
				})
			}
		}
	}
	return warnings, nil
}

// deviation returns |value-mean|/mean*100. A zero mean yields no signal.
func deviation(value, mean decimal.Decimal) (float64, bool) {
	if mean.IsZero() {
		return 0, false
	}
	dev := value.Sub(mean).Abs().Div(mean.Abs()).Mul(decimal.NewFromInt(100))
	out, _ := dev.Float64()
	return out, true
}

func sumExpenseItems(items []ExpenseItemInput) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

// Save validates and persists an entry. Updates to an existing (project,
// date) row diff the tracked fields into modification history before the
// record and its expense items are replaced; the whole write is one
// transaction, so a failed step leaves no partial state.
func (s *RecordService) Save(ctx context.Context, projectID uint64, input RecordInput, actorID string, reason *string) (SaveResult, error) {
	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return SaveResult{}, err
	}
	if project == nil {
		return SaveResult{}, notFound("project", projectID)
	}
	if errs := validateStructure(input); len(errs) > 0 {
		return SaveResult{}, &ValidationError{Errors: errs}
	}

	totalExpenses := sumExpenseItems(input.Expenses)
	profit := input.Revenue.Sub(totalExpenses)

	existing, err := s.Repo.GetRecordByProjectDate(ctx, projectID, input.Date)
	if err != nil {
		return SaveResult{}, err
	}

	items := make([]models.ExpenseItem, 0, len(input.Expenses))
	for _, in := range input.Expenses {
		items = append(items, models.ExpenseItem{
			Category:    in.Category,
			Amount:      in.Amount,
			Description: in.Description,
			ReceiptURL:  in.ReceiptURL,
		})
	}

	result := SaveResult{}
	err = s.Repo.InTx(ctx, func(tx *gorm.DB) error {
		if existing == nil {
			record := &models.OperationalRecord{
				ProjectID:     projectID,
				RecordDate:    input.Date,
				Revenue:       input.Revenue,
				TotalExpenses: totalExpenses,
				Profit:        profit,
				CustomerCount: input.CustomerCount,
				Note:          input.Note,
				CreatedBy:     actorID,
			}
			if err := s.Repo.CreateRecordTx(ctx, tx, record, items); err != nil {
				return err
			}
			result.RecordID = record.ID
			result.Created = true
			return nil
		}

		entries := diffTrackedFields(existing, input.Revenue, totalExpenses, actorID, reason)
		if err := s.Repo.InsertModificationHistoryTx(ctx, tx, entries); err != nil {
			return err
		}
		result.HistoryCount = len(entries)

		updated := *existing
		updated.Revenue = input.Revenue
		updated.TotalExpenses = totalExpenses
		updated.Profit = profit
		updated.CustomerCount = input.CustomerCount
		updated.Note = input.Note
		if err := s.Repo.UpdateRecordTx(ctx, tx, &updated, items); err != nil {
			return err
		}
		result.RecordID = updated.ID
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("operational record saved",
			zap.Uint64("project_id", projectID),
			zap.String("date", input.Date.Format("2006-01-02")),
			zap.Bool("created", result.Created),
			zap.Int("history_entries", result.HistoryCount),
		)
	}
	return result, nil
}

// diffTrackedFields emits one history entry per changed tracked field.
// Resubmitting identical values yields none.
func diffTrackedFields(existing *models.OperationalRecord, revenue, totalExpenses decimal.Decimal, actorID string, reason *string) []models.ModificationHistory {
	var entries []models.ModificationHistory
	appendEntry := func(field string, oldVal, newVal decimal.Decimal) {
		if oldVal.Equal(newVal) {
			return
		}
		entries = append(entries, models.ModificationHistory{
			ProjectID:  existing.ProjectID,
			TableName_: models.OperationalRecord{}.TableName(),
			RecordID:   existing.ID,
			FieldName:  field,
			OldValue:   oldVal.String(),
			NewValue:   newVal.String(),
			Reason:     reason,
			ModifiedBy: actorID,
		})
	}
	appendEntry(trackedFields[0], existing.Revenue, revenue)
	appendEntry(trackedFields[1], existing.TotalExpenses, totalExpenses)
	return entries
}

// ModificationHistory lists audit entries newest first.
func (s *RecordService) ModificationHistory(ctx context.Context, projectID uint64, params repository.ListHistoryParams) ([]models.ModificationHistory, int64, error) {
	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	if project == nil {
		return nil, 0, notFound("project", projectID)
	}
	params.ProjectID = projectID
	items, err := s.Repo.ListModificationHistory(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountModificationHistory(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IntegrityReport lists the missing days explicitly so the caller can
// prompt for backfill.
func (s *RecordService) IntegrityReport(ctx context.Context, projectID uint64, from, to time.Time) (IntegrityReport, error) {
	report := IntegrityReport{ProjectID: projectID, MissingDays: []string{}}

	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return report, err
	}
	if project == nil {
		return report, notFound("project", projectID)
	}
	if from.IsZero() || to.IsZero() {
		return report, invalidRange("both range bounds are required")
	}
	from = truncateDay(from)
	to = truncateDay(to)
	if from.After(to) {
		return report, invalidRange("range start is after range end")
	}

	report.TotalDays = int(to.Sub(from).Hours()/24) + 1

	dates, err := s.Repo.ListRecordDates(ctx, projectID, from, to)
	if err != nil {
		return report, err
	}
	recorded := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		recorded[d.UTC().Format("2006-01-02")] = struct{}{}
	}
	report.RecordedDays = len(recorded)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if _, ok := recorded[key]; !ok {
			report.MissingDays = append(report.MissingDays, key)
		}
	}

	report.StructuralAnomalyCount, err = s.Repo.CountLossRecords(ctx, projectID, from, to)
	if err != nil {
		return report, err
	}

	if report.TotalDays > 0 {
		report.CompletenessRate = round2(float64(report.RecordedDays) / float64(report.TotalDays) * 100)
	}
	return report, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func boolPtr(v bool) *bool { return &v }
