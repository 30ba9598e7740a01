package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"opsmonitor/internal/config"
	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

func seedProject(repo *stubRepo, fundingTarget string) uint64 {
	target, _ := decimal.NewFromString(fundingTarget)
	project := &models.Project{
		Name:             "test project",
		Status:           "active",
		FundingTarget:    target,
		CurrentValuation: target,
	}
	_ = repo.CreateProject(context.Background(), project)
	return project.ID
}

func seedRecord(repo *stubRepo, projectID uint64, date time.Time, revenue, expenses string) {
	rev, _ := decimal.NewFromString(revenue)
	exp, _ := decimal.NewFromString(expenses)
	_ = repo.CreateRecordTx(context.Background(), nil, &models.OperationalRecord{
		ProjectID:     projectID,
		RecordDate:    date,
		Revenue:       rev,
		TotalExpenses: exp,
		Profit:        rev.Sub(exp),
		CreatedBy:     "seed",
	}, nil)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func newRecordService(repo *stubRepo) *RecordService {
	return &RecordService{
		Repo: repo,
		Anomaly: config.AnomalyConfig{
			BaselineDays:       30,
			MinBaselineRecords: 7,
			DeviationPct:       50,
			DominanceRatio:     0.7,
		},
	}
}

func TestValidateStructureCollectsAllErrors(t *testing.T) {
	input := RecordInput{
		Revenue: decimal.NewFromInt(-5),
		Expenses: []ExpenseItemInput{
			{Category: "labor", Amount: decimal.NewFromInt(-1)},
			{Category: "snacks", Amount: decimal.NewFromInt(10)},
		},
	}
	errs := validateStructure(input)
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors (date, revenue, amount, category), got %d: %#v", len(errs), errs)
	}
	codes := map[string]bool{}
	for _, e := range errs {
		codes[e.Code] = true
	}
	for _, want := range []string{"date_required", "revenue_negative", "amount_negative", "category_unknown"} {
		if !codes[want] {
			t.Fatalf("missing error code %s in %#v", want, errs)
		}
	}
}

func TestValidateProjectNotFound(t *testing.T) {
	svc := newRecordService(newStubRepo())
	result, err := svc.Validate(context.Background(), 42, RecordInput{Date: day("2026-01-10")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != "project_not_found" {
		t.Fatalf("expected single project_not_found error, got %#v", result.Errors)
	}
}

func TestValidateOverwriteWarning(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	seedRecord(repo, projectID, day("2026-01-10"), "500", "300")

	svc := newRecordService(repo)
	result, err := svc.Validate(context.Background(), projectID, RecordInput{
		Date:    day("2026-01-10"),
		Revenue: decimal.NewFromInt(600),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result, got errors %#v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected overwrite warning, got %#v", result.Warnings)
	}
}

func TestValidateAnomalyNeedsBaseline(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	// 6 records, below the 7-record minimum: spikes stay silent.
	for i := 1; i <= 6; i++ {
		seedRecord(repo, projectID, day("2026-01-01").AddDate(0, 0, i), "100", "50")
	}

	svc := newRecordService(repo)
	result, err := svc.Validate(context.Background(), projectID, RecordInput{
		Date:    day("2026-01-10"),
		Revenue: decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings below baseline minimum, got %#v", result.Warnings)
	}

	// One more record crosses the minimum and the spike now warns.
	seedRecord(repo, projectID, day("2026-01-08"), "100", "50")
	result, err = svc.Validate(context.Background(), projectID, RecordInput{
		Date:    day("2026-01-10"),
		Revenue: decimal.NewFromInt(100000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) == 0 {
		t.Fatalf("expected revenue anomaly warning")
	}
	if result.Warnings[0].Field != "revenue" {
		t.Fatalf("expected revenue warning, got %#v", result.Warnings[0])
	}
	if !result.Valid {
		t.Fatalf("anomaly warnings must not invalidate the record")
	}
}

func TestValidateDominantCategoryWarning(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	for i := 1; i <= 8; i++ {
		seedRecord(repo, projectID, day("2026-01-01").AddDate(0, 0, i), "100", "80")
	}

	svc := newRecordService(repo)
	result, err := svc.Validate(context.Background(), projectID, RecordInput{
		Date:    day("2026-01-15"),
		Revenue: decimal.NewFromInt(100),
		Expenses: []ExpenseItemInput{
			{Category: "labor", Amount: decimal.NewFromInt(75)},
			{Category: "rent", Amount: decimal.NewFromInt(5)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, w := range result.Warnings {
		if w.Field == "expenses[0]" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected dominance warning on expenses[0], got %#v", result.Warnings)
	}
}

func TestDeviationZeroMean(t *testing.T) {
	if _, ok := deviation(decimal.NewFromInt(100), decimal.Zero); ok {
		t.Fatalf("zero mean must yield no signal")
	}
	dev, ok := deviation(decimal.NewFromInt(150), decimal.NewFromInt(100))
	if !ok || dev != 50 {
		t.Fatalf("expected 50%% deviation, got %v ok=%v", dev, ok)
	}
}

func TestSaveCreateThenUpdateWritesHistory(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	svc := newRecordService(repo)

	input := RecordInput{
		Date:    day("2026-02-01"),
		Revenue: decimal.NewFromInt(1000),
		Expenses: []ExpenseItemInput{
			{Category: "labor", Amount: decimal.NewFromInt(400)},
		},
	}
	created, err := svc.Save(context.Background(), projectID, input, "alice", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created.Created || created.HistoryCount != 0 {
		t.Fatalf("first save must create with no history, got %#v", created)
	}

	// Changed revenue and expenses: two tracked fields, two entries.
	input.Revenue = decimal.NewFromInt(1200)
	input.Expenses = []ExpenseItemInput{{Category: "labor", Amount: decimal.NewFromInt(500)}}
	reason := "corrected till totals"
	updated, err := svc.Save(context.Background(), projectID, input, "bob", &reason)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Created {
		t.Fatalf("second save must update")
	}
	if updated.HistoryCount != 2 {
		t.Fatalf("expected 2 history entries, got %d", updated.HistoryCount)
	}
	if updated.RecordID != created.RecordID {
		t.Fatalf("update must keep the record id")
	}

	entries, total, err := svc.ModificationHistory(context.Background(), projectID, repository.ListHistoryParams{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 stored entries, got total=%d len=%d", total, len(entries))
	}
	for _, entry := range entries {
		if entry.ModifiedBy != "bob" {
			t.Fatalf("history must carry the actor, got %q", entry.ModifiedBy)
		}
		if entry.Reason == nil || *entry.Reason != reason {
			t.Fatalf("history must carry the reason")
		}
	}

	// Identical resave: no new entries.
	same, err := svc.Save(context.Background(), projectID, input, "bob", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same.HistoryCount != 0 {
		t.Fatalf("identical resave must not write history, got %d", same.HistoryCount)
	}
}

func TestSaveRejectsStructuralErrors(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	svc := newRecordService(repo)

	_, err := svc.Save(context.Background(), projectID, RecordInput{
		Date:    day("2026-02-01"),
		Revenue: decimal.NewFromInt(-1),
	}, "alice", nil)
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("rejected save must not persist")
	}
}

func TestIntegrityReport(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	// 10-day range, 8 recorded days, one of them a loss.
	for i := 0; i < 7; i++ {
		seedRecord(repo, projectID, day("2026-03-01").AddDate(0, 0, i), "100", "50")
	}
	seedRecord(repo, projectID, day("2026-03-08"), "10", "90")

	svc := newRecordService(repo)
	report, err := svc.IntegrityReport(context.Background(), projectID, day("2026-03-01"), day("2026-03-10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalDays != 10 {
		t.Fatalf("expected 10 total days, got %d", report.TotalDays)
	}
	if report.RecordedDays != 8 {
		t.Fatalf("expected 8 recorded days, got %d", report.RecordedDays)
	}
	if len(report.MissingDays) != 2 {
		t.Fatalf("expected 2 missing days, got %v", report.MissingDays)
	}
	if report.MissingDays[0] != "2026-03-09" || report.MissingDays[1] != "2026-03-10" {
		t.Fatalf("unexpected missing days %v", report.MissingDays)
	}
	if report.CompletenessRate != 80 {
		t.Fatalf("expected 80%% completeness, got %v", report.CompletenessRate)
	}
	if report.StructuralAnomalyCount != 1 {
		t.Fatalf("expected 1 loss record counted, got %d", report.StructuralAnomalyCount)
	}
}

func TestIntegrityReportInvertedRange(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	svc := newRecordService(repo)

	_, err := svc.IntegrityReport(context.Background(), projectID, day("2026-03-10"), day("2026-03-01"))
	if _, ok := err.(*RangeError); !ok {
		t.Fatalf("expected RangeError, got %v", err)
	}
}
