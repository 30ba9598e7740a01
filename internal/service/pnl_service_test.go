package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"opsmonitor/internal/config"
	"opsmonitor/internal/models"
)

func newPnlService(repo *stubRepo) *ProfitLossService {
	return &ProfitLossService{
		Repo: repo,
		Thresholds: config.AlertsConfig{
			ConsecutiveLossDays:     7,
			ConsecutiveLossCritical: 14,
			RollingWindowDays:       30,
			RollingLossThreshold:    -50000,
			LossRateThresholdPct:    -10,
		},
	}
}

func TestSummaryMath(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "10000")
	seedRecord(repo, projectID, day("2026-01-01"), "1000", "600")
	seedRecord(repo, projectID, day("2026-01-02"), "500", "400")

	svc := newPnlService(repo)
	out, err := svc.Summary(context.Background(), projectID, day("2026-01-01"), day("2026-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.TotalProfit.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected profit 500, got %s", out.TotalProfit)
	}
	if out.RecordCount != 2 {
		t.Fatalf("expected 2 records, got %d", out.RecordCount)
	}
	// 500 / 1500 revenue
	if out.ProfitMargin != 33.33 {
		t.Fatalf("expected margin 33.33, got %v", out.ProfitMargin)
	}
	// 500 / 10000 funding target
	if out.ProfitLossRate != 5 {
		t.Fatalf("expected rate 5, got %v", out.ProfitLossRate)
	}
	if !out.Profitable {
		t.Fatalf("expected profitable")
	}
}

func TestSummaryEmptyRangeAndZeroRevenue(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "0")

	svc := newPnlService(repo)
	out, err := svc.Summary(context.Background(), projectID, day("2026-01-01"), day("2026-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.TotalProfit.IsZero() || out.ProfitMargin != 0 || out.ProfitLossRate != 0 {
		t.Fatalf("empty range must yield zeros, got %#v", out)
	}

	if _, err := svc.Summary(context.Background(), projectID, day("2026-02-01"), day("2026-01-01")); err == nil {
		t.Fatalf("expected RangeError for inverted range")
	}
	if _, err := svc.Summary(context.Background(), 999, day("2026-01-01"), day("2026-01-31")); err == nil {
		t.Fatalf("expected NotFoundError for missing project")
	}
}

func TestTrendBucketKeys(t *testing.T) {
	tests := []struct {
		date        string
		granularity string
		want        string
	}{
		{"2026-01-07", GranularityDaily, "2026-01-07"},
		{"2026-01-07", GranularityWeekly, "2026-01-04"}, // Wednesday folds to Sunday
		{"2026-01-04", GranularityWeekly, "2026-01-04"}, // Sunday keeps its own key
		{"2026-01-07", GranularityMonthly, "2026-01"},
		{"2026-05-15", GranularityQuarterly, "2026-Q2"},
		{"2026-12-31", GranularityQuarterly, "2026-Q4"},
		{"2026-01-07", GranularityYearly, "2026"},
	}
	for _, tt := range tests {
		if got := bucketKey(day(tt.date), tt.granularity); got != tt.want {
			t.Fatalf("bucketKey(%s, %s) = %q, want %q", tt.date, tt.granularity, got, tt.want)
		}
	}
}

func TestTrendMonthlySumsMatchDaily(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	// Spanning two months; February is skipped, so the series stays sparse.
	seedRecord(repo, projectID, day("2026-01-10"), "100", "40")
	seedRecord(repo, projectID, day("2026-01-20"), "200", "80")
	seedRecord(repo, projectID, day("2026-03-05"), "300", "120")

	svc := newPnlService(repo)
	monthly, err := svc.Trend(context.Background(), projectID, day("2026-01-01"), day("2026-03-31"), GranularityMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(monthly.Points) != 2 {
		t.Fatalf("expected 2 sparse monthly buckets, got %d", len(monthly.Points))
	}
	if monthly.Points[0].Period != "2026-01" || monthly.Points[1].Period != "2026-03" {
		t.Fatalf("unexpected bucket order %v / %v", monthly.Points[0].Period, monthly.Points[1].Period)
	}
	if !monthly.Points[0].Profit.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected january profit 180, got %s", monthly.Points[0].Profit)
	}

	daily, err := svc.Trend(context.Background(), projectID, day("2026-01-01"), day("2026-03-31"), GranularityDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dailySum := decimal.Zero
	for _, p := range daily.Points {
		dailySum = dailySum.Add(p.Profit)
	}
	monthlySum := decimal.Zero
	for _, p := range monthly.Points {
		monthlySum = monthlySum.Add(p.Profit)
	}
	if !dailySum.Equal(monthlySum) {
		t.Fatalf("daily sum %s must equal monthly sum %s", dailySum, monthlySum)
	}
}

func TestTrendRejectsUnknownGranularity(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	svc := newPnlService(repo)
	_, err := svc.Trend(context.Background(), projectID, day("2026-01-01"), day("2026-01-31"), "hourly")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestROI(t *testing.T) {
	repo := newStubRepo()
	target, _ := decimal.NewFromString("100000")
	valuation, _ := decimal.NewFromString("120000")
	project := &models.Project{Name: "p", Status: "active", FundingTarget: target, CurrentValuation: valuation}
	_ = repo.CreateProject(context.Background(), project)

	created := day("2026-01-01")
	_ = repo.CreateInvestment(context.Background(), &models.Investment{
		InvestorID: 7,
		ProjectID:  project.ID,
		Amount:     decimal.NewFromInt(10000),
		CreatedAt:  created,
	})
	_ = repo.CreateDistribution(context.Background(), &models.Distribution{
		InvestorID:    7,
		ProjectID:     project.ID,
		Amount:        decimal.NewFromInt(1000),
		DistributedAt: day("2026-02-01"),
	})

	svc := newPnlService(repo)
	svc.now = func() time.Time { return created.AddDate(0, 0, 100) }

	out, err := svc.ROI(context.Background(), 7, project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.HoldingPeriodDays != 100 {
		t.Fatalf("expected 100 holding days, got %d", out.HoldingPeriodDays)
	}
	if out.ShareRatio != 0.1 {
		t.Fatalf("expected share ratio 0.1, got %v", out.ShareRatio)
	}
	if !out.CurrentValue.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("expected current value 12000, got %s", out.CurrentValue)
	}
	// (12000 + 1000 - 10000) / 10000
	if out.ROIPct != 30 {
		t.Fatalf("expected roi 30, got %v", out.ROIPct)
	}
	if out.AnnualizedReturnPct != 109.5 {
		t.Fatalf("expected annualized 109.5, got %v", out.AnnualizedReturnPct)
	}
	if out.EstimatedPaybackDate == nil {
		t.Fatalf("expected a payback estimate for positive roi")
	}
}

func TestROIZeroInvestment(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	_ = repo.CreateInvestment(context.Background(), &models.Investment{
		InvestorID: 7,
		ProjectID:  projectID,
		Amount:     decimal.Zero,
		CreatedAt:  day("2026-01-01"),
	})

	svc := newPnlService(repo)
	svc.now = func() time.Time { return day("2026-04-01") }

	out, err := svc.ROI(context.Background(), 7, projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ROIPct != 0 || out.AnnualizedReturnPct != 0 {
		t.Fatalf("zero investment must yield zero roi, got %#v", out)
	}
	if out.EstimatedPaybackDate != nil {
		t.Fatalf("zero roi must not estimate payback")
	}
}

func TestROIMissingInvestment(t *testing.T) {
	repo := newStubRepo()
	projectID := seedProject(repo, "100000")
	svc := newPnlService(repo)
	_, err := svc.ROI(context.Background(), 7, projectID)
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCompareSkipsMissingAndSortsByProfit(t *testing.T) {
	repo := newStubRepo()
	lowID := seedProject(repo, "10000")
	highID := seedProject(repo, "10000")
	seedRecord(repo, lowID, day("2026-01-01"), "100", "90")
	seedRecord(repo, highID, day("2026-01-01"), "1000", "100")

	svc := newPnlService(repo)
	out, err := svc.Compare(context.Background(), []uint64{lowID, 999, highID}, day("2026-01-01"), day("2026-01-31"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Projects) != 2 {
		t.Fatalf("expected missing project skipped, got %d entries", len(out.Projects))
	}
	if out.Projects[0].ProjectID != highID {
		t.Fatalf("expected highest profit first, got %#v", out.Projects)
	}
}

func TestLossStreakAlerts(t *testing.T) {
	repo := newStubRepo()
	target, _ := decimal.NewFromString("100000000")
	project := &models.Project{Name: "p", Status: "active", FundingTarget: target, CurrentValuation: target}
	_ = repo.CreateProject(context.Background(), project)

	svc := newPnlService(repo)
	svc.now = func() time.Time { return day("2026-06-30") }
	// Huge funding target keeps the loss-rate check quiet; small daily
	// losses keep the rolling total above its threshold.
	seed := func(days int) {
		repo.records = nil
		for i := 0; i < days; i++ {
			seedRecord(repo, project.ID, day("2026-06-01").AddDate(0, 0, i), "10", "20")
		}
	}

	seed(6)
	alerts, err := svc.CheckLossAlerts(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("6-day streak must not alert, got %#v", alerts)
	}

	seed(7)
	alerts, err = svc.CheckLossAlerts(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Severity != models.SeverityHigh {
		t.Fatalf("7-day streak must raise a high alert, got %#v", alerts)
	}
	if alerts[0].ActualValue != 7 {
		t.Fatalf("expected streak 7, got %v", alerts[0].ActualValue)
	}

	seed(14)
	alerts, err = svc.CheckLossAlerts(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Severity != models.SeverityCritical {
		t.Fatalf("14-day streak must raise a critical alert, got %#v", alerts)
	}
}

func TestLossStreakBrokenByProfit(t *testing.T) {
	repo := newStubRepo()
	target, _ := decimal.NewFromString("100000000")
	project := &models.Project{Name: "p", Status: "active", FundingTarget: target, CurrentValuation: target}
	_ = repo.CreateProject(context.Background(), project)

	// 10 losses, then a profitable day, then 5 losses: streak is 5.
	for i := 0; i < 10; i++ {
		seedRecord(repo, project.ID, day("2026-06-01").AddDate(0, 0, i), "10", "20")
	}
	seedRecord(repo, project.ID, day("2026-06-11"), "50", "20")
	for i := 0; i < 5; i++ {
		seedRecord(repo, project.ID, day("2026-06-12").AddDate(0, 0, i), "10", "20")
	}

	svc := newPnlService(repo)
	svc.now = func() time.Time { return day("2026-06-30") }
	alerts, err := svc.CheckLossAlerts(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatalf("broken streak must not alert, got %#v", alerts)
	}
}

func TestRollingLossAndRateAlerts(t *testing.T) {
	repo := newStubRepo()
	target, _ := decimal.NewFromString("1000000")
	project := &models.Project{Name: "p", Status: "active", FundingTarget: target, CurrentValuation: target}
	_ = repo.CreateProject(context.Background(), project)

	// A single massive loss inside the 30-day window: trips the rolling
	// total (-120000 < -50000, beyond 2x so critical) and the loss rate
	// (-12% < -10%, within 2x so medium), but not the 7-day streak.
	seedRecord(repo, project.ID, day("2026-06-20"), "0", "120000")

	svc := newPnlService(repo)
	svc.now = func() time.Time { return day("2026-06-30") }
	alerts, err := svc.CheckLossAlerts(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected rolling-loss and loss-rate alerts, got %#v", alerts)
	}
	if alerts[0].Severity != models.SeverityCritical {
		t.Fatalf("rolling loss beyond 2x threshold must be critical, got %s", alerts[0].Severity)
	}
	if alerts[1].Severity != models.SeverityMedium {
		t.Fatalf("loss rate within 2x threshold must be medium, got %s", alerts[1].Severity)
	}
}
