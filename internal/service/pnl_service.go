package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"opsmonitor/internal/config"
	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

const (
	GranularityDaily     = "daily"
	GranularityWeekly    = "weekly"
	GranularityMonthly   = "monthly"
	GranularityQuarterly = "quarterly"
	GranularityYearly    = "yearly"
)

type ProfitLossService struct {
	Repo       repository.Repository
	Logger     *zap.Logger
	Thresholds config.AlertsConfig

	// now is factored for tests.
	now func() time.Time
}

func (s *ProfitLossService) nowUTC() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// Summary aggregates revenue/expenses/profit over a range. Empty ranges
// yield all-zero totals, never an error.
func (s *ProfitLossService) Summary(ctx context.Context, projectID uint64, from, to time.Time) (ProfitLossSummary, error) {
	out := ProfitLossSummary{
		ProjectID:     projectID,
		From:          truncateDay(from),
		To:            truncateDay(to),
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
		TotalProfit:   decimal.Zero,
	}

	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return out, err
	}
	if project == nil {
		return out, notFound("project", projectID)
	}
	if from.After(to) {
		return out, invalidRange("range start is after range end")
	}

	totals, err := s.Repo.SummarizeRecords(ctx, projectID, from, to)
	if err != nil {
		return out, err
	}
	out.TotalRevenue = totals.Revenue
	out.TotalExpenses = totals.Expenses
	out.TotalProfit = totals.Profit
	out.RecordCount = totals.Count
	out.ProfitMargin = pctOf(totals.Profit, totals.Revenue)
	out.ProfitLossRate = pctOf(totals.Profit, project.FundingTarget)
	out.Profitable = totals.Profit.IsPositive()
	return out, nil
}

// pctOf returns num/den*100 with a zero denominator yielding 0, never NaN.
func pctOf(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	out, _ := num.Div(den).Mul(decimal.NewFromInt(100)).Float64()
	return round2(out)
}

// Trend buckets stored records at the requested granularity. Buckets with
// no records are not synthesized; the series is sparse by design.
func (s *ProfitLossService) Trend(ctx context.Context, projectID uint64, from, to time.Time, granularity string) (ProfitLossTrend, error) {
	out := ProfitLossTrend{ProjectID: projectID, Granularity: granularity, Points: []TrendPoint{}}

	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return out, err
	}
	if project == nil {
		return out, notFound("project", projectID)
	}
	if from.After(to) {
		return out, invalidRange("range start is after range end")
	}
	if !validGranularity(granularity) {
		return out, &ValidationError{Errors: []FieldError{{
			Field:   "granularity",
			Code:    "granularity_unknown",
			Message: "granularity must be daily, weekly, monthly, quarterly or yearly",
			Value:   granularity,
		}}}
	}

	records, err := s.Repo.ListRecords(ctx, repository.ListRecordsParams{
		ProjectID: projectID,
		From:      &from,
		To:        &to,
		Limit:     5000,
		OrderBy:   "record_date",
		Asc:       boolPtr(true),
	})
	if err != nil {
		return out, err
	}

	if granularity == GranularityDaily {
		for _, rec := range records {
			out.Points = append(out.Points, TrendPoint{
				Period:   rec.RecordDate.UTC().Format("2006-01-02"),
				Revenue:  rec.Revenue,
				Expenses: rec.TotalExpenses,
				Profit:   rec.Profit,
				Margin:   pctOf(rec.Profit, rec.Revenue),
			})
		}
		return out, nil
	}

	buckets := map[string]*TrendPoint{}
	for _, rec := range records {
		key := bucketKey(rec.RecordDate.UTC(), granularity)
		point, ok := buckets[key]
		if !ok {
			point = &TrendPoint{
				Period:   key,
				Revenue:  decimal.Zero,
				Expenses: decimal.Zero,
				Profit:   decimal.Zero,
			}
			buckets[key] = point
		}
		point.Revenue = point.Revenue.Add(rec.Revenue)
		point.Expenses = point.Expenses.Add(rec.TotalExpenses)
		point.Profit = point.Profit.Add(rec.Profit)
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		point := buckets[key]
		point.Margin = pctOf(point.Profit, point.Revenue)
		out.Points = append(out.Points, *point)
	}
	return out, nil
}

func validGranularity(g string) bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly, GranularityQuarterly, GranularityYearly:
		return true
	}
	return false
}

// bucketKey maps a date to its period key. Weekly buckets are keyed by the
// Sunday that starts the week; all keys sort ascending as plain strings.
func bucketKey(date time.Time, granularity string) string {
	switch granularity {
	case GranularityWeekly:
		sunday := date.AddDate(0, 0, -int(date.Weekday()))
		return sunday.Format("2006-01-02")
	case GranularityMonthly:
		return date.Format("2006-01")
	case GranularityQuarterly:
		quarter := (int(date.Month())-1)/3 + 1
		return fmt.Sprintf("%04d-Q%d", date.Year(), quarter)
	case GranularityYearly:
		return date.Format("2006")
	default:
		return date.Format("2006-01-02")
	}
}

// ROI computes an investor's return for one project. A zero invested
// amount yields roi=0 rather than signalling "undefined"; the behavior is
// deliberate and documented.
func (s *ProfitLossService) ROI(ctx context.Context, investorID, projectID uint64) (ROIAnalysis, error) {
	out := ROIAnalysis{
		InvestorID:         investorID,
		ProjectID:          projectID,
		InvestedAmount:     decimal.Zero,
		CurrentValue:       decimal.Zero,
		TotalDistributions: decimal.Zero,
		UnrealizedGain:     decimal.Zero,
	}

	investment, err := s.Repo.GetInvestment(ctx, investorID, projectID)
	if err != nil {
		return out, err
	}
	if investment == nil {
		return out, notFound("investment", fmt.Sprintf("%d/%d", investorID, projectID))
	}
	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return out, err
	}
	if project == nil {
		return out, notFound("project", projectID)
	}

	now := s.nowUTC()
	holdingDays := int(now.Sub(investment.CreatedAt).Hours() / 24)
	if holdingDays < 0 {
		holdingDays = 0
	}
	out.HoldingPeriodDays = holdingDays
	out.InvestedAmount = investment.Amount

	shareRatio := decimal.Zero
	if !project.FundingTarget.IsZero() {
		shareRatio = investment.Amount.Div(project.FundingTarget)
	}
	out.ShareRatio, _ = shareRatio.Float64()
	out.CurrentValue = project.CurrentValuation.Mul(shareRatio)

	distributions, err := s.Repo.SumDistributions(ctx, investorID, projectID)
	if err != nil {
		return out, err
	}
	out.TotalDistributions = distributions
	out.UnrealizedGain = out.CurrentValue.Sub(investment.Amount)

	if !investment.Amount.IsZero() {
		gain := out.CurrentValue.Add(distributions).Sub(investment.Amount)
		roi, _ := gain.Div(investment.Amount).Mul(decimal.NewFromInt(100)).Float64()
		out.ROIPct = round2(roi)
	}
	if holdingDays > 0 {
		out.AnnualizedReturnPct = round2(out.ROIPct / float64(holdingDays) * 365)
	}

	if out.ROIPct > 0 && out.AnnualizedReturnPct > 0 {
		remaining := 100 - out.ROIPct
		daysToPayback := remaining / out.AnnualizedReturnPct * 365
		payback := now.AddDate(0, 0, int(math.Ceil(daysToPayback)))
		out.EstimatedPaybackDate = &payback
	}
	return out, nil
}

// Compare builds a side-by-side view. A project whose lookup fails is
// skipped, never fatal to the whole comparison.
func (s *ProfitLossService) Compare(ctx context.Context, projectIDs []uint64, from, to time.Time) (ProjectComparison, error) {
	out := ProjectComparison{From: truncateDay(from), To: truncateDay(to), Projects: []ProjectComparisonEntry{}}
	if from.After(to) {
		return out, invalidRange("range start is after range end")
	}

	for _, id := range projectIDs {
		project, err := s.Repo.GetProjectByID(ctx, id)
		if err != nil || project == nil {
			if s.Logger != nil {
				s.Logger.Debug("comparison skipped project", zap.Uint64("project_id", id), zap.Error(err))
			}
			continue
		}
		summary, err := s.Summary(ctx, id, from, to)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Debug("comparison skipped project", zap.Uint64("project_id", id), zap.Error(err))
			}
			continue
		}
		out.Projects = append(out.Projects, ProjectComparisonEntry{
			ProjectID:     id,
			Name:          project.Name,
			TotalRevenue:  summary.TotalRevenue,
			TotalExpenses: summary.TotalExpenses,
			TotalProfit:   summary.TotalProfit,
			ProfitMargin:  summary.ProfitMargin,
			ROIPct:        summary.ProfitLossRate,
		})
	}

	sort.SliceStable(out.Projects, func(i, j int) bool {
		return out.Projects[i].TotalProfit.GreaterThan(out.Projects[j].TotalProfit)
	})
	return out, nil
}

// CheckLossAlerts runs the three loss checks against current data. Alerts
// are always freshly computed; a quiet project yields an empty slice.
func (s *ProfitLossService) CheckLossAlerts(ctx context.Context, projectID uint64) ([]Alert, error) {
	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	now := s.nowUTC()
	alerts := []Alert{}

	streakAlert, err := s.checkLossStreak(ctx, projectID, now)
	if err != nil {
		return nil, err
	}
	if streakAlert != nil {
		alerts = append(alerts, *streakAlert)
	}

	windowDays := s.Thresholds.RollingWindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	from := truncateDay(now.AddDate(0, 0, -windowDays))
	totals, err := s.Repo.SummarizeRecords(ctx, projectID, from, now)
	if err != nil {
		return nil, err
	}

	if lossAlert := s.checkRollingLoss(projectID, totals, windowDays, now); lossAlert != nil {
		alerts = append(alerts, *lossAlert)
	}
	if rateAlert := s.checkLossRate(project, totals, windowDays, now); rateAlert != nil {
		alerts = append(alerts, *rateAlert)
	}
	return alerts, nil
}

// checkLossStreak walks records backward from the most recent and counts
// contiguous loss days.
func (s *ProfitLossService) checkLossStreak(ctx context.Context, projectID uint64, now time.Time) (*Alert, error) {
	threshold := s.Thresholds.ConsecutiveLossDays
	if threshold <= 0 {
		threshold = 7
	}
	critical := s.Thresholds.ConsecutiveLossCritical
	if critical <= 0 {
		critical = 14
	}

	records, err := s.Repo.ListRecords(ctx, repository.ListRecordsParams{
		ProjectID: projectID,
		Limit:     critical * 4,
		OrderBy:   "record_date",
		Asc:       boolPtr(false),
	})
	if err != nil {
		return nil, err
	}

	streak := 0
	for _, rec := range records {
		if !rec.Profit.IsNegative() {
			break
		}
		streak++
	}
	if streak < threshold {
		return nil, nil
	}

	severity := models.SeverityHigh
	if streak >= critical {
		severity = models.SeverityCritical
	}
	return &Alert{
		ProjectID:      projectID,
		AlertType:      models.AlertTypeLossWarning,
		Severity:       severity,
		Title:          "consecutive loss days",
		Message:        fmt.Sprintf("project has lost money for %d consecutive days (threshold %d)", streak, threshold),
		ThresholdValue: float64(threshold),
		ActualValue:    float64(streak),
		CreatedAt:      now,
	}, nil
}

func (s *ProfitLossService) checkRollingLoss(projectID uint64, totals repository.RecordTotals, windowDays int, now time.Time) *Alert {
	threshold := s.Thresholds.RollingLossThreshold
	if threshold >= 0 {
		threshold = -50000
	}
	profit, _ := totals.Profit.Float64()
	if profit >= threshold {
		return nil
	}
	severity := models.SeverityHigh
	if profit <= threshold*2 {
		severity = models.SeverityCritical
	}
	return &Alert{
		ProjectID:      projectID,
		AlertType:      models.AlertTypeLossWarning,
		Severity:       severity,
		Title:          fmt.Sprintf("%d-day loss total", windowDays),
		Message:        fmt.Sprintf("trailing %d-day profit %.2f is below the %.2f threshold", windowDays, profit, threshold),
		ThresholdValue: threshold,
		ActualValue:    round2(profit),
		CreatedAt:      now,
	}
}

func (s *ProfitLossService) checkLossRate(project *models.Project, totals repository.RecordTotals, windowDays int, now time.Time) *Alert {
	threshold := s.Thresholds.LossRateThresholdPct
	if threshold >= 0 {
		threshold = -10
	}
	rate := pctOf(totals.Profit, project.FundingTarget)
	if rate >= threshold {
		return nil
	}
	severity := models.SeverityMedium
	if rate <= threshold*2 {
		severity = models.SeverityCritical
	}
	return &Alert{
		ProjectID:      project.ID,
		AlertType:      models.AlertTypeLossWarning,
		Severity:       severity,
		Title:          fmt.Sprintf("%d-day loss rate", windowDays),
		Message:        fmt.Sprintf("trailing %d-day loss rate %.2f%% is below the %.2f%% threshold", windowDays, rate, threshold),
		ThresholdValue: threshold,
		ActualValue:    rate,
		CreatedAt:      now,
	}
}
