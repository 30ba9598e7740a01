package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// FieldError is a blocking structural violation on a write.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// FieldWarning annotates a write without blocking it. Anomaly flags are
// always warnings, never errors.
type FieldWarning struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Errors   []FieldError   `json:"errors"`
	Warnings []FieldWarning `json:"warnings"`
}

// RecordInput is a caller-supplied daily entry. TotalExpenses and Profit
// are intentionally absent: both are derived server-side.
type RecordInput struct {
	Date          time.Time          `json:"date"`
	Revenue       decimal.Decimal    `json:"revenue"`
	Expenses      []ExpenseItemInput `json:"expenses"`
	CustomerCount *int               `json:"customer_count,omitempty"`
	Note          *string            `json:"note,omitempty"`
}

type ExpenseItemInput struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	ReceiptURL  *string         `json:"receipt_url,omitempty"`
}

type SaveResult struct {
	RecordID     uint64 `json:"record_id"`
	Created      bool   `json:"created"`
	HistoryCount int    `json:"history_count"`
}

// IntegrityReport compares expected days against recorded days for a range.
// StructuralAnomalyCount counts negative-profit records; it is a simplified
// proxy and not interchangeable with the statistical anomaly warnings the
// validator emits.
type IntegrityReport struct {
	ProjectID              uint64   `json:"project_id"`
	TotalDays              int      `json:"total_days"`
	RecordedDays           int      `json:"recorded_days"`
	MissingDays            []string `json:"missing_days"`
	StructuralAnomalyCount int64    `json:"structural_anomaly_count"`
	CompletenessRate       float64  `json:"completeness_rate"`
}

type ProfitLossSummary struct {
	ProjectID      uint64          `json:"project_id"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	TotalProfit    decimal.Decimal `json:"total_profit"`
	ProfitMargin   float64         `json:"profit_margin"`
	ProfitLossRate float64         `json:"profit_loss_rate"`
	Profitable     bool            `json:"profitable"`
	RecordCount    int64           `json:"record_count"`
}

type TrendPoint struct {
	Period   string          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Profit   decimal.Decimal `json:"profit"`
	Margin   float64         `json:"margin"`
}

type ProfitLossTrend struct {
	ProjectID   uint64       `json:"project_id"`
	Granularity string       `json:"granularity"`
	Points      []TrendPoint `json:"points"`
}

type ROIAnalysis struct {
	InvestorID           uint64          `json:"investor_id"`
	ProjectID            uint64          `json:"project_id"`
	InvestedAmount       decimal.Decimal `json:"invested_amount"`
	ShareRatio           float64         `json:"share_ratio"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	TotalDistributions   decimal.Decimal `json:"total_distributions"`
	UnrealizedGain       decimal.Decimal `json:"unrealized_gain"`
	ROIPct               float64         `json:"roi_pct"`
	AnnualizedReturnPct  float64         `json:"annualized_return_pct"`
	HoldingPeriodDays    int             `json:"holding_period_days"`
	EstimatedPaybackDate *time.Time      `json:"estimated_payback_date,omitempty"`
}

type ProjectComparisonEntry struct {
	ProjectID     uint64          `json:"project_id"`
	Name          string          `json:"name"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	ProfitMargin  float64         `json:"profit_margin"`
	// ROIPct is project-level: profit over funding target. It is not the
	// investor ROI from the ROI analysis.
	ROIPct float64 `json:"roi_pct"`
}

type ProjectComparison struct {
	From     time.Time                `json:"from"`
	To       time.Time                `json:"to"`
	Projects []ProjectComparisonEntry `json:"projects"`
}

// Alert is a freshly computed alert. The sink owns delivery and
// read/resolve state; this core only produces the records.
type Alert struct {
	ProjectID      uint64    `json:"project_id"`
	AlertType      string    `json:"alert_type"`
	Severity       string    `json:"severity"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ThresholdValue float64   `json:"threshold_value"`
	ActualValue    float64   `json:"actual_value"`
	CreatedAt      time.Time `json:"created_at"`
}

type AssessmentInput struct {
	ProjectID           uint64  `json:"project_id"`
	MemberID            uint64  `json:"member_id"`
	Period              string  `json:"period"`
	ProfessionalScore   float64 `json:"professional_score"`
	AttitudeScore       float64 `json:"attitude_score"`
	TeamworkScore       float64 `json:"teamwork_score"`
	CommunicationScore  float64 `json:"communication_score"`
	ProblemSolvingScore float64 `json:"problem_solving_score"`
	Comments            *string `json:"comments,omitempty"`
}

type Performer struct {
	MemberID     uint64  `json:"member_id"`
	OverallScore float64 `json:"overall_score"`
}

type TeamAssessment struct {
	ProjectID          uint64      `json:"project_id"`
	Period             string      `json:"period"`
	EmployeeCount      int         `json:"employee_count"`
	AvgProfessional    float64     `json:"avg_professional"`
	AvgAttitude        float64     `json:"avg_attitude"`
	AvgTeamwork        float64     `json:"avg_teamwork"`
	AvgCommunication   float64     `json:"avg_communication"`
	AvgProblemSolving  float64     `json:"avg_problem_solving"`
	AvgOverall         float64     `json:"avg_overall"`
	TopPerformers      []Performer `json:"top_performers"`
	NeedsImprovement   []Performer `json:"needs_improvement"`
}

// AssessmentTrend is one member's full history as parallel arrays so a
// chart renderer never re-queries per axis.
type AssessmentTrend struct {
	MemberID       uint64    `json:"member_id"`
	Periods        []string  `json:"periods"`
	Professional   []float64 `json:"professional"`
	Attitude       []float64 `json:"attitude"`
	Teamwork       []float64 `json:"teamwork"`
	Communication  []float64 `json:"communication"`
	ProblemSolving []float64 `json:"problem_solving"`
	Overall        []float64 `json:"overall"`
}
