package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"go.uber.org/zap"

	"opsmonitor/internal/config"
	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

// Fixed sub-score weights. They sum to 1.0 and changing them silently
// rescales every stored overall score, so they are constants, not config.
const (
	WeightProfessional   = 0.30
	WeightAttitude       = 0.20
	WeightTeamwork       = 0.20
	WeightCommunication  = 0.15
	WeightProblemSolving = 0.15
)

const teamListSize = 3

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type AssessmentService struct {
	Repo       repository.Repository
	Logger     *zap.Logger
	Scores     config.AssessmentConfig
	Thresholds config.AlertsConfig
}

// Submit validates and stores one member's assessment for a period. A
// resubmission for the same (member, period) overwrites the existing row.
func (s *AssessmentService) Submit(ctx context.Context, input AssessmentInput, assessedBy string) (*models.PerformanceAssessment, error) {
	project, err := s.Repo.GetProjectByID(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", input.ProjectID)
	}

	if errs := s.validateInput(input); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	item := &models.PerformanceAssessment{
		ProjectID:           input.ProjectID,
		MemberID:            input.MemberID,
		Period:              input.Period,
		ProfessionalScore:   input.ProfessionalScore,
		AttitudeScore:       input.AttitudeScore,
		TeamworkScore:       input.TeamworkScore,
		CommunicationScore:  input.CommunicationScore,
		ProblemSolvingScore: input.ProblemSolvingScore,
		OverallScore:        OverallScore(input),
		AssessedBy:          assessedBy,
		Comments:            input.Comments,
	}
	if err := s.Repo.UpsertAssessment(ctx, item); err != nil {
		return nil, err
	}

	// Re-fetch so the caller sees the row ID and timestamps even when the
	// upsert hit the conflict path.
	stored, err := s.Repo.GetAssessment(ctx, input.MemberID, input.Period)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = item
	}
	if s.Logger != nil {
		s.Logger.Info("assessment submitted",
			zap.Uint64("project_id", input.ProjectID),
			zap.Uint64("member_id", input.MemberID),
			zap.String("period", input.Period),
			zap.Float64("overall", stored.OverallScore))
	}
	return stored, nil
}

// OverallScore derives the weighted overall from the five sub-scores.
func OverallScore(input AssessmentInput) float64 {
	overall := input.ProfessionalScore*WeightProfessional +
		input.AttitudeScore*WeightAttitude +
		input.TeamworkScore*WeightTeamwork +
		input.CommunicationScore*WeightCommunication +
		input.ProblemSolvingScore*WeightProblemSolving
	return round2(overall)
}

func (s *AssessmentService) validateInput(input AssessmentInput) []FieldError {
	var errs []FieldError

	if input.MemberID == 0 {
		errs = append(errs, FieldError{
			Field:   "member_id",
			Code:    "member_required",
			Message: "member id is required",
		})
	}
	if !periodPattern.MatchString(input.Period) {
		errs = append(errs, FieldError{
			Field:   "period",
			Code:    "period_format",
			Message: "period must be YYYY-MM",
			Value:   input.Period,
		})
	}

	min, max := s.Scores.MinScore, s.Scores.MaxScore
	if max <= min {
		min, max = 0, 10
	}
	scores := []struct {
		field string
		value float64
	}{
		{"professional_score", input.ProfessionalScore},
		{"attitude_score", input.AttitudeScore},
		{"teamwork_score", input.TeamworkScore},
		{"communication_score", input.CommunicationScore},
		{"problem_solving_score", input.ProblemSolvingScore},
	}
	for _, sc := range scores {
		if sc.value < min || sc.value > max {
			errs = append(errs, FieldError{
				Field:   sc.field,
				Code:    "score_out_of_range",
				Message: fmt.Sprintf("score must be between %g and %g", min, max),
				Value:   fmt.Sprintf("%g", sc.value),
			})
		}
	}
	return errs
}

// Team aggregates a project's assessments for one period. When period is
// empty the latest period with any assessment is used. A period with no
// assessments yields a well-formed zero result, not an error.
func (s *AssessmentService) Team(ctx context.Context, projectID uint64, period string) (TeamAssessment, error) {
	out := TeamAssessment{
		ProjectID:        projectID,
		Period:           period,
		TopPerformers:    []Performer{},
		NeedsImprovement: []Performer{},
	}

	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return out, err
	}
	if project == nil {
		return out, notFound("project", projectID)
	}

	if period == "" {
		periods, err := s.Repo.ListAssessmentPeriods(ctx, projectID)
		if err != nil {
			return out, err
		}
		if len(periods) == 0 {
			return out, nil
		}
		period = periods[len(periods)-1]
		out.Period = period
	} else if !periodPattern.MatchString(period) {
		return out, &ValidationError{Errors: []FieldError{{
			Field:   "period",
			Code:    "period_format",
			Message: "period must be YYYY-MM",
			Value:   period,
		}}}
	}

	assessments, err := s.Repo.ListAssessmentsByProjectPeriod(ctx, projectID, period)
	if err != nil {
		return out, err
	}
	if len(assessments) == 0 {
		return out, nil
	}

	var sumProf, sumAtt, sumTeam, sumComm, sumProb, sumOverall float64
	for _, a := range assessments {
		sumProf += a.ProfessionalScore
		sumAtt += a.AttitudeScore
		sumTeam += a.TeamworkScore
		sumComm += a.CommunicationScore
		sumProb += a.ProblemSolvingScore
		sumOverall += a.OverallScore
	}
	n := float64(len(assessments))
	out.EmployeeCount = len(assessments)
	out.AvgProfessional = round2(sumProf / n)
	out.AvgAttitude = round2(sumAtt / n)
	out.AvgTeamwork = round2(sumTeam / n)
	out.AvgCommunication = round2(sumComm / n)
	out.AvgProblemSolving = round2(sumProb / n)
	out.AvgOverall = round2(sumOverall / n)

	ranked := make([]Performer, 0, len(assessments))
	for _, a := range assessments {
		ranked = append(ranked, Performer{MemberID: a.MemberID, OverallScore: a.OverallScore})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].OverallScore > ranked[j].OverallScore
	})
	out.TopPerformers = append(out.TopPerformers, ranked[:minInt(teamListSize, len(ranked))]...)

	cutoff := s.Scores.NeedsImprovementBelow
	if cutoff <= 0 {
		cutoff = 5.0
	}
	low := []Performer{}
	for i := len(ranked) - 1; i >= 0; i-- {
		if ranked[i].OverallScore < cutoff {
			low = append(low, ranked[i])
		}
		if len(low) == teamListSize {
			break
		}
	}
	out.NeedsImprovement = low
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Trend returns one member's full assessment history in period order.
// A member with no assessments yields empty arrays, not an error.
func (s *AssessmentService) Trend(ctx context.Context, memberID uint64) (AssessmentTrend, error) {
	out := AssessmentTrend{
		MemberID:       memberID,
		Periods:        []string{},
		Professional:   []float64{},
		Attitude:       []float64{},
		Teamwork:       []float64{},
		Communication:  []float64{},
		ProblemSolving: []float64{},
		Overall:        []float64{},
	}

	assessments, err := s.Repo.ListAssessmentsByMember(ctx, memberID)
	if err != nil {
		return out, err
	}
	for _, a := range assessments {
		out.Periods = append(out.Periods, a.Period)
		out.Professional = append(out.Professional, a.ProfessionalScore)
		out.Attitude = append(out.Attitude, a.AttitudeScore)
		out.Teamwork = append(out.Teamwork, a.TeamworkScore)
		out.Communication = append(out.Communication, a.CommunicationScore)
		out.ProblemSolving = append(out.ProblemSolving, a.ProblemSolvingScore)
		out.Overall = append(out.Overall, a.OverallScore)
	}
	return out, nil
}

// CheckCapabilityAlerts compares the two most recent assessed periods of a
// project. Fewer than two periods means no baseline and no alerts.
func (s *AssessmentService) CheckCapabilityAlerts(ctx context.Context, projectID uint64) ([]Alert, error) {
	project, err := s.Repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	periods, err := s.Repo.ListAssessmentPeriods(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(periods) < 2 {
		return []Alert{}, nil
	}
	prior, current := periods[len(periods)-2], periods[len(periods)-1]

	priorTeam, err := s.Team(ctx, projectID, prior)
	if err != nil {
		return nil, err
	}
	currentTeam, err := s.Team(ctx, projectID, current)
	if err != nil {
		return nil, err
	}
	if priorTeam.EmployeeCount == 0 || currentTeam.EmployeeCount == 0 {
		return []Alert{}, nil
	}

	now := time.Now().UTC()
	alerts := []Alert{}

	decline := s.Thresholds.CapabilityDeclineScore
	if decline <= 0 {
		decline = 1.0
	}
	criticalDecline := s.Thresholds.CapabilityCriticalScore
	if criticalDecline <= 0 {
		criticalDecline = 2.0
	}
	drop := round2(priorTeam.AvgOverall - currentTeam.AvgOverall)
	if drop >= decline {
		severity := models.SeverityMedium
		if drop >= criticalDecline {
			severity = models.SeverityHigh
		}
		alerts = append(alerts, Alert{
			ProjectID:      projectID,
			AlertType:      models.AlertTypeCapabilityWarning,
			Severity:       severity,
			Title:          "team capability decline",
			Message:        fmt.Sprintf("team average dropped %.2f points between %s and %s", drop, prior, current),
			ThresholdValue: decline,
			ActualValue:    drop,
			CreatedAt:      now,
		})
	}

	if n := len(currentTeam.NeedsImprovement); n > 0 {
		cutoff := s.Scores.NeedsImprovementBelow
		if cutoff <= 0 {
			cutoff = 5.0
		}
		alerts = append(alerts, Alert{
			ProjectID:      projectID,
			AlertType:      models.AlertTypeCapabilityWarning,
			Severity:       models.SeverityLow,
			Title:          "members below score floor",
			Message:        fmt.Sprintf("%d member(s) scored below %.1f in %s", n, cutoff, current),
			ThresholdValue: cutoff,
			ActualValue:    float64(n),
			CreatedAt:      now,
		})
	}
	return alerts, nil
}
