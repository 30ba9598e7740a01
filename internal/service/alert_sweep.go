package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

// AlertSweepService periodically recomputes alerts across projects and
// persists the new ones. A project that already has an open (unresolved)
// alert of the same type is skipped so the queue does not fill with
// duplicates while nobody resolves them.
type AlertSweepService struct {
	Repo        repository.Repository
	Logger      *zap.Logger
	ProfitLoss  *ProfitLossService
	Assessments *AssessmentService
}

func (s *AlertSweepService) RunOnce(ctx context.Context) error {
	const pageSize = 200

	offset := 0
	inserted := 0
	for {
		projects, err := s.Repo.ListProjects(ctx, repository.ListProjectsParams{
			Limit:  pageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			break
		}
		for _, project := range projects {
			n, err := s.sweepProject(ctx, project.ID)
			if err != nil {
				if s.Logger != nil {
					s.Logger.Warn("alert sweep failed for project",
						zap.Uint64("project_id", project.ID), zap.Error(err))
				}
				continue
			}
			inserted += n
		}
		if len(projects) < pageSize {
			break
		}
		offset += pageSize
	}

	if s.Logger != nil {
		s.Logger.Info("alert sweep complete", zap.Int("inserted", inserted))
	}
	return nil
}

func (s *AlertSweepService) sweepProject(ctx context.Context, projectID uint64) (int, error) {
	var alerts []Alert

	lossAlerts, err := s.ProfitLoss.CheckLossAlerts(ctx, projectID)
	if err != nil {
		return 0, err
	}
	alerts = append(alerts, lossAlerts...)

	capAlerts, err := s.Assessments.CheckCapabilityAlerts(ctx, projectID)
	if err != nil {
		return 0, err
	}
	alerts = append(alerts, capAlerts...)

	inserted := 0
	seen := map[string]bool{}
	for _, alert := range alerts {
		if seen[alert.AlertType] {
			continue
		}
		open, err := s.Repo.HasOpenAlert(ctx, projectID, alert.AlertType)
		if err != nil {
			return inserted, err
		}
		seen[alert.AlertType] = true
		if open {
			continue
		}
		if err := s.persist(ctx, alert); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func (s *AlertSweepService) persist(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return s.Repo.InsertAlertRecord(ctx, &models.AlertRecord{
		ProjectID:      alert.ProjectID,
		AlertType:      alert.AlertType,
		Severity:       alert.Severity,
		Title:          alert.Title,
		Message:        alert.Message,
		ThresholdValue: alert.ThresholdValue,
		ActualValue:    alert.ActualValue,
		Context:        datatypes.JSON(payload),
	})
}
