package models

import "time"

// PerformanceAssessment scores one individual for one period (YYYY-MM).
// At most one row per (member_id, period); resubmission updates in place.
// Unlike operational records, assessments carry no modification history.
type PerformanceAssessment struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	ProjectID uint64 `gorm:"not null;index"`
	MemberID  uint64 `gorm:"not null;uniqueIndex:ux_assessment_member_period,priority:1"`
	Period    string `gorm:"type:varchar(7);not null;uniqueIndex:ux_assessment_member_period,priority:2;index"`

	ProfessionalScore   float64 `gorm:"type:numeric(4,2);not null"`
	AttitudeScore       float64 `gorm:"type:numeric(4,2);not null"`
	TeamworkScore       float64 `gorm:"type:numeric(4,2);not null"`
	CommunicationScore  float64 `gorm:"type:numeric(4,2);not null"`
	ProblemSolvingScore float64 `gorm:"type:numeric(4,2);not null"`

	// OverallScore is always derived from the sub-scores, never accepted
	// from the caller.
	OverallScore float64 `gorm:"type:numeric(4,2);not null;index"`

	AssessedBy string  `gorm:"type:varchar(100);not null"`
	Comments   *string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PerformanceAssessment) TableName() string {
	return "performance_assessments"
}
