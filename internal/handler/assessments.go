package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"opsmonitor/internal/identity"
	"opsmonitor/internal/service"
)

type AssessmentsHandler struct {
	Assessments *service.AssessmentService
}

func (h *AssessmentsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.POST("/assessments", h.submit)
	g.GET("/projects/:project_id/assessments/team", h.team)
	g.GET("/projects/:project_id/assessments/capability-alerts", h.capabilityAlerts)
	g.GET("/members/:member_id/assessments/trend", h.trend)
}

// @Summary Submit or overwrite a member assessment
// @Tags assessments
// @Accept json
// @Param body body service.AssessmentInput true "assessment"
// @Success 200 {object} models.PerformanceAssessment
// @Router /api/v1/assessments [post]
func (h *AssessmentsHandler) submit(c *gin.Context) {
	if h.Assessments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var input service.AssessmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	input.Period = strings.TrimSpace(input.Period)
	actor := identity.ActorFromContext(c.Request.Context())
	item, err := h.Assessments.Submit(c.Request.Context(), input, actor)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, item, nil)
}

// @Summary Team aggregate for a period
// @Tags assessments
// @Param project_id path int true "project id"
// @Param period query string false "YYYY-MM, defaults to latest"
// @Success 200 {object} service.TeamAssessment
// @Router /api/v1/projects/{project_id}/assessments/team [get]
func (h *AssessmentsHandler) team(c *gin.Context) {
	if h.Assessments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	period := strings.TrimSpace(c.Query("period"))
	out, err := h.Assessments.Team(c.Request.Context(), projectID, period)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Freshly computed capability alerts for a project
// @Tags assessments
// @Param project_id path int true "project id"
// @Success 200 {array} service.Alert
// @Router /api/v1/projects/{project_id}/assessments/capability-alerts [get]
func (h *AssessmentsHandler) capabilityAlerts(c *gin.Context) {
	if h.Assessments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	alerts, err := h.Assessments.CheckCapabilityAlerts(c.Request.Context(), projectID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, alerts, nil)
}

// @Summary One member's assessment history
// @Tags assessments
// @Param member_id path int true "member id"
// @Success 200 {object} service.AssessmentTrend
// @Router /api/v1/members/{member_id}/assessments/trend [get]
func (h *AssessmentsHandler) trend(c *gin.Context) {
	if h.Assessments == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	memberID := uint64QueryParam(c, "member_id")
	if memberID == 0 {
		Error(c, http.StatusBadRequest, "invalid member_id", nil)
		return
	}
	out, err := h.Assessments.Trend(c.Request.Context(), memberID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}
