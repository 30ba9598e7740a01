package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"opsmonitor/internal/service"
)

type AnalyticsHandler struct {
	ProfitLoss *service.ProfitLossService
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/projects/:project_id/analytics/summary", h.summary)
	g.GET("/projects/:project_id/analytics/trend", h.trend)
	g.GET("/projects/:project_id/analytics/loss-alerts", h.lossAlerts)
	g.GET("/analytics/compare", h.compare)
	g.GET("/investors/:investor_id/projects/:project_id/roi", h.roi)
}

// @Summary Profit/loss summary over a date range
// @Tags analytics
// @Param project_id path int true "project id"
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} service.ProfitLossSummary
// @Router /api/v1/projects/{project_id}/analytics/summary [get]
func (h *AnalyticsHandler) summary(c *gin.Context) {
	if h.ProfitLoss == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	from, okFrom := dateQuery(c, "from")
	to, okTo := dateQuery(c, "to")
	if !okFrom || !okTo {
		Error(c, http.StatusBadRequest, "from and to are required, want YYYY-MM-DD", nil)
		return
	}
	out, err := h.ProfitLoss.Summary(c.Request.Context(), projectID, from, to)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Profit/loss trend bucketed by granularity
// @Tags analytics
// @Param project_id path int true "project id"
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Param granularity query string false "daily|weekly|monthly|quarterly|yearly"
// @Success 200 {object} service.ProfitLossTrend
// @Router /api/v1/projects/{project_id}/analytics/trend [get]
func (h *AnalyticsHandler) trend(c *gin.Context) {
	if h.ProfitLoss == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	from, okFrom := dateQuery(c, "from")
	to, okTo := dateQuery(c, "to")
	if !okFrom || !okTo {
		Error(c, http.StatusBadRequest, "from and to are required, want YYYY-MM-DD", nil)
		return
	}
	granularity := strings.TrimSpace(strings.ToLower(c.Query("granularity")))
	if granularity == "" {
		granularity = service.GranularityDaily
	}
	out, err := h.ProfitLoss.Trend(c.Request.Context(), projectID, from, to, granularity)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Freshly computed loss alerts for a project
// @Tags analytics
// @Param project_id path int true "project id"
// @Success 200 {array} service.Alert
// @Router /api/v1/projects/{project_id}/analytics/loss-alerts [get]
func (h *AnalyticsHandler) lossAlerts(c *gin.Context) {
	if h.ProfitLoss == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	alerts, err := h.ProfitLoss.CheckLossAlerts(c.Request.Context(), projectID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, alerts, nil)
}

// @Summary Side-by-side comparison of projects
// @Tags analytics
// @Param project_ids query string true "comma-separated ids"
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} service.ProjectComparison
// @Router /api/v1/analytics/compare [get]
func (h *AnalyticsHandler) compare(c *gin.Context) {
	if h.ProfitLoss == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	var projectIDs []uint64
	for _, raw := range strings.Split(c.Query("project_ids"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			Error(c, http.StatusBadRequest, "invalid project_ids", nil)
			return
		}
		projectIDs = append(projectIDs, id)
	}
	if len(projectIDs) == 0 {
		Error(c, http.StatusBadRequest, "project_ids is required", nil)
		return
	}
	from, okFrom := dateQuery(c, "from")
	to, okTo := dateQuery(c, "to")
	if !okFrom || !okTo {
		Error(c, http.StatusBadRequest, "from and to are required, want YYYY-MM-DD", nil)
		return
	}
	out, err := h.ProfitLoss.Compare(c.Request.Context(), projectIDs, from, to)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}

// @Summary Investor ROI for one project
// @Tags analytics
// @Param investor_id path int true "investor id"
// @Param project_id path int true "project id"
// @Success 200 {object} service.ROIAnalysis
// @Router /api/v1/investors/{investor_id}/projects/{project_id}/roi [get]
func (h *AnalyticsHandler) roi(c *gin.Context) {
	if h.ProfitLoss == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	investorID := uint64QueryParam(c, "investor_id")
	projectID := uint64QueryParam(c, "project_id")
	if investorID == 0 || projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid investor_id or project_id", nil)
		return
	}
	out, err := h.ProfitLoss.ROI(c.Request.Context(), investorID, projectID)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, out, nil)
}
