package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"opsmonitor/internal/repository"
)

// AlertsHandler is the inbox over alert records the sweep persists.
type AlertsHandler struct {
	Repo repository.Repository
}

func (h *AlertsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/alerts")
	g.GET("", h.list)
	g.POST("/:alert_id/read", h.markRead)
	g.POST("/:alert_id/resolve", h.markResolved)
}

// @Summary List persisted alerts
// @Tags alerts
// @Param project_id query int false "filter by project"
// @Param alert_type query string false "loss-warning|capability-warning"
// @Param severity query string false "low|medium|high|critical"
// @Param unread query bool false "only unread when true"
// @Success 200 {array} models.AlertRecord
// @Router /api/v1/alerts [get]
func (h *AlertsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	var projectID *uint64
	if v := uint64Query(c, "project_id"); v != 0 {
		projectID = &v
	}
	params := repository.ListAlertsParams{
		ProjectID: projectID,
		AlertType: strQueryPtr(c, "alert_type"),
		Severity:  strQueryPtr(c, "severity"),
		Unread:    boolQueryPtr(c, "unread"),
		Limit:     limit,
		Offset:    offset,
	}
	items, err := h.Repo.ListAlertRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAlertRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Mark an alert read
// @Tags alerts
// @Param alert_id path int true "alert id"
// @Success 200 {object} map[string]any
// @Router /api/v1/alerts/{alert_id}/read [post]
func (h *AlertsHandler) markRead(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	alertID := uint64QueryParam(c, "alert_id")
	if alertID == 0 {
		Error(c, http.StatusBadRequest, "invalid alert_id", nil)
		return
	}
	if err := h.Repo.SetAlertRead(c.Request.Context(), alertID, true); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": alertID, "read": true}, nil)
}

// @Summary Mark an alert resolved
// @Tags alerts
// @Param alert_id path int true "alert id"
// @Success 200 {object} map[string]any
// @Router /api/v1/alerts/{alert_id}/resolve [post]
func (h *AlertsHandler) markResolved(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	alertID := uint64QueryParam(c, "alert_id")
	if alertID == 0 {
		Error(c, http.StatusBadRequest, "invalid alert_id", nil)
		return
	}
	if err := h.Repo.SetAlertResolved(c.Request.Context(), alertID, true); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": alertID, "resolved": true}, nil)
}
