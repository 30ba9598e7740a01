package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"opsmonitor/internal/identity"
	"opsmonitor/internal/repository"
	"opsmonitor/internal/service"
)

type RecordsHandler struct {
	Records *service.RecordService
	Repo    repository.Repository
}

func (h *RecordsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/projects/:project_id/records")
	g.POST("/validate", h.validate)
	g.PUT("", h.save)
	g.GET("", h.list)
	g.GET("/history", h.history)
	g.GET("/integrity", h.integrity)
}

type recordRequest struct {
	Date          string               `json:"date" binding:"required"`
	Revenue       decimal.Decimal      `json:"revenue"`
	Expenses      []expenseItemRequest `json:"expenses"`
	CustomerCount *int                 `json:"customer_count"`
	Note          *string              `json:"note"`
	Reason        *string              `json:"reason"`
}

type expenseItemRequest struct {
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	ReceiptURL  *string         `json:"receipt_url"`
}

func (r recordRequest) toInput() (service.RecordInput, bool) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
	if err != nil {
		return service.RecordInput{}, false
	}
	input := service.RecordInput{
		Date:          date.UTC(),
		Revenue:       r.Revenue,
		CustomerCount: r.CustomerCount,
		Note:          r.Note,
	}
	for _, item := range r.Expenses {
		input.Expenses = append(input.Expenses, service.ExpenseItemInput{
			Category:    strings.TrimSpace(strings.ToLower(item.Category)),
			Amount:      item.Amount,
			Description: item.Description,
			ReceiptURL:  item.ReceiptURL,
		})
	}
	return input, true
}

// @Summary Validate a daily record without saving
// @Tags records
// @Accept json
// @Param project_id path int true "project id"
// @Param body body recordRequest true "record"
// @Success 200 {object} service.ValidationResult
// @Router /api/v1/projects/{project_id}/records/validate [post]
func (h *RecordsHandler) validate(c *gin.Context) {
	if h.Records == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	input, ok := req.toInput()
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date, want YYYY-MM-DD", nil)
		return
	}
	result, err := h.Records.Validate(c.Request.Context(), projectID, input)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}

// @Summary Save a daily record (create or overwrite)
// @Tags records
// @Accept json
// @Param project_id path int true "project id"
// @Param body body recordRequest true "record"
// @Success 200 {object} service.SaveResult
// @Router /api/v1/projects/{project_id}/records [put]
func (h *RecordsHandler) save(c *gin.Context) {
	if h.Records == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	input, ok := req.toInput()
	if !ok {
		Error(c, http.StatusBadRequest, "invalid date, want YYYY-MM-DD", nil)
		return
	}
	actor := identity.ActorFromContext(c.Request.Context())
	result, err := h.Records.Save(c.Request.Context(), projectID, input, actor, req.Reason)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, result, nil)
}

// @Summary List daily records
// @Tags records
// @Param project_id path int true "project id"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {array} models.OperationalRecord
// @Router /api/v1/projects/{project_id}/records [get]
func (h *RecordsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListRecordsParams{
		ProjectID: projectID,
		From:      timeQueryPtr(c, "from"),
		To:        timeQueryPtr(c, "to"),
		Limit:     limit,
		Offset:    offset,
		OrderBy:   "record_date",
		Asc:       boolPtr(false),
	}
	items, err := h.Repo.ListRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Field-level modification history
// @Tags records
// @Param project_id path int true "project id"
// @Success 200 {array} models.ModificationHistory
// @Router /api/v1/projects/{project_id}/records/history [get]
func (h *RecordsHandler) history(c *gin.Context) {
	if h.Records == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	var recordID *uint64
	if v := uint64Query(c, "record_id"); v != 0 {
		recordID = &v
	}
	params := repository.ListHistoryParams{
		Table:    strQueryPtr(c, "table"),
		RecordID: recordID,
		Since:    timeQueryPtr(c, "since"),
		Until:    timeQueryPtr(c, "until"),
		Limit:    limit,
		Offset:   offset,
	}
	items, total, err := h.Records.ModificationHistory(c.Request.Context(), projectID, params)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Data integrity report for a date range
// @Tags records
// @Param project_id path int true "project id"
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} service.IntegrityReport
// @Router /api/v1/projects/{project_id}/records/integrity [get]
func (h *RecordsHandler) integrity(c *gin.Context) {
	if h.Records == nil {
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
	report, err := h.Records.IntegrityReport(c.Request.Context(), projectID, from, to)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Ok(c, report, nil)
}
