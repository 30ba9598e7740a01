package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"opsmonitor/internal/models"
	"opsmonitor/internal/repository"
)

type ProjectsHandler struct {
	Repo repository.Repository
}

func (h *ProjectsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/projects")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:project_id", h.get)
	g.POST("/:project_id/investments", h.createInvestment)
	g.POST("/:project_id/distributions", h.createDistribution)
}

type createProjectRequest struct {
	Name             string          `json:"name" binding:"required"`
	Status           string          `json:"status"`
	FundingTarget    decimal.Decimal `json:"funding_target"`
	CurrentValuation decimal.Decimal `json:"current_valuation"`
}

// @Summary Create project
// @Tags projects
// @Accept json
// @Param body body createProjectRequest true "project"
// @Success 200 {object} models.Project
// @Router /api/v1/projects [post]
func (h *ProjectsHandler) create(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "active"
	}
	item := &models.Project{
		Name:             strings.TrimSpace(req.Name),
		Status:           status,
		FundingTarget:    req.FundingTarget,
		CurrentValuation: req.CurrentValuation,
	}
	if err := h.Repo.CreateProject(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

// @Summary List projects
// @Tags projects
// @Param status query string false "filter by status"
// @Success 200 {array} models.Project
// @Router /api/v1/projects [get]
func (h *ProjectsHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListProjectsParams{
		Limit:   limit,
		Offset:  offset,
		Status:  strQueryPtr(c, "status"),
		OrderBy: "created_at",
		Asc:     boolPtr(false),
	}
	items, err := h.Repo.ListProjects(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountProjects(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Get project
// @Tags projects
// @Param project_id path int true "project id"
// @Success 200 {object} models.Project
// @Router /api/v1/projects/{project_id} [get]
func (h *ProjectsHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	item, err := h.Repo.GetProjectByID(c.Request.Context(), projectID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "project not found", nil)
		return
	}
	Ok(c, item, nil)
}

type createInvestmentRequest struct {
	InvestorID uint64          `json:"investor_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// @Summary Record investment
// @Tags projects
// @Accept json
// @Param project_id path int true "project id"
// @Param body body createInvestmentRequest true "investment"
// @Success 200 {object} models.Investment
// @Router /api/v1/projects/{project_id}/investments [post]
func (h *ProjectsHandler) createInvestment(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	var req createInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Amount.IsNegative() {
		Error(c, http.StatusBadRequest, "amount must not be negative", nil)
		return
	}
	project, err := h.Repo.GetProjectByID(c.Request.Context(), projectID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if project == nil {
		Error(c, http.StatusNotFound, "project not found", nil)
		return
	}
	item := &models.Investment{
		InvestorID: req.InvestorID,
		ProjectID:  projectID,
		Amount:     req.Amount,
	}
	if err := h.Repo.CreateInvestment(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}

type createDistributionRequest struct {
	InvestorID    uint64          `json:"investor_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	DistributedAt *string         `json:"distributed_at"`
}

// @Summary Record distribution
// @Tags projects
// @Accept json
// @Param project_id path int true "project id"
// @Param body body createDistributionRequest true "distribution"
// @Success 200 {object} models.Distribution
// @Router /api/v1/projects/{project_id}/distributions [post]
func (h *ProjectsHandler) createDistribution(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	projectID := uint64QueryParam(c, "project_id")
	if projectID == 0 {
		Error(c, http.StatusBadRequest, "invalid project_id", nil)
		return
	}
	var req createDistributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	if req.Amount.IsNegative() {
		Error(c, http.StatusBadRequest, "amount must not be negative", nil)
		return
	}
	distributedAt := time.Now().UTC()
	if req.DistributedAt != nil && strings.TrimSpace(*req.DistributedAt) != "" {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.DistributedAt))
		if err != nil {
			Error(c, http.StatusBadRequest, "invalid distributed_at", nil)
			return
		}
		distributedAt = ts.UTC()
	}
	investment, err := h.Repo.GetInvestment(c.Request.Context(), req.InvestorID, projectID)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if investment == nil {
		Error(c, http.StatusNotFound, "investment not found", nil)
		return
	}
	item := &models.Distribution{
		InvestorID:    req.InvestorID,
		ProjectID:     projectID,
		Amount:        req.Amount,
		DistributedAt: distributedAt,
	}
	if err := h.Repo.CreateDistribution(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, item, nil)
}
