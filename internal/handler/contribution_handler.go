package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openchecklist/checklist-api/internal/dto"
	"github.com/openchecklist/checklist-api/internal/models"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/response"
)

type contributionService interface {
	Submit(ctx context.Context, req dto.SubmitContributionRequest) (*models.Contribution, error)
	ListPending(ctx context.Context) ([]models.Contribution, error)
	Review(ctx context.Context, id int64, req dto.ReviewContributionRequest) (*models.Contribution, error)
	Stats(ctx context.Context) (*models.ContributionStats, error)
	ListApproved(ctx context.Context, checklistID int64, limit int) ([]models.Contribution, error)
}

// ContributionHandler exposes the community contribution queue.
type ContributionHandler struct {
	service contributionService
}

// NewContributionHandler builds a new handler.
func NewContributionHandler(svc contributionService) *ContributionHandler {
	return &ContributionHandler{service: svc}
}

// Submit godoc
// @Summary Submit a community contribution
// @Tags Contributions
// @Accept json
// @Produce json
// @Param payload body dto.SubmitContributionRequest true "Contribution"
// @Success 201 {object} response.Envelope
// @Router /contributions [post]
func (h *ContributionHandler) Submit(c *gin.Context) {
	var req dto.SubmitContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contribution payload"))
		return
	}
	contribution, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contribution)
}

// ListApproved godoc
// @Summary Recently approved contributions for a checklist
// @Tags Contributions
// @Produce json
// @Param id path int true "Checklist ID"
// @Param limit query int false "Max rows, capped at 10"
// @Success 200 {object} response.Envelope
// @Router /checklists/{id}/contributions [get]
func (h *ContributionHandler) ListApproved(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	contributions, err := h.service.ListApproved(c.Request.Context(), id, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributions)
}

// ListPending godoc
// @Summary Pending contributions awaiting review (admin)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/contributions [get]
func (h *ContributionHandler) ListPending(c *gin.Context) {
	contributions, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contributions)
}

// Review godoc
// @Summary Approve or reject a contribution (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Contribution ID"
// @Param payload body dto.ReviewContributionRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /admin/contributions/{id}/review [post]
func (h *ContributionHandler) Review(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ReviewContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	contribution, err := h.service.Review(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contribution)
}

// Stats godoc
// @Summary Contribution queue counters (admin)
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/contributions/stats [get]
func (h *ContributionHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}
