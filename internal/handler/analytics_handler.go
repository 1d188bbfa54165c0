package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/pkg/response"
)

type analyticsService interface {
	DownloadSummary(ctx context.Context) ([]models.DownloadSummary, error)
	DownloadSummaryCSV(ctx context.Context) ([]byte, error)
}

// AnalyticsHandler exposes per-checklist download analytics to admins.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler builds a new handler.
func NewAnalyticsHandler(svc analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: svc}
}

// Downloads godoc
// @Summary Per-checklist download totals (admin)
// @Tags Admin
// @Produce json
// @Param format query string false "json (default) or csv"
// @Success 200 {object} response.Envelope
// @Router /admin/analytics/downloads [get]
func (h *AnalyticsHandler) Downloads(c *gin.Context) {
	if c.Query("format") == "csv" {
		data, err := h.service.DownloadSummaryCSV(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="downloads.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
		return
	}
	summary, err := h.service.DownloadSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}
