package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openchecklist/checklist-api/internal/dto"
	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/internal/service"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/response"
)

type checklistService interface {
	Create(ctx context.Context, req dto.CreateChecklistRequest, upload *service.FileUpload) (*models.ChecklistDetail, error)
	Get(ctx context.Context, id int64) (*models.ChecklistDetail, error)
	List(ctx context.Context, sort models.SortOrder) ([]dto.ChecklistSummary, error)
	Search(ctx context.Context, queryText string) ([]dto.ChecklistSummary, error)
	ListByCategory(ctx context.Context, category string) ([]dto.ChecklistSummary, error)
	ListCategories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Update(ctx context.Context, id int64, req dto.UpdateChecklistRequest) (*models.ChecklistDetail, error)
	ReplaceFile(ctx context.Context, id int64, upload *service.FileUpload) (*models.ChecklistDetail, error)
	Delete(ctx context.Context, id int64) error
}

type downloadService interface {
	Resolve(ctx context.Context, id int64, format models.Format, meta service.RequestMeta) (*service.Resolution, error)
}

// ChecklistHandler exposes checklist browsing, admin CRUD and downloads.
type ChecklistHandler struct {
	service   checklistService
	downloads downloadService
}

// NewChecklistHandler builds a new handler.
func NewChecklistHandler(svc checklistService, downloads downloadService) *ChecklistHandler {
	return &ChecklistHandler{service: svc, downloads: downloads}
}

// List godoc
// @Summary List checklists
// @Tags Checklists
// @Produce json
// @Param sort query string false "Sort order: newest (default) or popular"
// @Success 200 {object} response.Envelope
// @Router /checklists [get]
func (h *ChecklistHandler) List(c *gin.Context) {
	sort := models.SortNewest
	if c.Query("sort") == string(models.SortPopular) {
		sort = models.SortPopular
	}
	summaries, err := h.service.List(c.Request.Context(), sort)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries)
}

// Get godoc
// @Summary Get a checklist with its items and features
// @Tags Checklists
// @Produce json
// @Param id path int true "Checklist ID"
// @Success 200 {object} response.Envelope
// @Router /checklists/{id} [get]
func (h *ChecklistHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Download godoc
// @Summary Download a checklist in the requested format
// @Tags Checklists
// @Produce octet-stream
// @Param id path int true "Checklist ID"
// @Param format query string true "pdf | markdown | excel | zip"
// @Success 200 {file} binary
// @Router /checklists/{id}/download [get]
func (h *ChecklistHandler) Download(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	format, ok := models.ParseFormat(c.DefaultQuery("format", string(models.FormatPDF)))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be pdf, markdown, excel or zip"))
		return
	}
	meta := service.RequestMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	resolution, err := h.downloads.Resolve(c.Request.Context(), id, format, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resolution.Filename))
	c.Data(http.StatusOK, resolution.MIMEType, resolution.Data)
}

// Search godoc
// @Summary Search checklists
// @Tags Checklists
// @Produce json
// @Param q query string true "Query text"
// @Success 200 {object} response.Envelope
// @Router /search [get]
func (h *ChecklistHandler) Search(c *gin.Context) {
	results, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// Categories godoc
// @Summary List categories
// @Tags Checklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *ChecklistHandler) Categories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories)
}

// ByCategory godoc
// @Summary List checklists in a category
// @Tags Checklists
// @Produce json
// @Param category path string true "Category label"
// @Success 200 {object} response.Envelope
// @Router /categories/{category}/checklists [get]
func (h *ChecklistHandler) ByCategory(c *gin.Context) {
	summaries, err := h.service.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries)
}

// Stats godoc
// @Summary Aggregate site counters
// @Tags Checklists
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /stats [get]
func (h *ChecklistHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Create godoc
// @Summary Create a checklist (admin)
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param icon formData string false "Icon glyph"
// @Param category formData string false "Category"
// @Param content formData string false "Markdown body"
// @Param features formData string false "Newline-separated features"
// @Param file formData file false "PDF or ZIP payload"
// @Success 201 {object} response.Envelope
// @Router /admin/checklists [post]
func (h *ChecklistHandler) Create(c *gin.Context) {
	var req dto.CreateChecklistRequest
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") || contentType == "application/x-www-form-urlencoded" {
		if err := c.ShouldBind(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checklist payload"))
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid checklist payload"))
			return
		}
	}

	upload, err := fileUploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	detail, err := h.service.Create(c.Request.Context(), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Partially update a checklist (admin)
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Checklist ID"
// @Param payload body dto.UpdateChecklistRequest true "Partial update"
// @Success 200 {object} response.Envelope
// @Router /admin/checklists/{id} [put]
func (h *ChecklistHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	detail, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// UploadFile godoc
// @Summary Replace the stored file payload of a checklist (admin)
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Checklist ID"
// @Param file formData file true "PDF or ZIP payload"
// @Success 200 {object} response.Envelope
// @Router /admin/checklists/{id}/file [post]
func (h *ChecklistHandler) UploadFile(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	upload, err := fileUploadFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if upload == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	detail, err := h.service.ReplaceFile(c.Request.Context(), id, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Delete godoc
// @Summary Delete a checklist (admin)
// @Tags Admin
// @Param id path int true "Checklist ID"
// @Success 204
// @Router /admin/checklists/{id} [delete]
func (h *ChecklistHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return 0, false
	}
	return id, true
}

func fileUploadFromForm(c *gin.Context) (*service.FileUpload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile || strings.Contains(err.Error(), "no such file") {
			return nil, nil
		}
		// Non-multipart requests have no form at all.
		return nil, nil
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open uploaded file")
	}
	// Closed by the request lifecycle when the handler returns.
	return &service.FileUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  src,
	}, nil
}
