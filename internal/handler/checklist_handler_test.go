package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/openchecklist/checklist-api/internal/dto"
	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/internal/service"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
)

type checklistServiceMock struct {
	detail        *models.ChecklistDetail
	summaries     []dto.ChecklistSummary
	lastSort      models.SortOrder
	createdReq    dto.CreateChecklistRequest
	createdUpload *service.FileUpload
	updateReq     dto.UpdateChecklistRequest
	deletedID     int64
	err           error
}

func (m *checklistServiceMock) Create(ctx context.Context, req dto.CreateChecklistRequest, upload *service.FileUpload) (*models.ChecklistDetail, error) {
	m.createdReq = req
	m.createdUpload = upload
	return m.detail, m.err
}

func (m *checklistServiceMock) Get(ctx context.Context, id int64) (*models.ChecklistDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func (m *checklistServiceMock) List(ctx context.Context, sort models.SortOrder) ([]dto.ChecklistSummary, error) {
	m.lastSort = sort
	return m.summaries, m.err
}

func (m *checklistServiceMock) Search(ctx context.Context, queryText string) ([]dto.ChecklistSummary, error) {
	return m.summaries, m.err
}

func (m *checklistServiceMock) ListByCategory(ctx context.Context, category string) ([]dto.ChecklistSummary, error) {
	return m.summaries, m.err
}

func (m *checklistServiceMock) ListCategories(ctx context.Context) ([]string, error) {
	return []string{"Other"}, m.err
}

func (m *checklistServiceMock) Stats(ctx context.Context) (*models.Stats, error) {
	return &models.Stats{TotalChecklists: 2}, m.err
}

func (m *checklistServiceMock) Update(ctx context.Context, id int64, req dto.UpdateChecklistRequest) (*models.ChecklistDetail, error) {
	m.updateReq = req
	return m.detail, m.err
}

func (m *checklistServiceMock) ReplaceFile(ctx context.Context, id int64, upload *service.FileUpload) (*models.ChecklistDetail, error) {
	m.createdUpload = upload
	return m.detail, m.err
}

func (m *checklistServiceMock) Delete(ctx context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

type downloadServiceMock struct {
	resolution *service.Resolution
	meta       service.RequestMeta
	format     models.Format
	err        error
}

func (m *downloadServiceMock) Resolve(ctx context.Context, id int64, format models.Format, meta service.RequestMeta) (*service.Resolution, error) {
	m.format = format
	m.meta = meta
	if m.err != nil {
		return nil, m.err
	}
	return m.resolution, nil
}

func newChecklistRouter(svc *checklistServiceMock, downloads *downloadServiceMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewChecklistHandler(svc, downloads)
	r := gin.New()
	r.GET("/checklists", h.List)
	r.GET("/checklists/:id", h.Get)
	r.GET("/checklists/:id/download", h.Download)
	r.GET("/search", h.Search)
	r.GET("/stats", h.Stats)
	r.POST("/admin/checklists", h.Create)
	r.PUT("/admin/checklists/:id", h.Update)
	r.DELETE("/admin/checklists/:id", h.Delete)
	return r
}

func sampleDetail() *models.ChecklistDetail {
	return &models.ChecklistDetail{
		Checklist: models.Checklist{ID: 1, Title: "Launch", Description: "desc"},
		Features:  []string{"Offline"},
	}
}

func TestChecklistHandlerListSort(t *testing.T) {
	svc := &checklistServiceMock{summaries: []dto.ChecklistSummary{{ID: 1, Title: "Launch"}}}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists?sort=popular", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.SortPopular, svc.lastSort)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/checklists?sort=bogus", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, models.SortNewest, svc.lastSort)
}

func TestChecklistHandlerGetInvalidID(t *testing.T) {
	router := newChecklistRouter(&checklistServiceMock{}, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/abc", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChecklistHandlerGetNotFound(t *testing.T) {
	svc := &checklistServiceMock{err: appErrors.ErrNotFound}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/9", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	var envelope struct {
		Error *appErrors.Error `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestChecklistHandlerDownload(t *testing.T) {
	downloads := &downloadServiceMock{resolution: &service.Resolution{
		Data:     []byte("%PDF"),
		Filename: "launch-v1.0.pdf",
		MIMEType: "application/pdf",
		Format:   models.FormatPDF,
	}}
	router := newChecklistRouter(&checklistServiceMock{}, downloads)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/1/download?format=pdf", nil)
	req.Header.Set("User-Agent", "curl/8.0")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), `filename="launch-v1.0.pdf"`)
	require.Equal(t, []byte("%PDF"), w.Body.Bytes())
	require.Equal(t, models.FormatPDF, downloads.format)
	require.Equal(t, "curl/8.0", downloads.meta.UserAgent)
}

func TestChecklistHandlerDownloadDefaultsToPDF(t *testing.T) {
	downloads := &downloadServiceMock{resolution: &service.Resolution{MIMEType: "application/pdf"}}
	router := newChecklistRouter(&checklistServiceMock{}, downloads)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/1/download", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.FormatPDF, downloads.format)
}

func TestChecklistHandlerDownloadBadFormat(t *testing.T) {
	router := newChecklistRouter(&checklistServiceMock{}, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/1/download?format=docx", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChecklistHandlerDownloadNotImplemented(t *testing.T) {
	downloads := &downloadServiceMock{err: appErrors.ErrNotImplemented}
	router := newChecklistRouter(&checklistServiceMock{}, downloads)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/checklists/1/download?format=excel", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestChecklistHandlerCreateJSON(t *testing.T) {
	svc := &checklistServiceMock{detail: sampleDetail()}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	body := `{"title":"Launch","description":"desc","items":[{"text":"one","phase":"Setup"}]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/checklists", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Launch", svc.createdReq.Title)
	require.Len(t, svc.createdReq.Items, 1)
	require.Nil(t, svc.createdUpload)
}

func TestChecklistHandlerCreateMultipartWithFile(t *testing.T) {
	svc := &checklistServiceMock{detail: sampleDetail()}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Launch"))
	require.NoError(t, mw.WriteField("description", "desc"))
	require.NoError(t, mw.WriteField("features", "Offline\nPrintable"))
	part, err := mw.CreateFormFile("file", "guide.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/checklists", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "Launch", svc.createdReq.Title)
	require.Equal(t, "Offline\nPrintable", svc.createdReq.FeaturesRaw)
	require.NotNil(t, svc.createdUpload)
	require.Equal(t, "guide.pdf", svc.createdUpload.Filename)
}

func TestChecklistHandlerCreateMissingTitle(t *testing.T) {
	router := newChecklistRouter(&checklistServiceMock{}, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/admin/checklists", bytes.NewBufferString(`{"description":"d"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChecklistHandlerUpdate(t *testing.T) {
	svc := &checklistServiceMock{detail: sampleDetail()}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/admin/checklists/1", bytes.NewBufferString(`{"title":"Renamed"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.updateReq.Title)
	require.Equal(t, "Renamed", *svc.updateReq.Title)
	require.Nil(t, svc.updateReq.Description)
}

func TestChecklistHandlerDelete(t *testing.T) {
	svc := &checklistServiceMock{}
	router := newChecklistRouter(svc, &downloadServiceMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/admin/checklists/7", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, int64(7), svc.deletedID)
}
