package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openchecklist/checklist-api/internal/models"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/export"
)

type downloadStoreStub struct {
	detail *models.ChecklistDetail
}

func (s *downloadStoreStub) GetByID(ctx context.Context, id int64) (*models.ChecklistDetail, error) {
	if s.detail == nil || s.detail.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *s.detail
	return &copied, nil
}

type recorderStub struct {
	events []models.DownloadEvent
	err    error
}

func (r *recorderStub) Record(ctx context.Context, event *models.DownloadEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *event)
	return nil
}

type fileReaderStub struct {
	files map[string][]byte
	err   error
}

func (f *fileReaderStub) Read(filename string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.files[filename]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

type rendererStub struct {
	rendered     *export.Document
	textRendered bool
}

func (r *rendererStub) Render(doc export.Document) ([]byte, error) {
	r.rendered = &doc
	return []byte("rendered:" + doc.Title), nil
}

func (r *rendererStub) RenderText(title, body string) ([]byte, error) {
	r.textRendered = true
	return []byte("rendered-text:" + title), nil
}

type observerStub struct {
	formats []string
}

func (o *observerStub) ObserveDownload(format string) {
	o.formats = append(o.formats, format)
}

func launchDetail() *models.ChecklistDetail {
	detail := &models.ChecklistDetail{
		Checklist: models.Checklist{
			ID:          1,
			Title:       "Launch Checklist",
			Description: "Everything before shipping",
			Version:     "2.0",
			ContentKind: models.PayloadEmpty,
		},
		Features: []string{"Offline support"},
		Items: []models.ChecklistItem{
			{Phase: "Planning", ItemText: "Define scope", IsRequired: true, ItemOrder: 0},
			{Phase: "Planning", ItemText: "Pick a date", ItemOrder: 1},
			{Phase: "Execution", ItemText: "Ship it", IsRequired: true, ItemOrder: 2},
		},
	}
	return detail
}

func newDownloadFixture(detail *models.ChecklistDetail) (*DownloadService, *recorderStub, *rendererStub, *observerStub, *fileReaderStub) {
	recorder := &recorderStub{}
	renderer := &rendererStub{}
	observer := &observerStub{}
	files := &fileReaderStub{files: make(map[string][]byte)}
	svc := NewDownloadService(&downloadStoreStub{detail: detail}, recorder, files, renderer, observer, nil)
	return svc, recorder, renderer, observer, files
}

func TestDownloadServiceResolveNotFound(t *testing.T) {
	svc, _, _, _, _ := newDownloadFixture(nil)

	_, err := svc.Resolve(context.Background(), 404, models.FormatPDF, RequestMeta{})
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDownloadServiceZipEmbedded(t *testing.T) {
	detail := launchDetail()
	name := "bundle.zip"
	detail.SetPayload(models.EmbeddedPayload(models.FileZIP, name, []byte("zip-bytes")))
	svc, recorder, _, observer, _ := newDownloadFixture(detail)

	res, err := svc.Resolve(context.Background(), 1, models.FormatZIP, RequestMeta{IPAddress: "203.0.113.9"})
	require.NoError(t, err)
	require.Equal(t, []byte("zip-bytes"), res.Data)
	require.Equal(t, "bundle.zip", res.Filename)
	require.Equal(t, "application/zip", res.MIMEType)
	require.Len(t, recorder.events, 1)
	require.Equal(t, models.FormatZIP, recorder.events[0].Format)
	require.Equal(t, "203.0.113.9", recorder.events[0].IPAddress)
	require.Equal(t, []string{"zip"}, observer.formats)
}

func TestDownloadServiceZipUnavailable(t *testing.T) {
	svc, recorder, _, _, _ := newDownloadFixture(launchDetail())

	_, err := svc.Resolve(context.Background(), 1, models.FormatZIP, RequestMeta{})
	require.Equal(t, appErrors.ErrNotAvailable.Code, appErrors.FromError(err).Code)
	require.Empty(t, recorder.events)
}

func TestDownloadServicePDFEmbedded(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.EmbeddedPayload(models.FilePDF, "guide.pdf", []byte("%PDF")))
	svc, _, renderer, _, _ := newDownloadFixture(detail)

	res, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF"), res.Data)
	require.Equal(t, "guide.pdf", res.Filename)
	require.Nil(t, renderer.rendered)
}

func TestDownloadServicePDFFileRef(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.FileRefPayload(models.FilePDF, "stored.pdf"))
	svc, _, renderer, _, files := newDownloadFixture(detail)
	files.files["stored.pdf"] = []byte("%PDF stored")

	res, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF stored"), res.Data)
	require.Equal(t, "stored.pdf", res.Filename)
	require.Nil(t, renderer.rendered)
}

func TestDownloadServicePDFFileRefMissingFallsBackToSynthesis(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.FileRefPayload(models.FilePDF, "gone.pdf"))
	svc, recorder, renderer, _, _ := newDownloadFixture(detail)

	res, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, []byte("rendered:Launch Checklist"), res.Data)
	require.Equal(t, "launch-checklist-v2.0.pdf", res.Filename)
	require.NotNil(t, renderer.rendered)
	require.Len(t, recorder.events, 1)
}

func TestDownloadServicePDFFileRefReadErrorAborts(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.FileRefPayload(models.FilePDF, "locked.pdf"))
	svc, recorder, _, _, files := newDownloadFixture(detail)
	files.err = errors.New("permission denied")

	_, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
	require.Empty(t, recorder.events)
}

func TestDownloadServicePDFSynthesisGroupsPhases(t *testing.T) {
	svc, _, renderer, _, _ := newDownloadFixture(launchDetail())

	_, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.NotNil(t, renderer.rendered)
	require.Len(t, renderer.rendered.Sections, 2)
	require.Equal(t, "Planning", renderer.rendered.Sections[0].Heading)
	require.Len(t, renderer.rendered.Sections[0].Lines, 2)
	require.True(t, renderer.rendered.Sections[0].Lines[0].Required)
	require.Equal(t, "Execution", renderer.rendered.Sections[1].Heading)
}

func TestDownloadServicePDFTextPayloadRendersText(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.TextPayload("# My steps"))
	svc, _, renderer, _, _ := newDownloadFixture(detail)

	res, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.True(t, renderer.textRendered)
	require.Equal(t, []byte("rendered-text:Launch Checklist"), res.Data)
}

func TestDownloadServiceMarkdownSynthesis(t *testing.T) {
	svc, _, _, _, _ := newDownloadFixture(launchDetail())

	res, err := svc.Resolve(context.Background(), 1, models.FormatMarkdown, RequestMeta{})
	require.NoError(t, err)
	body := string(res.Data)
	require.True(t, strings.HasPrefix(body, "# Launch Checklist\n"))
	require.Contains(t, body, "## Features\n\n- Offline support")
	require.Contains(t, body, "## Planning")
	require.Contains(t, body, "- [ ] Define scope *(required)*")
	require.Contains(t, body, "- [ ] Pick a date\n")
	require.Contains(t, body, "## Execution")
	require.Equal(t, "launch-checklist-v2.0.md", res.Filename)
	require.Equal(t, "text/markdown", res.MIMEType)
}

func TestDownloadServiceMarkdownTextPayloadServedVerbatim(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.TextPayload("# My steps\n- one"))
	svc, _, _, _, _ := newDownloadFixture(detail)

	res, err := svc.Resolve(context.Background(), 1, models.FormatMarkdown, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, "# My steps\n- one", string(res.Data))
}

func TestDownloadServiceExcelNotImplemented(t *testing.T) {
	svc, recorder, _, _, _ := newDownloadFixture(launchDetail())

	_, err := svc.Resolve(context.Background(), 1, models.FormatExcel, RequestMeta{})
	require.Equal(t, appErrors.ErrNotImplemented.Code, appErrors.FromError(err).Code)
	require.Empty(t, recorder.events)
}

func TestDownloadServiceRecordFailureAbortsResponse(t *testing.T) {
	detail := launchDetail()
	detail.SetPayload(models.EmbeddedPayload(models.FileZIP, "bundle.zip", []byte("zip")))
	svc, recorder, _, observer, _ := newDownloadFixture(detail)
	recorder.err = errors.New("db down")

	_, err := svc.Resolve(context.Background(), 1, models.FormatZIP, RequestMeta{})
	require.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
	require.Empty(t, observer.formats)
}

func TestDownloadServiceBlankPhaseGetsDefaultHeading(t *testing.T) {
	detail := launchDetail()
	detail.Items = []models.ChecklistItem{{Phase: "  ", ItemText: "only one"}}
	svc, _, renderer, _, _ := newDownloadFixture(detail)

	_, err := svc.Resolve(context.Background(), 1, models.FormatPDF, RequestMeta{})
	require.NoError(t, err)
	require.Len(t, renderer.rendered.Sections, 1)
	require.Equal(t, "Checklist", renderer.rendered.Sections[0].Heading)
}
