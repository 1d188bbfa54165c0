package service

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/internal/repository"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/export"
)

type downloadChecklistStore interface {
	GetByID(ctx context.Context, id int64) (*models.ChecklistDetail, error)
}

type downloadRecorder interface {
	Record(ctx context.Context, event *models.DownloadEvent) error
}

type downloadFileReader interface {
	Read(filename string) ([]byte, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
	RenderText(title, body string) ([]byte, error)
}

type downloadObserver interface {
	ObserveDownload(format string)
}

// RequestMeta identifies the requester for the download event log.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Resolution is the outcome of a successful download request.
type Resolution struct {
	Data     []byte
	Filename string
	MIMEType string
	Format   models.Format
}

// DownloadService resolves download requests through an ordered fallback
// chain: stored binary, referenced file, then synthesis from the
// aggregate's rows. Side effects (counter, event log) happen only on
// successful resolution.
type DownloadService struct {
	checklists downloadChecklistStore
	downloads  downloadRecorder
	files      downloadFileReader
	renderer   documentRenderer
	observer   downloadObserver
	logger     *zap.Logger
}

// NewDownloadService constructs the resolver.
func NewDownloadService(checklists downloadChecklistStore, downloads downloadRecorder, files downloadFileReader, renderer documentRenderer, observer downloadObserver, logger *zap.Logger) *DownloadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{
		checklists: checklists,
		downloads:  downloads,
		files:      files,
		renderer:   renderer,
		observer:   observer,
		logger:     logger,
	}
}

// Resolve produces the bytes, filename and MIME type for a download
// request and records the download once resolution succeeds.
func (s *DownloadService) Resolve(ctx context.Context, id int64, format models.Format, meta RequestMeta) (*Resolution, error) {
	detail, err := s.checklists.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load checklist")
	}

	resolution, err := s.resolve(detail, format)
	if err != nil {
		return nil, err
	}

	event := &models.DownloadEvent{
		ChecklistID: id,
		Format:      format,
		IPAddress:   meta.IPAddress,
		UserAgent:   meta.UserAgent,
	}
	if err := s.downloads.Record(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to record download")
	}
	if s.observer != nil {
		s.observer.ObserveDownload(string(format))
	}
	s.logger.Info("download resolved",
		zap.Int64("checklist_id", id),
		zap.String("format", string(format)),
		zap.Int("bytes", len(resolution.Data)),
	)
	return resolution, nil
}

func (s *DownloadService) resolve(detail *models.ChecklistDetail, format models.Format) (*Resolution, error) {
	payload := detail.Payload()

	switch format {
	case models.FormatZIP:
		if payload.Is(models.PayloadEmbedded, models.FileZIP) {
			return &Resolution{
				Data:     payload.FileData,
				Filename: s.filename(detail, payload, "zip"),
				MIMEType: "application/zip",
				Format:   format,
			}, nil
		}
		return nil, appErrors.Clone(appErrors.ErrNotAvailable, "no zip archive is available for this checklist")

	case models.FormatPDF:
		if payload.Is(models.PayloadEmbedded, models.FilePDF) {
			return &Resolution{
				Data:     payload.FileData,
				Filename: s.filename(detail, payload, "pdf"),
				MIMEType: "application/pdf",
				Format:   format,
			}, nil
		}
		if payload.Is(models.PayloadFileRef, models.FilePDF) && payload.FileName != nil && s.files != nil {
			data, err := s.files.Read(*payload.FileName)
			if err == nil {
				return &Resolution{
					Data:     data,
					Filename: s.filename(detail, payload, "pdf"),
					MIMEType: "application/pdf",
					Format:   format,
				}, nil
			}
			if !os.IsNotExist(err) {
				return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to read stored file")
			}
			// Referenced file is gone; fall through to synthesis.
			s.logger.Warn("referenced file missing, synthesizing",
				zap.Int64("checklist_id", detail.ID),
				zap.String("file", *payload.FileName),
			)
		}
		data, err := s.renderPDF(detail, payload)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &Resolution{
			Data:     data,
			Filename: s.derivedFilename(detail, "pdf"),
			MIMEType: "application/pdf",
			Format:   format,
		}, nil

	case models.FormatMarkdown:
		body := s.markdownBody(detail, payload)
		return &Resolution{
			Data:     []byte(body),
			Filename: s.derivedFilename(detail, "md"),
			MIMEType: "text/markdown",
			Format:   format,
		}, nil

	case models.FormatExcel:
		return nil, appErrors.Clone(appErrors.ErrNotImplemented, "excel export is not implemented")

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown download format")
	}
}

func (s *DownloadService) renderPDF(detail *models.ChecklistDetail, payload models.ContentPayload) ([]byte, error) {
	if payload.Kind == models.PayloadText && payload.Text != nil {
		return s.renderer.RenderText(detail.Title, *payload.Text)
	}
	return s.renderer.Render(buildDocument(detail))
}

func (s *DownloadService) markdownBody(detail *models.ChecklistDetail, payload models.ContentPayload) string {
	if payload.Kind == models.PayloadText && payload.Text != nil {
		return *payload.Text
	}
	return renderMarkdown(buildDocument(detail))
}

// buildDocument groups items by phase in first-seen order, marking each
// line with its required flag.
func buildDocument(detail *models.ChecklistDetail) export.Document {
	doc := export.Document{
		Title:       detail.Title,
		Description: detail.Description,
		Features:    detail.Features,
	}
	index := make(map[string]int)
	for _, item := range detail.Items {
		phase := item.Phase
		if strings.TrimSpace(phase) == "" {
			phase = "Checklist"
		}
		pos, ok := index[phase]
		if !ok {
			doc.Sections = append(doc.Sections, export.Section{Heading: phase})
			pos = len(doc.Sections) - 1
			index[phase] = pos
		}
		doc.Sections[pos].Lines = append(doc.Sections[pos].Lines, export.Line{
			Text:     item.ItemText,
			Required: item.IsRequired,
		})
	}
	return doc
}

func renderMarkdown(doc export.Document) string {
	var b strings.Builder
	b.WriteString("# " + doc.Title + "\n\n")
	if doc.Description != "" {
		b.WriteString(doc.Description + "\n\n")
	}
	if len(doc.Features) > 0 {
		b.WriteString("## Features\n\n")
		for _, feature := range doc.Features {
			b.WriteString("- " + feature + "\n")
		}
		b.WriteString("\n")
	}
	for _, section := range doc.Sections {
		b.WriteString("## " + section.Heading + "\n\n")
		for _, line := range section.Lines {
			b.WriteString("- [ ] " + line.Text)
			if line.Required {
				b.WriteString(" *(required)*")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// filename prefers the stored original filename, sanitised, over the
// derived slug name.
func (s *DownloadService) filename(detail *models.ChecklistDetail, payload models.ContentPayload, ext string) string {
	if payload.FileName != nil {
		if clean := sanitizeFilename(*payload.FileName); clean != "" {
			if !strings.HasSuffix(strings.ToLower(clean), "."+ext) {
				clean += "." + ext
			}
			return clean
		}
	}
	return s.derivedFilename(detail, ext)
}

func (s *DownloadService) derivedFilename(detail *models.ChecklistDetail, ext string) string {
	base := slugify(detail.Title)
	if base == "" {
		base = "checklist"
	}
	version := detail.Version
	if version == "" {
		version = models.DefaultVersion
	}
	return base + "-v" + version + "." + ext
}
