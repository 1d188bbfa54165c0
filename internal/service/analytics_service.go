package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/openchecklist/checklist-api/internal/models"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/export"
)

type downloadSummaryStore interface {
	Summary(ctx context.Context) ([]models.DownloadSummary, error)
}

type tabularRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// AnalyticsService serves download analytics for the admin dashboard.
type AnalyticsService struct {
	downloads downloadSummaryStore
	csv       tabularRenderer
	logger    *zap.Logger
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(downloads downloadSummaryStore, csv tabularRenderer, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{downloads: downloads, csv: csv, logger: logger}
}

// DownloadSummary lists per-checklist download volume, popular first.
func (s *AnalyticsService) DownloadSummary(ctx context.Context) ([]models.DownloadSummary, error) {
	summaries, err := s.downloads.Summary(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load download analytics")
	}
	return summaries, nil
}

// DownloadSummaryCSV renders the summary as a CSV export.
func (s *AnalyticsService) DownloadSummaryCSV(ctx context.Context) ([]byte, error) {
	summaries, err := s.DownloadSummary(ctx)
	if err != nil {
		return nil, err
	}
	dataset := export.Dataset{
		Headers: []string{"checklist_id", "title", "downloads", "unique_requesters"},
		Rows:    make([]map[string]string, 0, len(summaries)),
	}
	for _, summary := range summaries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"checklist_id":      strconv.FormatInt(summary.ChecklistID, 10),
			"title":             summary.Title,
			"downloads":         strconv.Itoa(summary.Downloads),
			"unique_requesters": strconv.Itoa(summary.UniqueRequesters),
		})
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render analytics csv")
	}
	return data, nil
}
