package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openchecklist/checklist-api/internal/models"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
	"github.com/openchecklist/checklist-api/pkg/export"
)

type summaryStoreStub struct {
	summaries []models.DownloadSummary
	err       error
}

func (s *summaryStoreStub) Summary(ctx context.Context) ([]models.DownloadSummary, error) {
	return s.summaries, s.err
}

func TestAnalyticsServiceDownloadSummaryCSV(t *testing.T) {
	store := &summaryStoreStub{summaries: []models.DownloadSummary{
		{ChecklistID: 1, Title: "Launch", Downloads: 12, UniqueRequesters: 4},
		{ChecklistID: 2, Title: "Audit", Downloads: 3, UniqueRequesters: 2},
	}}
	svc := NewAnalyticsService(store, export.NewCSVExporter(), nil)

	data, err := svc.DownloadSummaryCSV(context.Background())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "checklist_id,title,downloads,unique_requesters", lines[0])
	require.Equal(t, "1,Launch,12,4", lines[1])
	require.Equal(t, "2,Audit,3,2", lines[2])
}

func TestAnalyticsServiceDownloadSummaryStoreFailure(t *testing.T) {
	store := &summaryStoreStub{err: errors.New("connection refused")}
	svc := NewAnalyticsService(store, export.NewCSVExporter(), nil)

	_, err := svc.DownloadSummary(context.Background())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)

	_, err = svc.DownloadSummaryCSV(context.Background())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
}
