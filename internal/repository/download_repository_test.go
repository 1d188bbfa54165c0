package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/openchecklist/checklist-api/internal/models"
)

func TestDownloadRepositoryRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDownloadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists SET downloads = downloads + 1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO downloads")).
		WithArgs(int64(5), "pdf", "203.0.113.9", "curl/8.0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	event := &models.DownloadEvent{
		ChecklistID: 5,
		Format:      models.FormatPDF,
		IPAddress:   "203.0.113.9",
		UserAgent:   "curl/8.0",
	}
	require.NoError(t, repo.Record(context.Background(), event))
	require.False(t, event.DownloadedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepositoryRecordMissingChecklist(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDownloadRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists SET downloads = downloads + 1")).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Record(context.Background(), &models.DownloadEvent{ChecklistID: 404, Format: models.FormatPDF})
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadRepositorySummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDownloadRepository(db)

	rows := sqlmock.NewRows([]string{"checklist_id", "title", "download_count", "unique_requesters"}).
		AddRow(1, "Launch", 12, 4).
		AddRow(2, "Audit", 3, 2)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT d.ip_address) AS unique_requesters")).
		WillReturnRows(rows)

	summaries, err := repo.Summary(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "Launch", summaries[0].Title)
	require.Equal(t, 12, summaries[0].Downloads)
	require.Equal(t, 4, summaries[0].UniqueRequesters)
	require.NoError(t, mock.ExpectationsWereMet())
}
