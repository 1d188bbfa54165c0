package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/openchecklist/checklist-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func detailColumnsRows(id int64, title string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "title", "description", "icon", "category", "version", "formats",
		"downloads", "contributors", "is_featured", "content_kind", "content_text",
		"file_kind", "file_name", "file_data", "created_at", "updated_at",
	}).AddRow(id, title, "desc", "📋", "Other", "1.0", "pdf,markdown,excel",
		0, 1, false, "empty", nil, nil, nil, nil, now, now)
}

func TestChecklistRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO checklists")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_features")).
		WithArgs(int64(7), "Offline support").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_items")).
		WithArgs(int64(7), "Planning", "Define scope", true, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_items")).
		WithArgs(int64(7), "Planning", "Pick a date", false, 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	detail := &models.ChecklistDetail{
		Checklist: models.Checklist{
			Title:        "Launch",
			Description:  "desc",
			Icon:         models.DefaultIcon,
			Category:     models.DefaultCategory,
			Version:      models.DefaultVersion,
			Formats:      models.DefaultFormats,
			Contributors: 1,
			ContentKind:  models.PayloadEmpty,
		},
		Features: []string{"Offline support"},
		Items: []models.ChecklistItem{
			{Phase: "Planning", ItemText: "Define scope", IsRequired: true},
			// Caller-supplied order indices are ignored; position wins.
			{Phase: "Planning", ItemText: "Pick a date", ItemOrder: 99},
		},
	}
	id, err := repo.Create(context.Background(), detail)
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryCreateRollsBackOnItemFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO checklists")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_items")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	detail := &models.ChecklistDetail{
		Checklist: models.Checklist{Title: "Launch", Description: "desc"},
		Items:     []models.ChecklistItem{{ItemText: "one"}},
	}
	_, err := repo.Create(context.Background(), detail)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description")).
		WithArgs(int64(5)).
		WillReturnRows(detailColumnsRows(5, "Launch"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT feature FROM checklist_features")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"feature"}).AddRow("Offline support"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, checklist_id, phase, item_text")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "checklist_id", "phase", "item_text", "is_required", "item_order"}).
			AddRow(1, 5, "Planning", "Define scope", true, 0).
			AddRow(2, 5, "Planning", "Pick a date", false, 1))

	detail, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Launch", detail.Title)
	require.Len(t, detail.Items, 2)
	require.Equal(t, []string{"Offline support"}, detail.Features)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, description")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 404)
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryUpdatePartial(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists SET updated_at = $1, title = $2, is_featured = $3 WHERE id = $4")).
		WithArgs(sqlmock.AnyArg(), "Renamed", true, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	title := "Renamed"
	featured := true
	err := repo.Update(context.Background(), 5, UpdateChecklistParams{Title: &title, IsFeatured: &featured})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryUpdateReplacesItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists SET updated_at = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checklist_items WHERE checklist_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_items")).
		WithArgs(int64(5), "Setup", "First", false, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checklist_items")).
		WithArgs(int64(5), "Setup", "Second", true, 1).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	items := []models.ChecklistItem{
		{Phase: "Setup", ItemText: "First"},
		{Phase: "Setup", ItemText: "Second", IsRequired: true},
	}
	err := repo.Update(context.Background(), 5, UpdateChecklistParams{Items: &items})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	title := "Renamed"
	err := repo.Update(context.Background(), 404, UpdateChecklistParams{Title: &title})
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	for _, table := range []string{"checklist_items", "checklist_features", "downloads", "user_contributions"} {
		mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + table)).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checklists WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryDeleteToleratesMissingRelatedTable(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()

	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT related_delete")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checklist_items")).
		WithArgs(int64(5)).
		WillReturnError(&pq.Error{Code: pq.ErrorCode(pgUndefinedTable)})
	mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT related_delete")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	for _, table := range []string{"checklist_features", "downloads", "user_contributions"} {
		mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM " + table)).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checklists WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	mock.ExpectBegin()
	for range []int{0, 1, 2, 3} {
		mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM")).
			WithArgs(int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT related_delete")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checklists WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 404)
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositorySearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "title", "description", "icon", "category", "version", "formats",
		"downloads", "contributors", "is_featured", "content_kind",
		"file_kind", "file_name", "created_at", "updated_at",
	}).AddRow(1, "Launch", "desc", "📋", "Other", "1.0", "pdf,markdown,excel",
		12, 1, false, "empty", nil, nil, time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("ILIKE $1")).
		WithArgs("%launch%").
		WillReturnRows(rows)

	results, err := repo.Search(context.Background(), "launch")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Launch", results[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS total_checklists")).
		WillReturnRows(sqlmock.NewRows([]string{"total_checklists", "total_downloads", "total_contributors"}).
			AddRow(3, 42, 7))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalChecklists)
	require.Equal(t, 42, stats.TotalDownloads)
	require.Equal(t, 7, stats.TotalContributors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChecklistRepositorySetPayloadMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChecklistRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE checklists")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetPayload(context.Background(), 404, models.TextPayload("body"))
	require.True(t, IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
