package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openchecklist/checklist-api/internal/models"
)

// DownloadRepository records download events and serves download analytics.
type DownloadRepository struct {
	db *sqlx.DB
}

// NewDownloadRepository constructs the repository.
func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Record bumps the checklist's download counter and appends one event row
// in a single transaction. Returns sql.ErrNoRows when the checklist is
// missing so a vanished row cannot accumulate orphan events.
func (r *DownloadRepository) Record(ctx context.Context, event *models.DownloadEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin download record: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE checklists SET downloads = downloads + 1 WHERE id = $1`, event.ChecklistID)
	if err != nil {
		return fmt.Errorf("increment download counter: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check download counter rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if event.DownloadedAt.IsZero() {
		event.DownloadedAt = time.Now().UTC()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO downloads (checklist_id, format, ip_address, user_agent, downloaded_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ChecklistID, event.Format, event.IPAddress, event.UserAgent, event.DownloadedAt); err != nil {
		return fmt.Errorf("insert download event: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit download record: %w", err)
	}
	return nil
}

// Summary returns per-checklist download volume with unique requester
// counts, most downloaded first.
func (r *DownloadRepository) Summary(ctx context.Context) ([]models.DownloadSummary, error) {
	const query = `SELECT c.id AS checklist_id, c.title,
	COUNT(d.id) AS download_count,
	COUNT(DISTINCT d.ip_address) AS unique_requesters
	FROM checklists c
	LEFT JOIN downloads d ON c.id = d.checklist_id
	GROUP BY c.id, c.title
	ORDER BY download_count DESC`
	var summaries []models.DownloadSummary
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("download summary: %w", err)
	}
	return summaries, nil
}
