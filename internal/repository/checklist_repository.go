package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openchecklist/checklist-api/internal/models"
)

const checklistListColumns = `id, title, description, icon, category, version, formats,
	downloads, contributors, is_featured, content_kind, file_kind, file_name, created_at, updated_at`

const checklistDetailColumns = `id, title, description, icon, category, version, formats,
	downloads, contributors, is_featured, content_kind, content_text, file_kind, file_name, file_data, created_at, updated_at`

// ChecklistRepository persists the checklist aggregate: the core row plus
// its ordered items and feature list. Multi-row writes run in a single
// transaction so readers never observe a partial aggregate.
type ChecklistRepository struct {
	db *sqlx.DB
}

// NewChecklistRepository constructs the repository.
func NewChecklistRepository(db *sqlx.DB) *ChecklistRepository {
	return &ChecklistRepository{db: db}
}

// Create inserts the checklist row, its features and its items atomically.
// Item order indices are assigned densely from input array order.
func (r *ChecklistRepository) Create(ctx context.Context, detail *models.ChecklistDetail) (id int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin checklist create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO checklists
	(title, description, icon, category, version, formats, downloads, contributors, is_featured,
	 content_kind, content_text, file_kind, file_name, file_data, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING id`
	err = tx.QueryRowxContext(ctx, insertQuery,
		detail.Title, detail.Description, detail.Icon, detail.Category, detail.Version,
		detail.Formats, detail.Downloads, detail.Contributors, detail.IsFeatured,
		detail.ContentKind, detail.ContentText, detail.FileKind, detail.FileName, detail.FileData,
		now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert checklist: %w", err)
	}

	if err = insertFeatures(ctx, tx, id, detail.Features); err != nil {
		return 0, err
	}
	if err = insertItems(ctx, tx, id, detail.Items); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit checklist create: %w", err)
	}
	return id, nil
}

// GetByID fetches the full aggregate; items come back ordered by item_order.
func (r *ChecklistRepository) GetByID(ctx context.Context, id int64) (*models.ChecklistDetail, error) {
	detail := &models.ChecklistDetail{}
	query := fmt.Sprintf("SELECT %s FROM checklists WHERE id = $1", checklistDetailColumns)
	if err := r.db.GetContext(ctx, &detail.Checklist, query, id); err != nil {
		return nil, err
	}

	if err := r.db.SelectContext(ctx, &detail.Features,
		`SELECT feature FROM checklist_features WHERE checklist_id = $1 ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("select checklist features: %w", err)
	}
	if err := r.db.SelectContext(ctx, &detail.Items,
		`SELECT id, checklist_id, phase, item_text, is_required, item_order
		 FROM checklist_items WHERE checklist_id = $1 ORDER BY item_order`, id); err != nil {
		return nil, fmt.Errorf("select checklist items: %w", err)
	}
	return detail, nil
}

// List returns all checklists' core fields; callers choose the ordering.
func (r *ChecklistRepository) List(ctx context.Context, sort models.SortOrder) ([]models.Checklist, error) {
	order := "created_at DESC"
	if sort == models.SortPopular {
		order = "downloads DESC"
	}
	query := fmt.Sprintf("SELECT %s FROM checklists ORDER BY %s", checklistListColumns, order)
	var checklists []models.Checklist
	if err := r.db.SelectContext(ctx, &checklists, query); err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	return checklists, nil
}

// UpdateChecklistParams groups the allow-listed mutable core columns plus
// optional full replacements of items and features. Column names are never
// derived from caller input.
type UpdateChecklistParams struct {
	Title       *string
	Description *string
	Icon        *string
	Category    *string
	Version     *string
	IsFeatured  *bool
	Payload     *models.ContentPayload
	Items       *[]models.ChecklistItem
	Features    *[]string
}

// Update applies a partial core-field update and, when replacement items
// or features are supplied, swaps the full set with fresh dense order
// indices. Returns sql.ErrNoRows when the checklist does not exist.
func (r *ChecklistRepository) Update(ctx context.Context, id int64, params UpdateChecklistParams) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checklist update: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	setParts := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Title != nil {
		addSet("title", *params.Title)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.Icon != nil {
		addSet("icon", *params.Icon)
	}
	if params.Category != nil {
		addSet("category", *params.Category)
	}
	if params.Version != nil {
		addSet("version", *params.Version)
	}
	if params.IsFeatured != nil {
		addSet("is_featured", *params.IsFeatured)
	}
	if params.Payload != nil {
		addSet("content_kind", params.Payload.Kind)
		addSet("content_text", params.Payload.Text)
		addSet("file_kind", params.Payload.FileKind)
		addSet("file_name", params.Payload.FileName)
		addSet("file_data", params.Payload.FileData)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE checklists SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update checklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check checklist update rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if params.Features != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM checklist_features WHERE checklist_id = $1`, id); err != nil {
			return fmt.Errorf("clear checklist features: %w", err)
		}
		if err = insertFeatures(ctx, tx, id, *params.Features); err != nil {
			return err
		}
	}
	if params.Items != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM checklist_items WHERE checklist_id = $1`, id); err != nil {
			return fmt.Errorf("clear checklist items: %w", err)
		}
		if err = insertItems(ctx, tx, id, *params.Items); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit checklist update: %w", err)
	}
	return nil
}

// Delete removes the checklist and cascades to items, features, download
// history and contributions in one transaction. Optional related tables
// may be absent in older deployments; those deletes count as zero rows.
func (r *ChecklistRepository) Delete(ctx context.Context, id int64) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checklist delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	related := []string{"checklist_items", "checklist_features", "downloads", "user_contributions"}
	for _, table := range related {
		query := fmt.Sprintf("DELETE FROM %s WHERE checklist_id = $1", table)
		if _, err = execTolerateMissingTable(ctx, tx, query, id); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM checklists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete checklist: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check checklist delete rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit checklist delete: %w", err)
	}
	return nil
}

// Search matches the query case-insensitively against title, description
// and category, most downloaded first.
func (r *ChecklistRepository) Search(ctx context.Context, queryText string) ([]models.Checklist, error) {
	pattern := "%" + queryText + "%"
	query := fmt.Sprintf(`SELECT %s FROM checklists
	WHERE title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1
	ORDER BY downloads DESC`, checklistListColumns)
	var checklists []models.Checklist
	if err := r.db.SelectContext(ctx, &checklists, query, pattern); err != nil {
		return nil, fmt.Errorf("search checklists: %w", err)
	}
	return checklists, nil
}

// ListByCategory returns checklists in one category, newest first.
func (r *ChecklistRepository) ListByCategory(ctx context.Context, category string) ([]models.Checklist, error) {
	query := fmt.Sprintf("SELECT %s FROM checklists WHERE category = $1 ORDER BY created_at DESC", checklistListColumns)
	var checklists []models.Checklist
	if err := r.db.SelectContext(ctx, &checklists, query, category); err != nil {
		return nil, fmt.Errorf("list checklists by category: %w", err)
	}
	return checklists, nil
}

// ListCategories returns the distinct non-null categories.
func (r *ChecklistRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	const query = `SELECT DISTINCT category FROM checklists WHERE category IS NOT NULL AND category <> '' ORDER BY category`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Stats aggregates site-wide counters.
func (r *ChecklistRepository) Stats(ctx context.Context) (*models.Stats, error) {
	const query = `SELECT COUNT(*) AS total_checklists,
	COALESCE(SUM(downloads), 0) AS total_downloads,
	COALESCE(SUM(contributors), 0) AS total_contributors
	FROM checklists`
	var stats models.Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return &stats, nil
}

// SetPayload replaces the content columns of an existing checklist and
// bumps updated_at. Returns sql.ErrNoRows when the checklist is missing.
func (r *ChecklistRepository) SetPayload(ctx context.Context, id int64, payload models.ContentPayload) error {
	const query = `UPDATE checklists
	SET content_kind = $1, content_text = $2, file_kind = $3, file_name = $4, file_data = $5, updated_at = $6
	WHERE id = $7`
	result, err := r.db.ExecContext(ctx, query,
		payload.Kind, payload.Text, payload.FileKind, payload.FileName, payload.FileData,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set checklist payload: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check payload update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertFeatures(ctx context.Context, tx *sqlx.Tx, checklistID int64, features []string) error {
	for _, feature := range features {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_features (checklist_id, feature) VALUES ($1, $2)`,
			checklistID, feature); err != nil {
			return fmt.Errorf("insert checklist feature: %w", err)
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx *sqlx.Tx, checklistID int64, items []models.ChecklistItem) error {
	for i, item := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_items (checklist_id, phase, item_text, is_required, item_order)
			 VALUES ($1, $2, $3, $4, $5)`,
			checklistID, item.Phase, item.ItemText, item.IsRequired, i); err != nil {
			return fmt.Errorf("insert checklist item: %w", err)
		}
	}
	return nil
}
