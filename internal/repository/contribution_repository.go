package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openchecklist/checklist-api/internal/models"
)

// ErrAlreadyReviewed marks a second review attempt on a contribution that
// has left the pending state. Review is a one-time transition.
var ErrAlreadyReviewed = errors.New("contribution already reviewed")

// ContributionRepository persists community submissions and performs the
// review-plus-merge transaction.
type ContributionRepository struct {
	db *sqlx.DB
}

// NewContributionRepository constructs the repository.
func NewContributionRepository(db *sqlx.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

// Create inserts a new pending contribution and returns its id.
func (r *ContributionRepository) Create(ctx context.Context, contribution *models.Contribution) (int64, error) {
	if contribution.Status == "" {
		contribution.Status = models.ContributionPending
	}
	if contribution.CreatedAt.IsZero() {
		contribution.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO user_contributions
	(checklist_id, contributor_name, contributor_email, contribution_type, content, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		contribution.ChecklistID, contribution.ContributorName, contribution.ContributorEmail,
		contribution.Kind, contribution.Content, contribution.Status, contribution.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert contribution: %w", err)
	}
	contribution.ID = id
	return id, nil
}

// ListPending returns pending contributions joined with the target
// checklist title, newest first.
func (r *ContributionRepository) ListPending(ctx context.Context) ([]models.Contribution, error) {
	const query = `SELECT uc.id, uc.checklist_id, uc.contributor_name, uc.contributor_email,
	uc.contribution_type, uc.content, uc.status, uc.created_at, uc.reviewed_at, uc.reviewer_notes,
	c.title AS checklist_title
	FROM user_contributions uc
	JOIN checklists c ON uc.checklist_id = c.id
	WHERE uc.status = 'pending'
	ORDER BY uc.created_at DESC`
	var contributions []models.Contribution
	if err := r.db.SelectContext(ctx, &contributions, query); err != nil {
		return nil, fmt.Errorf("list pending contributions: %w", err)
	}
	return contributions, nil
}

// Review applies the one-shot moderation decision. When the decision is
// approved, the contribution's content merges into the target checklist in
// the same transaction: items append at max(item_order)+1 under the fixed
// community phase, features append to the feature list, and the target's
// contributor counter increases. A reviewed-but-unmerged state is never
// observable.
func (r *ContributionRepository) Review(ctx context.Context, id int64, decision models.ContributionStatus, notes string) (contribution *models.Contribution, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contribution review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.Contribution
	const selectQuery = `SELECT id, checklist_id, contributor_name, contributor_email,
	contribution_type, content, status, created_at, reviewed_at, reviewer_notes
	FROM user_contributions WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, selectQuery, id); err != nil {
		return nil, err
	}
	if current.Status != models.ContributionPending {
		err = ErrAlreadyReviewed
		return nil, err
	}

	reviewedAt := time.Now().UTC()
	const updateQuery = `UPDATE user_contributions
	SET status = $1, reviewer_notes = $2, reviewed_at = $3
	WHERE id = $4 AND status = 'pending'`
	result, err := tx.ExecContext(ctx, updateQuery, decision, notes, reviewedAt, id)
	if err != nil {
		return nil, fmt.Errorf("update contribution status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("check contribution update rows: %w", err)
	}
	if rows == 0 {
		err = ErrAlreadyReviewed
		return nil, err
	}

	if decision == models.ContributionApproved {
		if err = r.merge(ctx, tx, &current); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contribution review: %w", err)
	}

	current.Status = decision
	current.ReviewedAt = &reviewedAt
	current.ReviewerNotes = &notes
	return &current, nil
}

func (r *ContributionRepository) merge(ctx context.Context, tx *sqlx.Tx, contribution *models.Contribution) error {
	// Lock the parent row so concurrent merges into the same checklist
	// serialize and order indices stay unique.
	var checklistID int64
	if err := tx.GetContext(ctx, &checklistID,
		`SELECT id FROM checklists WHERE id = $1 FOR UPDATE`, contribution.ChecklistID); err != nil {
		return fmt.Errorf("lock target checklist: %w", err)
	}

	switch contribution.Kind {
	case models.ContributionItem:
		var nextOrder int
		if err := tx.GetContext(ctx, &nextOrder,
			`SELECT COALESCE(MAX(item_order) + 1, 0) FROM checklist_items WHERE checklist_id = $1`,
			contribution.ChecklistID); err != nil {
			return fmt.Errorf("next item order: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_items (checklist_id, phase, item_text, is_required, item_order)
			 VALUES ($1, $2, $3, FALSE, $4)`,
			contribution.ChecklistID, models.ContributionPhase, contribution.Content, nextOrder); err != nil {
			return fmt.Errorf("merge contribution item: %w", err)
		}
	case models.ContributionFeature:
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO checklist_features (checklist_id, feature) VALUES ($1, $2)`,
			contribution.ChecklistID, contribution.Content); err != nil {
			return fmt.Errorf("merge contribution feature: %w", err)
		}
	default:
		return fmt.Errorf("unknown contribution kind %q", contribution.Kind)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE checklists SET contributors = contributors + 1 WHERE id = $1`,
		contribution.ChecklistID); err != nil {
		return fmt.Errorf("increment contributor counter: %w", err)
	}
	return nil
}

// Stats aggregates moderation counters.
func (r *ContributionRepository) Stats(ctx context.Context) (*models.ContributionStats, error) {
	const query = `SELECT COUNT(*) AS total_contributions,
	COUNT(DISTINCT contributor_email) AS unique_contributors,
	COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved_contributions,
	COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_contributions
	FROM user_contributions`
	var stats models.ContributionStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("contribution stats: %w", err)
	}
	return &stats, nil
}

// ListApprovedForChecklist returns approved contributions for public
// display, newest first, capped at limit.
func (r *ContributionRepository) ListApprovedForChecklist(ctx context.Context, checklistID int64, limit int) ([]models.Contribution, error) {
	const query = `SELECT id, checklist_id, contributor_name, contributor_email,
	contribution_type, content, status, created_at, reviewed_at, reviewer_notes
	FROM user_contributions
	WHERE checklist_id = $1 AND status = 'approved'
	ORDER BY created_at DESC
	LIMIT $2`
	var contributions []models.Contribution
	if err := r.db.SelectContext(ctx, &contributions, query, checklistID, limit); err != nil {
		return nil, fmt.Errorf("list approved contributions: %w", err)
	}
	return contributions, nil
}
