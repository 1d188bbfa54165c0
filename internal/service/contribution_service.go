package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openchecklist/checklist-api/internal/dto"
	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/internal/repository"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
)

// defaultApprovedPageSize caps the public approved-contribution listing.
const defaultApprovedPageSize = 10

type contributionStore interface {
	Create(ctx context.Context, contribution *models.Contribution) (int64, error)
	ListPending(ctx context.Context) ([]models.Contribution, error)
	Review(ctx context.Context, id int64, decision models.ContributionStatus, notes string) (*models.Contribution, error)
	Stats(ctx context.Context) (*models.ContributionStats, error)
	ListApprovedForChecklist(ctx context.Context, checklistID int64, limit int) ([]models.Contribution, error)
}

type contributionChecklistResolver interface {
	GetByID(ctx context.Context, id int64) (*models.ChecklistDetail, error)
}

// ContributionService manages the community submission queue and its
// one-shot moderation flow.
type ContributionService struct {
	repo       contributionStore
	checklists contributionChecklistResolver
	cache      checklistCache
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewContributionService constructs the service.
func NewContributionService(repo contributionStore, checklists contributionChecklistResolver, cache checklistCache, validate *validator.Validate, logger *zap.Logger) *ContributionService {
	if validate == nil {
		validate = validator.New()
		validate.SetTagName("binding")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContributionService{repo: repo, checklists: checklists, cache: cache, validate: validate, logger: logger}
}

// Submit files a new pending contribution against an existing checklist.
func (s *ContributionService) Submit(ctx context.Context, req dto.SubmitContributionRequest) (*models.Contribution, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contribution")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content is required")
	}
	kind := models.ContributionKind(req.Kind)
	if kind != models.ContributionItem && kind != models.ContributionFeature {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be item or feature")
	}

	if _, err := s.checklists.GetByID(ctx, req.ChecklistID); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "target checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to resolve target checklist")
	}

	contribution := &models.Contribution{
		ChecklistID:      req.ChecklistID,
		ContributorName:  req.Name,
		ContributorEmail: req.Email,
		Kind:             kind,
		Content:          req.Content,
		Status:           models.ContributionPending,
	}
	if _, err := s.repo.Create(ctx, contribution); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to submit contribution")
	}
	s.logger.Info("contribution submitted",
		zap.Int64("id", contribution.ID),
		zap.Int64("checklist_id", contribution.ChecklistID),
		zap.String("kind", string(contribution.Kind)),
	)
	return contribution, nil
}

// ListPending returns the moderation queue, newest first.
func (s *ContributionService) ListPending(ctx context.Context) ([]models.Contribution, error) {
	contributions, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list pending contributions")
	}
	return contributions, nil
}

// Review applies the moderation decision exactly once. Approval merges the
// content into the target checklist atomically with the status change;
// re-reviewing an already-reviewed contribution fails with AlreadyReviewed.
func (s *ContributionService) Review(ctx context.Context, id int64, req dto.ReviewContributionRequest) (*models.Contribution, error) {
	decision := models.ContributionStatus(req.Decision)
	if decision != models.ContributionApproved && decision != models.ContributionRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be approved or rejected")
	}

	contribution, err := s.repo.Review(ctx, id, decision, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReviewed):
			return nil, appErrors.ErrAlreadyReviewed
		case repository.IsNotFound(err):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contribution not found")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to review contribution")
		}
	}

	if decision == models.ContributionApproved && s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, cachePattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("contribution reviewed",
		zap.Int64("id", id),
		zap.String("decision", string(decision)),
	)
	return contribution, nil
}

// Stats aggregates moderation counters.
func (s *ContributionService) Stats(ctx context.Context) (*models.ContributionStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load contribution stats")
	}
	return stats, nil
}

// ListApproved returns approved contributions for public display.
func (s *ContributionService) ListApproved(ctx context.Context, checklistID int64, limit int) ([]models.Contribution, error) {
	if limit <= 0 || limit > defaultApprovedPageSize {
		limit = defaultApprovedPageSize
	}
	contributions, err := s.repo.ListApprovedForChecklist(ctx, checklistID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list approved contributions")
	}
	return contributions, nil
}
