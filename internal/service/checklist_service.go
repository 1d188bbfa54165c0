package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openchecklist/checklist-api/internal/dto"
	"github.com/openchecklist/checklist-api/internal/models"
	"github.com/openchecklist/checklist-api/internal/repository"
	"github.com/openchecklist/checklist-api/pkg/config"
	appErrors "github.com/openchecklist/checklist-api/pkg/errors"
)

const (
	cacheKeyListNewest  = "checklists:list:newest"
	cacheKeyListPopular = "checklists:list:popular"
	cacheKeyStats       = "checklists:stats"
	cachePattern        = "checklists:*"
)

type checklistStore interface {
	Create(ctx context.Context, detail *models.ChecklistDetail) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ChecklistDetail, error)
	List(ctx context.Context, sort models.SortOrder) ([]models.Checklist, error)
	Update(ctx context.Context, id int64, params repository.UpdateChecklistParams) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, queryText string) ([]models.Checklist, error)
	ListByCategory(ctx context.Context, category string) ([]models.Checklist, error)
	ListCategories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*models.Stats, error)
	SetPayload(ctx context.Context, id int64, payload models.ContentPayload) error
}

type checklistCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type checklistFileStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// FileUpload carries upload metadata and the content stream.
type FileUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// ChecklistService owns checklist aggregate lifecycle and validation.
type ChecklistService struct {
	repo    checklistStore
	cache   checklistCache
	storage checklistFileStorage
	logger  *zap.Logger
	cfg     config.StorageConfig
	ttl     config.CacheConfig
	mimeSet map[string]models.FileKind
}

// NewChecklistService constructs the service with defaults.
func NewChecklistService(repo checklistStore, cache checklistCache, storage checklistFileStorage, logger *zap.Logger, cfg config.StorageConfig, ttl config.CacheConfig) *ChecklistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}
	if ttl.ChecklistTTL <= 0 {
		ttl.ChecklistTTL = 5 * time.Minute
	}
	if ttl.StatsTTL <= 0 {
		ttl.StatsTTL = time.Minute
	}
	return &ChecklistService{
		repo:    repo,
		cache:   cache,
		storage: storage,
		logger:  logger,
		cfg:     cfg,
		ttl:     ttl,
		mimeSet: buildMIMESet(cfg.AllowedMIMETypes),
	}
}

func buildMIMESet(allowed []string) map[string]models.FileKind {
	if len(allowed) == 0 {
		allowed = []string{"application/pdf", "application/zip"}
	}
	set := make(map[string]models.FileKind, len(allowed))
	for _, mt := range allowed {
		switch strings.ToLower(strings.TrimSpace(mt)) {
		case "application/pdf":
			set["application/pdf"] = models.FilePDF
		case "application/zip":
			set["application/zip"] = models.FileZIP
			set["application/x-zip-compressed"] = models.FileZIP
		}
	}
	return set
}

// Create validates the request, builds the content payload (inline text,
// embedded upload, or published file reference depending on the configured
// storage mode) and persists the aggregate atomically. A published file is
// removed again when the database write fails.
func (s *ChecklistService) Create(ctx context.Context, req dto.CreateChecklistRequest, upload *FileUpload) (*models.ChecklistDetail, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and description are required")
	}

	detail := &models.ChecklistDetail{
		Checklist: models.Checklist{
			Title:        title,
			Description:  description,
			Icon:         defaultString(req.Icon, models.DefaultIcon),
			Category:     defaultString(req.Category, models.DefaultCategory),
			Version:      models.DefaultVersion,
			Formats:      models.DefaultFormats,
			Contributors: 1,
		},
		Features: mergeFeatures(req.Features, req.FeaturesRaw),
		Items:    toItems(req.Items),
	}

	payload, publishedFile, err := s.buildPayload(title, req.Content, upload)
	if err != nil {
		return nil, err
	}
	detail.SetPayload(payload)

	id, err := s.repo.Create(ctx, detail)
	if err != nil {
		if publishedFile != "" {
			if cleanupErr := s.storage.Delete(publishedFile); cleanupErr != nil {
				s.logger.Warn("failed to clean up published file", zap.String("file", publishedFile), zap.Error(cleanupErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to create checklist")
	}
	s.invalidate(ctx)

	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load created checklist")
	}
	s.logger.Info("checklist created", zap.Int64("id", id), zap.String("title", title))
	return created, nil
}

func (s *ChecklistService) buildPayload(title, content string, upload *FileUpload) (models.ContentPayload, string, error) {
	if upload == nil {
		if strings.TrimSpace(content) == "" {
			return models.EmptyPayload(), "", nil
		}
		return models.TextPayload(content), "", nil
	}

	kind, ok := s.mimeSet[strings.ToLower(upload.MimeType)]
	if !ok {
		return models.ContentPayload{}, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported upload type %q", upload.MimeType))
	}
	if upload.Size > s.cfg.MaxUploadBytes {
		return models.ContentPayload{}, "", appErrors.Clone(appErrors.ErrValidation, "uploaded file exceeds the size limit")
	}

	filename := slugify(title) + "." + string(kind)
	if s.cfg.Mode == config.StorageModeFile {
		if s.storage == nil {
			return models.ContentPayload{}, "", appErrors.Clone(appErrors.ErrInternal, "file storage not configured")
		}
		if _, err := s.storage.SaveStream(filename, io.LimitReader(upload.Content, s.cfg.MaxUploadBytes)); err != nil {
			return models.ContentPayload{}, "", appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to store uploaded file")
		}
		return models.FileRefPayload(kind, filename), filename, nil
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return models.ContentPayload{}, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read uploaded file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return models.ContentPayload{}, "", appErrors.Clone(appErrors.ErrValidation, "uploaded file exceeds the size limit")
	}
	return models.EmbeddedPayload(kind, filename, data), "", nil
}

// Get returns the full aggregate.
func (s *ChecklistService) Get(ctx context.Context, id int64) (*models.ChecklistDetail, error) {
	detail, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load checklist")
	}
	return detail, nil
}

// List returns summaries with the caller-chosen ordering, read through the
// cache when available.
func (s *ChecklistService) List(ctx context.Context, sort models.SortOrder) ([]dto.ChecklistSummary, error) {
	key := cacheKeyListNewest
	if sort == models.SortPopular {
		key = cacheKeyListPopular
	}
	var cached []dto.ChecklistSummary
	if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
		return cached, nil
	}

	checklists, err := s.repo.List(ctx, sort)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list checklists")
	}
	summaries := toSummaries(checklists)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summaries, s.ttl.ChecklistTTL); err != nil {
			s.logger.Warn("failed to cache checklist list", zap.Error(err))
		}
	}
	return summaries, nil
}

// Search matches title, description and category case-insensitively.
func (s *ChecklistService) Search(ctx context.Context, queryText string) ([]dto.ChecklistSummary, error) {
	queryText = strings.TrimSpace(queryText)
	if queryText == "" {
		return []dto.ChecklistSummary{}, nil
	}
	checklists, err := s.repo.Search(ctx, queryText)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to search checklists")
	}
	return toSummaries(checklists), nil
}

// ListByCategory returns summaries for one category, newest first.
func (s *ChecklistService) ListByCategory(ctx context.Context, category string) ([]dto.ChecklistSummary, error) {
	checklists, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list category")
	}
	return toSummaries(checklists), nil
}

// ListCategories returns the distinct category labels.
func (s *ChecklistService) ListCategories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to list categories")
	}
	return categories, nil
}

// Stats aggregates site-wide counters, read through the cache.
func (s *ChecklistService) Stats(ctx context.Context) (*models.Stats, error) {
	var cached models.Stats
	if s.cache != nil && s.cache.Get(ctx, cacheKeyStats, &cached) == nil {
		return &cached, nil
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to load stats")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyStats, stats, s.ttl.StatsTTL); err != nil {
			s.logger.Warn("failed to cache stats", zap.Error(err))
		}
	}
	return stats, nil
}

// Update applies an allow-listed partial update; supplied items or
// features replace the full set with fresh dense order indices.
func (s *ChecklistService) Update(ctx context.Context, id int64, req dto.UpdateChecklistRequest) (*models.ChecklistDetail, error) {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must not be empty")
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "description must not be empty")
	}

	params := repository.UpdateChecklistParams{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Category:    req.Category,
		Version:     req.Version,
		IsFeatured:  req.IsFeatured,
	}
	if req.Content != nil {
		payload := models.TextPayload(*req.Content)
		if strings.TrimSpace(*req.Content) == "" {
			payload = models.EmptyPayload()
		}
		params.Payload = &payload
	}
	if req.Items != nil {
		items := toItems(*req.Items)
		params.Items = &items
	}
	if req.Features != nil {
		params.Features = req.Features
	}

	if err := s.repo.Update(ctx, id, params); err != nil {
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to update checklist")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// ReplaceFile swaps the stored payload of an existing checklist for a
// newly uploaded file.
func (s *ChecklistService) ReplaceFile(ctx context.Context, id int64, upload *FileUpload) (*models.ChecklistDetail, error) {
	if upload == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, publishedFile, err := s.buildPayload(current.Title, "", upload)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPayload(ctx, id, payload); err != nil {
		if publishedFile != "" {
			if cleanupErr := s.storage.Delete(publishedFile); cleanupErr != nil {
				s.logger.Warn("failed to clean up published file", zap.String("file", publishedFile), zap.Error(cleanupErr))
			}
		}
		if repository.IsNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to replace checklist file")
	}
	s.invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes the aggregate and its download history; a referenced
// stored file is removed best-effort after the transaction commits.
func (s *ChecklistService) Delete(ctx context.Context, id int64) error {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "checklist not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to delete checklist")
	}
	payload := detail.Payload()
	if payload.Kind == models.PayloadFileRef && payload.FileName != nil && s.storage != nil {
		if err := s.storage.Delete(*payload.FileName); err != nil {
			s.logger.Warn("failed to delete stored file", zap.String("file", *payload.FileName), zap.Error(err))
		}
	}
	s.invalidate(ctx)
	s.logger.Info("checklist deleted", zap.Int64("id", id))
	return nil
}

func (s *ChecklistService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, cachePattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func mergeFeatures(list []string, raw string) []string {
	features := make([]string, 0, len(list))
	for _, f := range list {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	for _, f := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			features = append(features, trimmed)
		}
	}
	return features
}

func toItems(inputs []dto.ItemInput) []models.ChecklistItem {
	items := make([]models.ChecklistItem, 0, len(inputs))
	for i, input := range inputs {
		items = append(items, models.ChecklistItem{
			Phase:      input.Phase,
			ItemText:   input.Text,
			IsRequired: input.Required,
			ItemOrder:  i,
		})
	}
	return items
}

func toSummaries(checklists []models.Checklist) []dto.ChecklistSummary {
	summaries := make([]dto.ChecklistSummary, 0, len(checklists))
	for i := range checklists {
		c := &checklists[i]
		summaries = append(summaries, dto.ChecklistSummary{
			ID:           c.ID,
			Title:        c.Title,
			Description:  c.Description,
			Icon:         defaultString(c.Icon, models.DefaultIcon),
			Category:     c.Category,
			Version:      c.Version,
			Downloads:    c.Downloads,
			Contributors: c.Contributors,
			IsFeatured:   c.IsFeatured,
			LastUpdated:  c.UpdatedAt.Format("2006-01-02"),
			Formats:      c.FormatSet(),
		})
	}
	return summaries
}
