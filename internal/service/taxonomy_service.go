package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	"github.com/yuliutaustin/classhub-api/pkg/database"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

type taxonomyStore interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTagByID(ctx context.Context, id string) (*models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// TaxonomyService manages categories and tags shared by the blog and the
// materials library.
type TaxonomyService struct {
	repo      taxonomyStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaxonomyService builds a TaxonomyService with sane defaults.
func NewTaxonomyService(repo taxonomyStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TaxonomyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxonomyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// CreateCategory stores a category. A duplicate slug is a conflict.
func (s *TaxonomyService) CreateCategory(ctx context.Context, req dto.CreateCategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and slug are required")
	}
	category := &models.Category{
		Name:     req.Name,
		Slug:     req.Slug,
		ParentID: normalizeSectionID(req.ParentID),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a category with this slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create category")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return category, nil
}

// ListCategories returns every category.
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list categories")
	}
	return categories, nil
}

// DeleteCategory removes a category. Posts and materials that referenced it
// are detached, never deleted.
func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete category")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return nil
}

// CreateTag stores a tag. A duplicate slug is a conflict.
func (s *TaxonomyService) CreateTag(ctx context.Context, req dto.CreateTagRequest) (*models.Tag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name and slug are required")
	}
	tag := &models.Tag{Name: req.Name, Slug: req.Slug}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a tag with this slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create tag")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return tag, nil
}

// ListTags returns every tag.
func (s *TaxonomyService) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list tags")
	}
	return tags, nil
}

// DeleteTag removes a tag and its post links.
func (s *TaxonomyService) DeleteTag(ctx context.Context, id string) error {
	if err := s.repo.DeleteTag(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete tag")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return nil
}
