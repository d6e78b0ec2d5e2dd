package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	"github.com/yuliutaustin/classhub-api/pkg/database"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

const (
	blogCachePattern = "blog:*"
	blogListCacheKey = "blog:posts:published"
)

type postStore interface {
	Create(ctx context.Context, post *models.Post, tagIDs []string) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPublished(ctx context.Context) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error
	ReplaceTags(ctx context.Context, postID string, tagIDs []string) error
	ListTags(ctx context.Context, postID string) ([]models.Tag, error)
}

type categoryReader interface {
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
}

// BlogService manages blog posts. Read paths go through the cache; every
// mutation invalidates it.
type BlogService struct {
	repo      postStore
	taxonomy  categoryReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBlogService builds a BlogService with sane defaults.
func NewBlogService(repo postStore, taxonomy categoryReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *BlogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlogService{
		repo:      repo,
		taxonomy:  taxonomy,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Create stores a new post. Status defaults to draft; a post created as
// published gets its publication timestamp stamped immediately. A duplicate
// slug is reported as a conflict.
func (s *BlogService) Create(ctx context.Context, req dto.CreatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, slug, content and authorId are required")
	}
	status := models.PostStatus(req.Status)
	if status == "" {
		status = models.PostStatusDraft
	}
	post := &models.Post{
		Title:      req.Title,
		Slug:       req.Slug,
		Content:    req.Content,
		Excerpt:    req.Excerpt,
		Status:     status,
		AuthorID:   req.AuthorID,
		CategoryID: normalizeSectionID(req.CategoryID),
	}
	if status == models.PostStatusPublished {
		now := s.now()
		post.PublishedAt = &now
	}
	if err := s.repo.Create(ctx, post, req.TagIDs); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a post with this slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create post")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return post, nil
}

// GetBySlug returns one published post with its category and tags. Drafts
// are invisible on the public surface and read as not found.
func (s *BlogService) GetBySlug(ctx context.Context, slug string) (*models.PostWithRelations, error) {
	cacheKey := "blog:post:" + slug
	var cached models.PostWithRelations
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load post")
	}
	if post.Status != models.PostStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
	}
	enriched, err := s.withRelations(ctx, post)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, cacheKey, enriched)
	return enriched, nil
}

// ListPublished returns published posts, newest publication first, each with
// its category and tags resolved.
func (s *BlogService) ListPublished(ctx context.Context) ([]models.PostWithRelations, error) {
	var cached []models.PostWithRelations
	if s.cache.Get(ctx, blogListCacheKey, &cached) {
		return cached, nil
	}
	posts, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list posts")
	}
	out := make([]models.PostWithRelations, 0, len(posts))
	for i := range posts {
		enriched, err := s.withRelations(ctx, &posts[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *enriched)
	}
	s.cache.Set(ctx, blogListCacheKey, out)
	return out, nil
}

// Update overwrites the mutable fields of a post. Moving a draft to
// published stamps the publication timestamp once; re-saving an already
// published post keeps the original timestamp, and unpublishing clears it.
func (s *BlogService) Update(ctx context.Context, id string, req dto.UpdatePostRequest) (*models.Post, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and content are required")
	}
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load post")
	}

	status := models.PostStatus(req.Status)
	if status == "" {
		status = post.Status
	}
	switch {
	case status == models.PostStatusPublished && post.PublishedAt == nil:
		now := s.now()
		post.PublishedAt = &now
	case status == models.PostStatusDraft:
		post.PublishedAt = nil
	}

	post.Title = req.Title
	post.Content = req.Content
	post.Excerpt = req.Excerpt
	post.Status = status
	post.CategoryID = normalizeSectionID(req.CategoryID)

	if err := s.repo.Update(ctx, post); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update post")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return post, nil
}

// Delete removes a post together with its tag links.
func (s *BlogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete post")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return nil
}

// ReplaceTags swaps the full tag set of a post in one transaction.
func (s *BlogService) ReplaceTags(ctx context.Context, id string, req dto.ReplaceTagsRequest) ([]models.Tag, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tagIds is required")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "post not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load post")
	}
	if err := s.repo.ReplaceTags(ctx, id, req.TagIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to replace tags")
	}
	s.cache.Invalidate(ctx, blogCachePattern)
	return s.tags(ctx, id)
}

func (s *BlogService) withRelations(ctx context.Context, post *models.Post) (*models.PostWithRelations, error) {
	out := &models.PostWithRelations{Post: *post}
	if post.CategoryID != nil {
		category, err := s.taxonomy.GetCategoryByID(ctx, *post.CategoryID)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load category")
		}
		out.Category = category
	}
	tags, err := s.tags(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	out.Tags = tags
	return out, nil
}

func (s *BlogService) tags(ctx context.Context, postID string) ([]models.Tag, error) {
	tags, err := s.repo.ListTags(ctx, postID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load tags")
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
