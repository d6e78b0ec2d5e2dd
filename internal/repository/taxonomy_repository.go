package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yuliutaustin/classhub-api/internal/models"
)

// TaxonomyRepository handles categories and tags. Both follow the same
// created-then-looked-up-by-slug pattern, so they share a repository.
type TaxonomyRepository struct {
	db *sqlx.DB
}

// NewTaxonomyRepository constructs the repository.
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// CreateCategory inserts a category; slugs are unique.
func (r *TaxonomyRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO categories (id, name, slug, parent_id, created_at)
	VALUES (:id, :name, :slug, :parent_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// GetCategoryByID retrieves one category.
func (r *TaxonomyRepository) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, name, slug, parent_id, created_at FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// ListCategories returns all categories in name order.
func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := r.db.SelectContext(ctx, &categories, `SELECT id, name, slug, parent_id, created_at FROM categories ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category; posts and materials referencing it are
// detached rather than deleted.
func (r *TaxonomyRepository) DeleteCategory(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE posts SET category_id = NULL WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("detach category posts: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE materials SET category_id = NULL WHERE category_id = $1`, id); err != nil {
		return fmt.Errorf("detach category materials: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check category delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}
	return nil
}

// CreateTag inserts a tag; slugs are unique.
func (r *TaxonomyRepository) CreateTag(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	const query = `INSERT INTO tags (id, name, slug) VALUES (:id, :name, :slug)`
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	return nil
}

// GetTagByID retrieves one tag.
func (r *TaxonomyRepository) GetTagByID(ctx context.Context, id string) (*models.Tag, error) {
	const query = `SELECT id, name, slug FROM tags WHERE id = $1`
	var tag models.Tag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListTags returns all tags in name order.
func (r *TaxonomyRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := make([]models.Tag, 0)
	if err := r.db.SelectContext(ctx, &tags, `SELECT id, name, slug FROM tags ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// DeleteTag removes a tag and its post links.
func (r *TaxonomyRepository) DeleteTag(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM post_tags WHERE tag_id = $1`, id); err != nil {
		return fmt.Errorf("detach tag posts: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check tag delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tag delete: %w", err)
	}
	return nil
}
