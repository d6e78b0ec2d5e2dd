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

// PostRepository handles blog post persistence including the post_tags join.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository constructs the repository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post and its initial tag set in one transaction. The slug
// carries a unique constraint; violations propagate as pq errors.
func (r *PostRepository) Create(ctx context.Context, post *models.Post, tagIDs []string) (err error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	if post.Status == models.PostStatusPublished && post.PublishedAt == nil {
		post.PublishedAt = &now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin post create: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO posts (id, title, slug, content, excerpt, status, author_id, category_id, created_at, updated_at, published_at)
	VALUES (:id, :title, :slug, :content, :excerpt, :status, :author_id, :category_id, :created_at, :updated_at, :published_at)`
	if _, err = tx.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, post.ID, tagID); err != nil {
			return fmt.Errorf("attach post tag: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit post create: %w", err)
	}
	return nil
}

// GetByID retrieves one post row.
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	const query = `SELECT id, title, slug, content, excerpt, status, author_id, category_id, created_at, updated_at, published_at
	FROM posts WHERE id = $1`
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySlug retrieves one post by its slug.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const query = `SELECT id, title, slug, content, excerpt, status, author_id, category_id, created_at, updated_at, published_at
	FROM posts WHERE slug = $1`
	var post models.Post
	if err := r.db.GetContext(ctx, &post, query, slug); err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPublished returns published posts newest first.
func (r *PostRepository) ListPublished(ctx context.Context) ([]models.Post, error) {
	const query = `SELECT id, title, slug, content, excerpt, status, author_id, category_id, created_at, updated_at, published_at
	FROM posts WHERE status = 'published' ORDER BY published_at DESC`
	posts := make([]models.Post, 0)
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	return posts, nil
}

// Update overwrites the mutable post fields. Publishing for the first time
// stamps published_at.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE posts SET title = :title, content = :content, excerpt = :excerpt, status = :status,
	category_id = :category_id, updated_at = :updated_at, published_at = :published_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check post update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a post and its tag links in one transaction.
func (r *PostRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin post delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("detach post tags: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check post delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit post delete: %w", err)
	}
	return nil
}

// ReplaceTags swaps the full tag set of a post in one transaction.
func (r *PostRepository) ReplaceTags(ctx context.Context, postID string, tagIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, tagID); err != nil {
			return fmt.Errorf("attach post tag: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tags: %w", err)
	}
	return nil
}

// ListTags returns the tags attached to a post.
func (r *PostRepository) ListTags(ctx context.Context, postID string) ([]models.Tag, error) {
	const query = `SELECT t.id, t.name, t.slug FROM tags t
	JOIN post_tags pt ON pt.tag_id = t.id WHERE pt.post_id = $1 ORDER BY t.name ASC`
	tags := make([]models.Tag, 0)
	if err := r.db.SelectContext(ctx, &tags, query, postID); err != nil {
		return nil, fmt.Errorf("list post tags: %w", err)
	}
	return tags, nil
}
