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

// MaterialRepository handles class material metadata persistence.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// Create inserts a material row.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now
	const query = `INSERT INTO materials (id, title, description, file_url, file_name, file_type, file_size, folder_id, category_id, author_id, order_index, created_at, updated_at)
	VALUES (:id, :title, :description, :file_url, :file_name, :file_type, :file_size, :folder_id, :category_id, :author_id, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// GetByID retrieves one material row.
func (r *MaterialRepository) GetByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, title, description, file_url, file_name, file_type, file_size, folder_id, category_id, author_id, order_index, created_at, updated_at
	FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// ListByFolder returns materials in one folder, or the uncategorized bucket
// when folderID is nil, in manual order.
func (r *MaterialRepository) ListByFolder(ctx context.Context, folderID *string) ([]models.Material, error) {
	materials := make([]models.Material, 0)
	if folderID == nil {
		const query = `SELECT id, title, description, file_url, file_name, file_type, file_size, folder_id, category_id, author_id, order_index, created_at, updated_at
	FROM materials WHERE folder_id IS NULL ORDER BY order_index ASC, created_at ASC`
		if err := r.db.SelectContext(ctx, &materials, query); err != nil {
			return nil, fmt.Errorf("list uncategorized materials: %w", err)
		}
		return materials, nil
	}
	const query = `SELECT id, title, description, file_url, file_name, file_type, file_size, folder_id, category_id, author_id, order_index, created_at, updated_at
	FROM materials WHERE folder_id = $1 ORDER BY order_index ASC, created_at ASC`
	if err := r.db.SelectContext(ctx, &materials, query, *folderID); err != nil {
		return nil, fmt.Errorf("list folder materials: %w", err)
	}
	return materials, nil
}

// Update overwrites the mutable material fields. The stored blob reference is
// immutable; re-uploading means creating a new material.
func (r *MaterialRepository) Update(ctx context.Context, id, title string, description *string, folderID *string, orderIndex int) error {
	const query = `UPDATE materials SET title = $2, description = $3, folder_id = $4, order_index = $5, updated_at = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, title, description, folderID, orderIndex, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check material update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a material row. The referenced blob is retained.
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check material delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListFileURLs returns every stored blob reference, for the orphan sweep.
func (r *MaterialRepository) ListFileURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0)
	if err := r.db.SelectContext(ctx, &urls, `SELECT file_url FROM materials`); err != nil {
		return nil, fmt.Errorf("list material urls: %w", err)
	}
	return urls, nil
}

// NextOrderIndex computes the append position among a folder's materials.
func (r *MaterialRepository) NextOrderIndex(ctx context.Context, folderID *string) (int, error) {
	var next int
	if folderID == nil {
		const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM materials WHERE folder_id IS NULL`
		if err := r.db.GetContext(ctx, &next, query); err != nil {
			return 0, fmt.Errorf("next uncategorized material order index: %w", err)
		}
		return next, nil
	}
	const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM materials WHERE folder_id = $1`
	if err := r.db.GetContext(ctx, &next, query, *folderID); err != nil {
		return 0, fmt.Errorf("next material order index: %w", err)
	}
	return next, nil
}
