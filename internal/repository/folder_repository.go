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

// FolderRepository handles materials folder persistence.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository constructs the repository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create inserts a folder row.
func (r *FolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.NewString()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO folders (id, name, parent_id, order_index, created_at)
	VALUES (:id, :name, :parent_id, :order_index, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, folder); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// GetByID retrieves one folder row.
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	const query = `SELECT id, name, parent_id, order_index, created_at FROM folders WHERE id = $1`
	var folder models.Folder
	if err := r.db.GetContext(ctx, &folder, query, id); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListByParent returns one level of the folder tree in manual order: the
// children of parentID, or the root folders when parentID is nil.
func (r *FolderRepository) ListByParent(ctx context.Context, parentID *string) ([]models.Folder, error) {
	folders := make([]models.Folder, 0)
	if parentID == nil {
		const query = `SELECT id, name, parent_id, order_index, created_at
	FROM folders WHERE parent_id IS NULL ORDER BY order_index ASC, created_at ASC`
		if err := r.db.SelectContext(ctx, &folders, query); err != nil {
			return nil, fmt.Errorf("list root folders: %w", err)
		}
		return folders, nil
	}
	const query = `SELECT id, name, parent_id, order_index, created_at
	FROM folders WHERE parent_id = $1 ORDER BY order_index ASC, created_at ASC`
	if err := r.db.SelectContext(ctx, &folders, query, *parentID); err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
	}
	return folders, nil
}

// Update overwrites name and order index.
func (r *FolderRepository) Update(ctx context.Context, id, name string, orderIndex int) error {
	const query = `UPDATE folders SET name = $2, order_index = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, name, orderIndex)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check folder update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteWithOrphan removes a folder in one transaction: its materials move to
// the uncategorized bucket and its child folders are promoted to the deleted
// folder's parent. Content is never deleted with its container. Returns
// sql.ErrNoRows when the folder does not exist.
func (r *FolderRepository) DeleteWithOrphan(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin folder delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var parentID *string
	if err = tx.GetContext(ctx, &parentID, `SELECT parent_id FROM folders WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("load folder parent: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE materials SET folder_id = NULL WHERE folder_id = $1`, id); err != nil {
		return fmt.Errorf("orphan folder materials: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE folders SET parent_id = $2 WHERE parent_id = $1`, id, parentID); err != nil {
		return fmt.Errorf("promote child folders: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM folders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit folder delete: %w", err)
	}
	return nil
}

// NextOrderIndex computes the append position among sibling folders.
func (r *FolderRepository) NextOrderIndex(ctx context.Context, parentID *string) (int, error) {
	var next int
	if parentID == nil {
		const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM folders WHERE parent_id IS NULL`
		if err := r.db.GetContext(ctx, &next, query); err != nil {
			return 0, fmt.Errorf("next root folder order index: %w", err)
		}
		return next, nil
	}
	const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM folders WHERE parent_id = $1`
	if err := r.db.GetContext(ctx, &next, query, *parentID); err != nil {
		return 0, fmt.Errorf("next folder order index: %w", err)
	}
	return next, nil
}
