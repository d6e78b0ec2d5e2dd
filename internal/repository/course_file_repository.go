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

// CourseFileRepository handles course file metadata persistence. The file
// bytes themselves live in the blob store; only references are stored here.
type CourseFileRepository struct {
	db *sqlx.DB
}

// NewCourseFileRepository constructs the repository.
func NewCourseFileRepository(db *sqlx.DB) *CourseFileRepository {
	return &CourseFileRepository{db: db}
}

// Create inserts a file metadata row.
func (r *CourseFileRepository) Create(ctx context.Context, file *models.CourseFile) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now
	const query = `INSERT INTO course_files (id, course_id, section_id, title, file_name, file_url, file_type, file_size, created_at, updated_at)
	VALUES (:id, :course_id, :section_id, :title, :file_name, :file_url, :file_type, :file_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create course file: %w", err)
	}
	return nil
}

// GetByID retrieves one file metadata row.
func (r *CourseFileRepository) GetByID(ctx context.Context, id string) (*models.CourseFile, error) {
	const query = `SELECT id, course_id, section_id, title, file_name, file_url, file_type, file_size, created_at, updated_at
	FROM course_files WHERE id = $1`
	var file models.CourseFile
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListByContainer returns a course's files for one section, or the unsorted
// bucket when sectionID is nil, newest first.
func (r *CourseFileRepository) ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseFile, error) {
	files := make([]models.CourseFile, 0)
	if sectionID == nil {
		const query = `SELECT id, course_id, section_id, title, file_name, file_url, file_type, file_size, created_at, updated_at
	FROM course_files WHERE course_id = $1 AND section_id IS NULL ORDER BY created_at DESC`
		if err := r.db.SelectContext(ctx, &files, query, courseID); err != nil {
			return nil, fmt.Errorf("list unsorted files: %w", err)
		}
		return files, nil
	}
	const query = `SELECT id, course_id, section_id, title, file_name, file_url, file_type, file_size, created_at, updated_at
	FROM course_files WHERE course_id = $1 AND section_id = $2 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &files, query, courseID, *sectionID); err != nil {
		return nil, fmt.Errorf("list section files: %w", err)
	}
	return files, nil
}

// Delete removes a file metadata row. The referenced blob is retained.
func (r *CourseFileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course file delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListFileURLs returns every stored blob reference, for the orphan sweep.
func (r *CourseFileRepository) ListFileURLs(ctx context.Context) ([]string, error) {
	urls := make([]string, 0)
	if err := r.db.SelectContext(ctx, &urls, `SELECT file_url FROM course_files`); err != nil {
		return nil, fmt.Errorf("list course file urls: %w", err)
	}
	return urls, nil
}
