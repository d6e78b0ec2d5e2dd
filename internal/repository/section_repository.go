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

// SectionRepository handles course section persistence.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Create inserts a section row.
func (r *SectionRepository) Create(ctx context.Context, section *models.CourseSection) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now
	const query = `INSERT INTO course_sections (id, course_id, title, order_index, created_at, updated_at)
	VALUES (:id, :course_id, :title, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// GetByID retrieves one section row.
func (r *SectionRepository) GetByID(ctx context.Context, id string) (*models.CourseSection, error) {
	const query = `SELECT id, course_id, title, order_index, created_at, updated_at
	FROM course_sections WHERE id = $1`
	var section models.CourseSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// ListByCourse returns a course's sections in manual order, creation time
// breaking ties. Pure read.
func (r *SectionRepository) ListByCourse(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	const query = `SELECT id, course_id, title, order_index, created_at, updated_at
	FROM course_sections WHERE course_id = $1 ORDER BY order_index ASC, created_at ASC`
	var sections []models.CourseSection
	if err := r.db.SelectContext(ctx, &sections, query, courseID); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// Update overwrites title and order index. The order index is written as
// given; siblings are never renumbered.
func (r *SectionRepository) Update(ctx context.Context, id, title string, orderIndex int) error {
	const query = `UPDATE course_sections SET title = $2, order_index = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, title, orderIndex, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check section update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteWithOrphan removes a section and moves its notes and files to the
// course's unsorted bucket in one transaction. Leaves always outlive their
// section. Returns sql.ErrNoRows when the section does not exist; nothing is
// mutated in that case.
func (r *SectionRepository) DeleteWithOrphan(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin section delete: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE course_notes SET section_id = NULL WHERE section_id = $1`, id); err != nil {
		return fmt.Errorf("orphan section notes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE course_files SET section_id = NULL WHERE section_id = $1`, id); err != nil {
		return fmt.Errorf("orphan section files: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM course_sections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check section delete rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit section delete: %w", err)
	}
	return nil
}

// NextOrderIndex computes the append position among a course's sections: one
// past the last sibling, or 0 for an empty course.
func (r *SectionRepository) NextOrderIndex(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM course_sections WHERE course_id = $1`
	var next int
	if err := r.db.GetContext(ctx, &next, query, courseID); err != nil {
		return 0, fmt.Errorf("next section order index: %w", err)
	}
	return next, nil
}
