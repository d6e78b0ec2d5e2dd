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

// CourseRepository handles course persistence.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course. The slug carries a unique constraint; violations
// propagate as pq errors for the service to classify.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, title, slug, description, order_index, created_at, updated_at)
	VALUES (:id, :title, :slug, :description, :order_index, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// GetByID retrieves one course row.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, slug, description, order_index, created_at, updated_at
	FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// GetBySlug retrieves one course by its slug.
func (r *CourseRepository) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	const query = `SELECT id, title, slug, description, order_index, created_at, updated_at
	FROM courses WHERE slug = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, slug); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns all courses in manual order, creation time breaking ties.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, title, slug, description, order_index, created_at, updated_at
	FROM courses ORDER BY order_index ASC, created_at ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Update overwrites the mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, id, title string, description *string, orderIndex int) error {
	const query = `UPDATE courses SET title = $2, description = $3, order_index = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, title, description, orderIndex, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check course update rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// NextOrderIndex computes the append position among all courses: one past the
// current maximum, or 0 when no courses exist.
func (r *CourseRepository) NextOrderIndex(ctx context.Context) (int, error) {
	const query = `SELECT COALESCE(MAX(order_index), -1) + 1 FROM courses`
	var next int
	if err := r.db.GetContext(ctx, &next, query); err != nil {
		return 0, fmt.Errorf("next course order index: %w", err)
	}
	return next, nil
}
