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

// NoteRepository handles course note persistence.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository constructs the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a note row.
func (r *NoteRepository) Create(ctx context.Context, note *models.CourseNote) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	const query = `INSERT INTO course_notes (id, course_id, section_id, title, content, created_at, updated_at)
	VALUES (:id, :course_id, :section_id, :title, :content, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// GetByID retrieves one note row.
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*models.CourseNote, error) {
	const query = `SELECT id, course_id, section_id, title, content, created_at, updated_at
	FROM course_notes WHERE id = $1`
	var note models.CourseNote
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListByContainer returns a course's notes for one section, or the unsorted
// bucket when sectionID is nil. Content items list newest first, unlike the
// manual ordering of sections.
func (r *NoteRepository) ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseNote, error) {
	notes := make([]models.CourseNote, 0)
	if sectionID == nil {
		const query = `SELECT id, course_id, section_id, title, content, created_at, updated_at
	FROM course_notes WHERE course_id = $1 AND section_id IS NULL ORDER BY created_at DESC`
		if err := r.db.SelectContext(ctx, &notes, query, courseID); err != nil {
			return nil, fmt.Errorf("list unsorted notes: %w", err)
		}
		return notes, nil
	}
	const query = `SELECT id, course_id, section_id, title, content, created_at, updated_at
	FROM course_notes WHERE course_id = $1 AND section_id = $2 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &notes, query, courseID, *sectionID); err != nil {
		return nil, fmt.Errorf("list section notes: %w", err)
	}
	return notes, nil
}

// Delete removes a note row.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM course_notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check note delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
