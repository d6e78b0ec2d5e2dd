package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

type noteStore interface {
	Create(ctx context.Context, note *models.CourseNote) error
	GetByID(ctx context.Context, id string) (*models.CourseNote, error)
	Delete(ctx context.Context, id string) error
}

type sectionReader interface {
	GetByID(ctx context.Context, id string) (*models.CourseSection, error)
}

// NoteService manages course notes.
type NoteService struct {
	repo      noteStore
	courses   courseReader
	sections  sectionReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoteService builds a NoteService with sane defaults.
func NewNoteService(repo noteStore, courses courseReader, sections sectionReader, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoteService{repo: repo, courses: courses, sections: sections, validator: validate, logger: logger}
}

// Create attaches a note to a course. An omitted sectionId leaves the note in
// the unsorted bucket. A given section must exist and belong to the same
// course as the note.
func (s *NoteService) Create(ctx context.Context, req dto.CreateNoteRequest) (*models.CourseNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, content and courseId are required")
	}
	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}
	if err := s.ensureSection(ctx, req.SectionID, req.CourseID); err != nil {
		return nil, err
	}

	note := &models.CourseNote{
		CourseID:  req.CourseID,
		SectionID: normalizeSectionID(req.SectionID),
		Title:     req.Title,
		Content:   req.Content,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create note")
	}
	return note, nil
}

// Delete removes a note.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete note")
	}
	return nil
}

func (s *NoteService) ensureSection(ctx context.Context, sectionID *string, courseID string) error {
	if sectionID == nil || *sectionID == "" {
		return nil
	}
	section, err := s.sections.GetByID(ctx, *sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrValidation, "section does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load section")
	}
	if section.CourseID != courseID {
		return appErrors.Clone(appErrors.ErrValidation, "section belongs to a different course")
	}
	return nil
}

// normalizeSectionID collapses an empty-string section reference to nil so
// "unsorted" is always represented as NULL.
func normalizeSectionID(sectionID *string) *string {
	if sectionID == nil || *sectionID == "" {
		return nil
	}
	return sectionID
}
