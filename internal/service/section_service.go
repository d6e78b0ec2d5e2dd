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

type sectionStore interface {
	Create(ctx context.Context, section *models.CourseSection) error
	GetByID(ctx context.Context, id string) (*models.CourseSection, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseSection, error)
	Update(ctx context.Context, id, title string, orderIndex int) error
	DeleteWithOrphan(ctx context.Context, id string) error
	NextOrderIndex(ctx context.Context, courseID string) (int, error)
}

type courseReader interface {
	GetByID(ctx context.Context, id string) (*models.Course, error)
}

// SectionService manages the ordered sections of a course workspace.
type SectionService struct {
	repo      sectionStore
	courses   courseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService builds a SectionService with sane defaults.
func NewSectionService(repo sectionStore, courses courseReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// Create appends a section to the end of its course: the new order index is
// one past the last sibling's, or 0 for an empty course. Two concurrent
// appends may compute the same index; the listing tiebreak on creation time
// keeps the result deterministic, so the race is accepted rather than
// serialized.
func (s *SectionService) Create(ctx context.Context, req dto.CreateSectionRequest) (*models.CourseSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and courseId are required")
	}
	if _, err := s.courses.GetByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}

	next, err := s.repo.NextOrderIndex(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to compute order index")
	}

	section := &models.CourseSection{
		CourseID:   req.CourseID,
		Title:      req.Title,
		OrderIndex: next,
	}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create section")
	}
	return section, nil
}

// List returns a course's sections in presentation order. Pure read.
func (s *SectionService) List(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	sections, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list sections")
	}
	return sections, nil
}

// Update overwrites a section's title and order index exactly as given.
// Siblings are not renumbered; callers wanting strict ordering assign
// distinct values.
func (s *SectionService) Update(ctx context.Context, req dto.UpdateSectionRequest) (*models.CourseSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "id and title are required")
	}
	if err := s.repo.Update(ctx, req.ID, req.Title, req.OrderIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update section")
	}
	section, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load section")
	}
	return section, nil
}

// Delete removes a section and moves its notes and files to the course's
// unsorted bucket as one atomic unit. Deleting an already-deleted section
// fails with not-found and mutates nothing.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteWithOrphan(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete section")
	}
	s.logger.Info("section deleted, content moved to unsorted", zap.String("section_id", id))
	return nil
}
