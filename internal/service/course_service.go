package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	"github.com/yuliutaustin/classhub-api/pkg/database"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

type courseStore interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetBySlug(ctx context.Context, slug string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	Update(ctx context.Context, id, title string, description *string, orderIndex int) error
	NextOrderIndex(ctx context.Context) (int, error)
}

type sectionLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseSection, error)
}

type noteResolver interface {
	ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseNote, error)
}

type fileResolver interface {
	ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseFile, error)
}

// CourseService manages the course tabs and assembles the workspace payload.
type CourseService struct {
	repo      courseStore
	sections  sectionLister
	notes     noteResolver
	files     fileResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService builds a CourseService with sane defaults.
func NewCourseService(repo courseStore, sections sectionLister, notes noteResolver, files fileResolver, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, sections: sections, notes: notes, files: files, validator: validate, logger: logger}
}

// List returns all courses in presentation order.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list courses")
	}
	return courses, nil
}

// GetDetail resolves the full workspace for one course: sections in manual
// order, each with its notes and files newest first, plus the unsorted
// bucket of leaves attached to the course directly. A section with no
// content yields empty slices, never an error. Every leaf appears exactly
// once: its section's list when assigned, the unsorted bucket otherwise.
func (s *CourseService) GetDetail(ctx context.Context, slug string) (*dto.CourseDetail, error) {
	course, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}

	sections, err := s.sections.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list sections")
	}

	detail := &dto.CourseDetail{
		Course:   *course,
		Sections: make([]dto.SectionContent, 0, len(sections)),
	}
	for i := range sections {
		notes, files, err := s.resolveLeaves(ctx, course.ID, &sections[i].ID)
		if err != nil {
			return nil, err
		}
		detail.Sections = append(detail.Sections, dto.SectionContent{
			CourseSection: sections[i],
			Notes:         notes,
			Files:         files,
		})
	}

	detail.UnsortedNotes, detail.UnsortedFiles, err = s.resolveLeaves(ctx, course.ID, nil)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *CourseService) resolveLeaves(ctx context.Context, courseID string, sectionID *string) ([]models.CourseNote, []models.CourseFile, error) {
	notes, err := s.notes.ListByContainer(ctx, courseID, sectionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list notes")
	}
	files, err := s.files.ListByContainer(ctx, courseID, sectionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list files")
	}
	return notes, files, nil
}

// Create adds a course tab at the end of the row. Slug collisions surface as
// conflicts and leave the existing course untouched.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and slug are required")
	}

	next, err := s.repo.NextOrderIndex(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to compute order index")
	}

	course := &models.Course{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		OrderIndex:  next,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a course with this slug already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create course")
	}
	return course, nil
}

// Update overwrites a course's mutable fields. When the request omits an
// order index the current one is kept.
func (s *CourseService) Update(ctx context.Context, id string, req dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title is required")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load course")
	}

	orderIndex := current.OrderIndex
	if req.OrderIndex != nil {
		orderIndex = *req.OrderIndex
	}
	if err := s.repo.Update(ctx, id, req.Title, req.Description, orderIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update course")
	}
	return s.repo.GetByID(ctx, id)
}
