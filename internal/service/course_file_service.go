package service

import (
	"context"
	"database/sql"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

// BlobStore persists raw upload bytes and maps keys to public URLs. Metadata
// rows only ever reference what the store returns.
type BlobStore interface {
	NewKey(originalName string) string
	Save(key string, r io.Reader) (string, error)
	PublicURL(key string) string
}

// Upload carries one incoming multipart file.
type Upload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

type courseFileStore interface {
	Create(ctx context.Context, file *models.CourseFile) error
	GetByID(ctx context.Context, id string) (*models.CourseFile, error)
	Delete(ctx context.Context, id string) error
}

// CourseFileService manages course file attachments and their blobs.
type CourseFileService struct {
	repo      courseFileStore
	courses   courseReader
	sections  sectionReader
	blobs     BlobStore
	metrics   *MetricsService
	maxSize   int64
	allowed   map[string]struct{}
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseFileService builds a CourseFileService with sane defaults. An
// empty allowedMIMEs list admits any content type.
func NewCourseFileService(repo courseFileStore, courses courseReader, sections sectionReader, blobs BlobStore, metrics *MetricsService, maxSize int64, allowedMIMEs []string, validate *validator.Validate, logger *zap.Logger) *CourseFileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(allowedMIMEs))
	for _, m := range allowedMIMEs {
		allowed[m] = struct{}{}
	}
	return &CourseFileService{
		repo:      repo,
		courses:   courses,
		sections:  sections,
		blobs:     blobs,
		metrics:   metrics,
		maxSize:   maxSize,
		allowed:   allowed,
		validator: validate,
		logger:    logger,
	}
}

// Upload writes the blob first and creates the metadata row only after the
// write succeeded, so no row ever references bytes that were never stored. A
// failed blob write surfaces as a blob-write error and nothing is inserted.
func (s *CourseFileService) Upload(ctx context.Context, req dto.CreateFileRequest, upload Upload) (*models.CourseFile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and courseId are required")
	}
	if upload.Content == nil || upload.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.maxSize > 0 && upload.Size > s.maxSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}
	if len(s.allowed) > 0 {
		if _, ok := s.allowed[upload.MimeType]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
		}
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

	key := s.blobs.NewKey(upload.Filename)
	if _, err := s.blobs.Save(key, upload.Content); err != nil {
		s.metrics.RecordUpload(upload.Size, false)
		return nil, appErrors.Wrap(err, appErrors.ErrBlobWrite.Code, appErrors.ErrBlobWrite.Status, "failed to store file")
	}

	file := &models.CourseFile{
		CourseID:  req.CourseID,
		SectionID: normalizeSectionID(req.SectionID),
		Title:     req.Title,
		FileName:  upload.Filename,
		FileURL:   s.blobs.PublicURL(key),
		FileType:  upload.MimeType,
		FileSize:  upload.Size,
	}
	if err := s.repo.Create(ctx, file); err != nil {
		s.metrics.RecordUpload(upload.Size, false)
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save file metadata")
	}
	s.metrics.RecordUpload(upload.Size, true)
	return file, nil
}

// Delete removes the metadata row. The blob stays behind; the opt-in orphan
// sweep is the only thing that ever reclaims it.
func (s *CourseFileService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete file")
	}
	return nil
}

func (s *CourseFileService) ensureSection(ctx context.Context, sectionID *string, courseID string) error {
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
