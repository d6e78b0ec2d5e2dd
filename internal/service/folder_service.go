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

type folderStore interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListByParent(ctx context.Context, parentID *string) ([]models.Folder, error)
	Update(ctx context.Context, id, name string, orderIndex int) error
	DeleteWithOrphan(ctx context.Context, id string) error
	NextOrderIndex(ctx context.Context, parentID *string) (int, error)
}

// FolderService manages the nested folder tree of the materials library.
type FolderService struct {
	repo      folderStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFolderService builds a FolderService with sane defaults.
func NewFolderService(repo folderStore, validate *validator.Validate, logger *zap.Logger) *FolderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FolderService{repo: repo, validator: validate, logger: logger}
}

// Create appends a folder among its siblings, at the top level when no
// parent is given. The parent must exist.
func (s *FolderService) Create(ctx context.Context, req dto.CreateFolderRequest) (*models.Folder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required")
	}
	parentID := normalizeSectionID(req.ParentID)
	if parentID != nil {
		if _, err := s.repo.GetByID(ctx, *parentID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrValidation, "parent folder does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load parent folder")
		}
	}

	next, err := s.repo.NextOrderIndex(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to compute order index")
	}

	folder := &models.Folder{
		Name:       req.Name,
		ParentID:   parentID,
		OrderIndex: next,
	}
	if err := s.repo.Create(ctx, folder); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create folder")
	}
	return folder, nil
}

// Update overwrites a folder's name and order index.
func (s *FolderService) Update(ctx context.Context, id string, req dto.UpdateFolderRequest) (*models.Folder, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "name is required")
	}
	if err := s.repo.Update(ctx, id, req.Name, req.OrderIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update folder")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes a folder as one atomic unit: its materials land in the
// uncategorized bucket and its child folders take its place in the tree.
// Nothing is ever deleted recursively.
func (s *FolderService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteWithOrphan(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete folder")
	}
	s.logger.Info("folder deleted, materials moved to uncategorized", zap.String("folder_id", id))
	return nil
}
