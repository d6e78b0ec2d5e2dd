package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

type materialStore interface {
	Create(ctx context.Context, material *models.Material) error
	GetByID(ctx context.Context, id string) (*models.Material, error)
	ListByFolder(ctx context.Context, folderID *string) ([]models.Material, error)
	Update(ctx context.Context, id, title string, description *string, folderID *string, orderIndex int) error
	Delete(ctx context.Context, id string) error
	NextOrderIndex(ctx context.Context, folderID *string) (int, error)
}

type folderReader interface {
	GetByID(ctx context.Context, id string) (*models.Folder, error)
	ListByParent(ctx context.Context, parentID *string) ([]models.Folder, error)
}

// URLSigner mints and verifies short-lived download tokens.
type URLSigner interface {
	Generate(materialID, key string) (string, time.Time, error)
	Parse(token string) (materialID, key string, expiresAt time.Time, err error)
}

// BlobOpener resolves stored keys back from public URLs and opens the
// underlying files for streaming.
type BlobOpener interface {
	KeyFromURL(url string) (string, bool)
	Open(key string) (*os.File, error)
}

// MaterialDownload bundles file reader metadata for streaming.
type MaterialDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// MaterialService manages the class materials library: uploads, the folder
// tree, and signed downloads.
type MaterialService struct {
	repo      materialStore
	folders   folderReader
	blobs     BlobStore
	resolver  BlobOpener
	signer    URLSigner
	metrics   *MetricsService
	maxSize   int64
	allowed   map[string]struct{}
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService builds a MaterialService with sane defaults.
func NewMaterialService(repo materialStore, folders folderReader, blobs BlobStore, resolver BlobOpener, signer URLSigner, metrics *MetricsService, maxSize int64, allowedMIMEs []string, validate *validator.Validate, logger *zap.Logger) *MaterialService {
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
	return &MaterialService{
		repo:      repo,
		folders:   folders,
		blobs:     blobs,
		resolver:  resolver,
		signer:    signer,
		metrics:   metrics,
		maxSize:   maxSize,
		allowed:   allowed,
		validator: validate,
		logger:    logger,
	}
}

// Upload stores the blob, then the metadata row. The row is only written
// after the bytes are safely on disk.
func (s *MaterialService) Upload(ctx context.Context, req dto.CreateMaterialRequest, upload Upload) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title and authorId are required")
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
	folderID := normalizeSectionID(req.FolderID)
	if folderID != nil {
		if _, err := s.folders.GetByID(ctx, *folderID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrValidation, "folder does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load folder")
		}
	}

	next, err := s.repo.NextOrderIndex(ctx, folderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to compute order index")
	}

	key := s.blobs.NewKey(upload.Filename)
	if _, err := s.blobs.Save(key, upload.Content); err != nil {
		s.metrics.RecordUpload(upload.Size, false)
		return nil, appErrors.Wrap(err, appErrors.ErrBlobWrite.Code, appErrors.ErrBlobWrite.Status, "failed to store file")
	}

	material := &models.Material{
		Title:       req.Title,
		Description: req.Description,
		FileURL:     s.blobs.PublicURL(key),
		FileName:    upload.Filename,
		FileType:    upload.MimeType,
		FileSize:    upload.Size,
		FolderID:    folderID,
		CategoryID:  normalizeSectionID(req.CategoryID),
		AuthorID:    req.AuthorID,
		OrderIndex:  next,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		s.metrics.RecordUpload(upload.Size, false)
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to save material")
	}
	s.metrics.RecordUpload(upload.Size, true)
	return material, nil
}

// Get returns one material by id.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load material")
	}
	return material, nil
}

// Update overwrites the mutable fields of a material. The stored blob never
// changes; re-uploading means creating a new material.
func (s *MaterialService) Update(ctx context.Context, id string, req dto.UpdateMaterialRequest) (*models.Material, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title is required")
	}
	folderID := normalizeSectionID(req.FolderID)
	if folderID != nil {
		if _, err := s.folders.GetByID(ctx, *folderID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrValidation, "folder does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load folder")
		}
	}
	if err := s.repo.Update(ctx, id, req.Title, req.Description, folderID, req.OrderIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update material")
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes the metadata row and leaves the blob in place.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete material")
	}
	return nil
}

// Library assembles the materials page: every top-level folder expanded into
// its subtree, plus the uncategorized bucket.
func (s *MaterialService) Library(ctx context.Context) (*dto.MaterialLibrary, error) {
	roots, err := s.buildTree(ctx, nil)
	if err != nil {
		return nil, err
	}
	uncategorized, err := s.repo.ListByFolder(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list materials")
	}
	return &dto.MaterialLibrary{Folders: roots, Uncategorized: uncategorized}, nil
}

// FolderContent returns one folder with its direct children and materials.
func (s *MaterialService) FolderContent(ctx context.Context, folderID string) (*dto.FolderContent, error) {
	folder, err := s.folders.GetByID(ctx, folderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "folder not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load folder")
	}
	children, err := s.buildTree(ctx, &folderID)
	if err != nil {
		return nil, err
	}
	materials, err := s.repo.ListByFolder(ctx, &folderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list materials")
	}
	return &dto.FolderContent{Folder: *folder, Children: children, Materials: materials}, nil
}

// SignedDownload mints a short-lived download URL for a material.
func (s *MaterialService) SignedDownload(ctx context.Context, id string) (*dto.MaterialDownloadResponse, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	key, ok := s.resolver.KeyFromURL(material.FileURL)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "material has no resolvable storage key")
	}
	token, expires, err := s.signer.Generate(material.ID, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	s.logger.Debug("signed download url issued",
		zap.String("material_id", id),
		zap.Time("expires_at", expires))
	return &dto.MaterialDownloadResponse{
		Material:    *material,
		DownloadURL: fmt.Sprintf("/api/v1/materials/%s/download?token=%s", material.ID, token),
	}, nil
}

// Download verifies a download token and opens the material's file.
func (s *MaterialService) Download(ctx context.Context, id, token string) (*MaterialDownload, error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	materialID, key, expiresAt, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid download token")
	}
	if materialID != material.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "token does not match this material")
	}
	if time.Now().After(expiresAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "download token has expired")
	}
	file, err := s.resolver.Open(key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open material file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read material file metadata")
	}
	return &MaterialDownload{
		File:      file,
		Filename:  material.FileName,
		MimeType:  material.FileType,
		SizeBytes: info.Size(),
	}, nil
}

func (s *MaterialService) buildTree(ctx context.Context, parentID *string) ([]dto.FolderContent, error) {
	folders, err := s.folders.ListByParent(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list folders")
	}
	out := make([]dto.FolderContent, 0, len(folders))
	for _, f := range folders {
		children, err := s.buildTree(ctx, &f.ID)
		if err != nil {
			return nil, err
		}
		materials, err := s.repo.ListByFolder(ctx, &f.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list materials")
		}
		out = append(out, dto.FolderContent{Folder: f, Children: children, Materials: materials})
	}
	return out, nil
}
