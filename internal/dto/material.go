package dto

import "github.com/yuliutaustin/classhub-api/internal/models"

// CreateFolderRequest creates a materials folder, optionally nested.
type CreateFolderRequest struct {
	Name     string  `json:"name" validate:"required"`
	ParentID *string `json:"parentId"`
}

// UpdateFolderRequest is a whole-field overwrite of a folder.
type UpdateFolderRequest struct {
	Name       string `json:"name" validate:"required"`
	OrderIndex int    `json:"orderIndex"`
}

// CreateMaterialRequest carries the multipart fields accompanying a material
// upload.
type CreateMaterialRequest struct {
	Title       string  `form:"title" json:"title" validate:"required"`
	Description *string `form:"description" json:"description"`
	FolderID    *string `form:"folderId" json:"folderId"`
	CategoryID  *string `form:"categoryId" json:"categoryId"`
	AuthorID    string  `form:"authorId" json:"authorId" validate:"required"`
}

// UpdateMaterialRequest replaces the mutable material fields; the stored blob
// reference is immutable.
type UpdateMaterialRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	FolderID    *string `json:"folderId"`
	OrderIndex  int     `json:"orderIndex"`
}

// FolderContent is a folder with its nested children and materials.
type FolderContent struct {
	models.Folder
	Children  []FolderContent   `json:"children"`
	Materials []models.Material `json:"materials"`
}

// MaterialLibrary is the whole materials page payload: folder tree plus the
// uncategorized bucket.
type MaterialLibrary struct {
	Folders       []FolderContent   `json:"folders"`
	Uncategorized []models.Material `json:"uncategorized"`
}

// MaterialDownloadResponse enriches metadata with a signed download URL.
type MaterialDownloadResponse struct {
	models.Material
	DownloadURL string `json:"downloadUrl"`
}
