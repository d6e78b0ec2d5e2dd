package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/service"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
	"github.com/yuliutaustin/classhub-api/pkg/response"
)

// FolderHandler exposes materials folder endpoints.
type FolderHandler struct {
	folders   *service.FolderService
	materials *service.MaterialService
}

// NewFolderHandler constructs FolderHandler.
func NewFolderHandler(folders *service.FolderService, materials *service.MaterialService) *FolderHandler {
	return &FolderHandler{folders: folders, materials: materials}
}

// Get godoc
// @Summary Get folder with children and materials
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 200 {object} response.Envelope
// @Router /folders/{id} [get]
func (h *FolderHandler) Get(c *gin.Context) {
	content, err := h.materials.FolderContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, content, nil)
}

// Create godoc
// @Summary Create folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param payload body dto.CreateFolderRequest true "Folder payload"
// @Success 201 {object} response.Envelope
// @Router /folders [post]
func (h *FolderHandler) Create(c *gin.Context) {
	var req dto.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	folder, err := h.folders.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, folder)
}

// Update godoc
// @Summary Update folder
// @Tags Folders
// @Accept json
// @Produce json
// @Param id path string true "Folder ID"
// @Param payload body dto.UpdateFolderRequest true "Folder payload"
// @Success 200 {object} response.Envelope
// @Router /folders/{id} [put]
func (h *FolderHandler) Update(c *gin.Context) {
	var req dto.UpdateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	folder, err := h.folders.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, folder, nil)
}

// Delete godoc
// @Summary Delete folder
// @Tags Folders
// @Produce json
// @Param id path string true "Folder ID"
// @Success 204
// @Router /folders/{id} [delete]
func (h *FolderHandler) Delete(c *gin.Context) {
	if err := h.folders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
