package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/service"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
	"github.com/yuliutaustin/classhub-api/pkg/response"
)

// NoteHandler exposes the course note endpoints.
type NoteHandler struct {
	notes *service.NoteService
}

// NewNoteHandler constructs NoteHandler.
func NewNoteHandler(notes *service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// Create godoc
// @Summary Create course note
// @Tags Notes
// @Accept json
// @Produce json
// @Param payload body dto.CreateNoteRequest true "Note payload"
// @Success 200 {object} response.Envelope
// @Router /courses/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	var req dto.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Delete godoc
// @Summary Delete course note
// @Tags Notes
// @Produce json
// @Param id query string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /courses/notes [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	if err := h.notes.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Success: true}, nil)
}
