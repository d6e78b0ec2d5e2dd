package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/service"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
	"github.com/yuliutaustin/classhub-api/pkg/response"
)

// CourseFileHandler exposes the course file endpoints.
type CourseFileHandler struct {
	files *service.CourseFileService
}

// NewCourseFileHandler constructs CourseFileHandler.
func NewCourseFileHandler(files *service.CourseFileService) *CourseFileHandler {
	return &CourseFileHandler{files: files}
}

// Upload godoc
// @Summary Upload course file
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param courseId formData string true "Course ID"
// @Param sectionId formData string false "Section ID"
// @Param file formData file true "File"
// @Success 200 {object} response.Envelope
// @Router /courses/files [post]
func (h *CourseFileHandler) Upload(c *gin.Context) {
	var req dto.CreateFileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid file payload"))
		return
	}
	upload, cleanup, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer cleanup()
	file, err := h.files.Upload(c.Request.Context(), req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, file, nil)
}

// Delete godoc
// @Summary Delete course file metadata
// @Tags Files
// @Produce json
// @Param id query string true "File ID"
// @Success 200 {object} response.Envelope
// @Router /courses/files [delete]
func (h *CourseFileHandler) Delete(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	if err := h.files.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Success: true}, nil)
}

// readUpload extracts the multipart file, buffering it when the part does
// not expose a seekable reader. The caller must invoke cleanup after the
// upload has been consumed.
func readUpload(c *gin.Context) (service.Upload, func(), error) {
	noop := func() {}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return service.Upload{}, noop, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return service.Upload{}, noop, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}

	cleanup := func() { _ = src.Close() }
	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		cleanup()
		if readErr != nil {
			return service.Upload{}, noop, appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file")
		}
		reader = bytes.NewReader(buf)
		cleanup = noop
	}
	return service.Upload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}, cleanup, nil
}
