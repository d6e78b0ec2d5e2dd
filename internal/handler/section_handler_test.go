package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	"github.com/yuliutaustin/classhub-api/internal/service"
)

// sectionStoreStub backs a real SectionService so handlers are exercised
// against the actual service code.
type sectionStoreStub struct {
	sections map[string]*models.CourseSection
	deleted  []string
}

func newSectionStoreStub() *sectionStoreStub {
	return &sectionStoreStub{sections: make(map[string]*models.CourseSection)}
}

func (s *sectionStoreStub) Create(ctx context.Context, section *models.CourseSection) error {
	section.ID = "section-1"
	s.sections[section.ID] = section
	return nil
}

func (s *sectionStoreStub) GetByID(ctx context.Context, id string) (*models.CourseSection, error) {
	section, ok := s.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return section, nil
}

func (s *sectionStoreStub) ListByCourse(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	return nil, nil
}

func (s *sectionStoreStub) Update(ctx context.Context, id, title string, orderIndex int) error {
	section, ok := s.sections[id]
	if !ok {
		return sql.ErrNoRows
	}
	section.Title = title
	section.OrderIndex = orderIndex
	return nil
}

func (s *sectionStoreStub) DeleteWithOrphan(ctx context.Context, id string) error {
	if _, ok := s.sections[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.sections, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *sectionStoreStub) NextOrderIndex(ctx context.Context, courseID string) (int, error) {
	return 0, nil
}

type courseReaderStub struct{}

func (courseReaderStub) GetByID(ctx context.Context, id string) (*models.Course, error) {
	if id != "course-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id, Title: "Algebra", Slug: "algebra"}, nil
}

func newSectionHandlerFixture() (*sectionStoreStub, *SectionHandler) {
	store := newSectionStoreStub()
	return store, NewSectionHandler(service.NewSectionService(store, courseReaderStub{}, nil, nil))
}

func TestSectionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newSectionHandlerFixture()

	payload, _ := json.Marshal(dto.CreateSectionRequest{Title: "Week 1", CourseID: "course-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses/sections", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.CourseSection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Week 1", envelope.Data.Title)
	assert.Equal(t, 0, envelope.Data.OrderIndex)
}

func TestSectionHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newSectionHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses/sections", bytes.NewBufferString(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSectionHandlerCreateUnknownCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, handler := newSectionHandlerFixture()

	payload, _ := json.Marshal(dto.CreateSectionRequest{Title: "Week 1", CourseID: "missing"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/courses/sections", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSectionHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, handler := newSectionHandlerFixture()
	store.sections["section-1"] = &models.CourseSection{ID: "section-1", CourseID: "course-1", Title: "Week 1"}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/courses/sections?id=section-1", nil)
	c.Request = req

	handler.Delete(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.DeleteResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Success)
	assert.Equal(t, []string{"section-1"}, store.deleted)
}

func TestSectionHandlerDeleteMissingID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, handler := newSectionHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/courses/sections", nil)
	c.Request = req

	handler.Delete(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.deleted)
}
