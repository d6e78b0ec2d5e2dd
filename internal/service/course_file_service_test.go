package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

// memBlobStore records writes and deletions without touching disk.
type memBlobStore struct {
	saved   map[string]string
	deleted []string
	saveErr error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{saved: make(map[string]string)}
}

func (s *memBlobStore) NewKey(originalName string) string { return "k-" + originalName }

func (s *memBlobStore) Save(key string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.saved[key] = string(data)
	return key, nil
}

func (s *memBlobStore) PublicURL(key string) string { return "/uploads/" + key }

func (s *memBlobStore) Delete(key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.saved, key)
	return nil
}

func testUpload(name, content string) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(content)),
		MimeType: "application/pdf",
		Content:  strings.NewReader(content),
	}
}

func TestCourseFileServiceUpload(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	blobs := newMemBlobStore()
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 0, nil, nil, nil)

	file, err := svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Syllabus", CourseID: course.ID}, testUpload("syllabus.pdf", "content"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/k-syllabus.pdf", file.FileURL)
	assert.Equal(t, "syllabus.pdf", file.FileName)
	assert.Equal(t, int64(7), file.FileSize)
	assert.Contains(t, blobs.saved, "k-syllabus.pdf")
}

func TestCourseFileServiceUploadBlobFailureSkipsMetadata(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	blobs := newMemBlobStore()
	blobs.saveErr = errors.New("disk full")
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 0, nil, nil, nil)

	_, err := svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Syllabus", CourseID: course.ID}, testUpload("syllabus.pdf", "content"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBlobWrite.Code, appErrors.FromError(err).Code)
	assert.Empty(t, w.files, "no metadata row may reference bytes that were never stored")
}

func TestCourseFileServiceUploadSizeLimit(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	blobs := newMemBlobStore()
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 4, nil, nil, nil)

	_, err := svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Big", CourseID: course.ID}, testUpload("big.pdf", "too large"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Empty(t, blobs.saved)
}

func TestCourseFileServiceUploadMIMEFilter(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	blobs := newMemBlobStore()
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 0, []string{"image/png"}, nil, nil)

	_, err := svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Doc", CourseID: course.ID}, testUpload("doc.pdf", "x"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestCourseFileServiceUploadSectionFromOtherCourse(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	other := newCourse(t, w, "Physics", "physics")
	sections := NewSectionService(memSections{w}, w, nil, nil)
	section, err := sections.Create(context.Background(), dto.CreateSectionRequest{Title: "Week 1", CourseID: other.ID})
	require.NoError(t, err)

	blobs := newMemBlobStore()
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 0, nil, nil, nil)
	_, err = svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Doc", CourseID: course.ID, SectionID: &section.ID}, testUpload("doc.pdf", "x"))
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.Empty(t, blobs.saved, "validation failures never reach the blob store")
}

func TestCourseFileServiceDeleteRetainsBlob(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	blobs := newMemBlobStore()
	svc := NewCourseFileService(memFiles{w}, w, memSections{w}, blobs, nil, 0, nil, nil, nil)

	file, err := svc.Upload(context.Background(), dto.CreateFileRequest{Title: "Syllabus", CourseID: course.ID}, testUpload("syllabus.pdf", "content"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), file.ID))
	assert.Empty(t, w.files)
	assert.Empty(t, blobs.deleted, "deleting metadata leaves the stored bytes in place")
	assert.Contains(t, blobs.saved, "k-syllabus.pdf")
}
