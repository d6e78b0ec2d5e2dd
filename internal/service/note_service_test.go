package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

func TestNoteServiceCreateUnsorted(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)

	note, err := svc.Create(context.Background(), dto.CreateNoteRequest{Title: "Reading", Content: "ch. 1", CourseID: course.ID})
	require.NoError(t, err)
	assert.Nil(t, note.SectionID)
}

func TestNoteServiceCreateEmptySectionMeansUnsorted(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)

	empty := ""
	note, err := svc.Create(context.Background(), dto.CreateNoteRequest{Title: "Reading", Content: "ch. 1", CourseID: course.ID, SectionID: &empty})
	require.NoError(t, err)
	assert.Nil(t, note.SectionID, "an empty section reference collapses to the unsorted bucket")
}

func TestNoteServiceCreateValidation(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateNoteRequest{Title: "Reading", CourseID: course.ID})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestNoteServiceCreateSectionFromOtherCourse(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	other := newCourse(t, w, "Physics", "physics")
	sections := NewSectionService(memSections{w}, w, nil, nil)
	section, err := sections.Create(context.Background(), dto.CreateSectionRequest{Title: "Week 1", CourseID: other.ID})
	require.NoError(t, err)

	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)
	_, err = svc.Create(context.Background(), dto.CreateNoteRequest{Title: "n", Content: "c", CourseID: course.ID, SectionID: &section.ID})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status, "a section must belong to the note's course")
}

func TestNoteServiceCreateUnknownSection(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)

	missing := "missing"
	_, err := svc.Create(context.Background(), dto.CreateNoteRequest{Title: "n", Content: "c", CourseID: course.ID, SectionID: &missing})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestNoteServiceDeleteTwice(t *testing.T) {
	w, course := newWorkspaceFixture(t)
	svc := NewNoteService(memNotes{w}, w, memSections{w}, nil, nil)

	note, err := svc.Create(context.Background(), dto.CreateNoteRequest{Title: "n", Content: "c", CourseID: course.ID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), note.ID))
	err = svc.Delete(context.Background(), note.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
