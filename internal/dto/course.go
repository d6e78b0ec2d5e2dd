package dto

import "github.com/yuliutaustin/classhub-api/internal/models"

// CreateCourseRequest creates a new course tab.
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Slug        string  `json:"slug" validate:"required"`
	Description *string `json:"description"`
}

// UpdateCourseRequest replaces the mutable course fields.
type UpdateCourseRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	OrderIndex  *int    `json:"orderIndex"`
}

// CreateSectionRequest appends a section to a course.
type CreateSectionRequest struct {
	Title    string `json:"title" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

// UpdateSectionRequest is a whole-field overwrite of a section. OrderIndex is
// written exactly as given; siblings are never renumbered.
type UpdateSectionRequest struct {
	ID         string `json:"id" validate:"required"`
	Title      string `json:"title" validate:"required"`
	OrderIndex int    `json:"orderIndex"`
}

// CreateNoteRequest attaches a note to a course, optionally inside a section.
type CreateNoteRequest struct {
	Title     string  `json:"title" validate:"required"`
	Content   string  `json:"content" validate:"required"`
	CourseID  string  `json:"courseId" validate:"required"`
	SectionID *string `json:"sectionId"`
}

// CreateFileRequest carries the multipart fields accompanying an upload.
type CreateFileRequest struct {
	Title     string  `form:"title" json:"title" validate:"required"`
	CourseID  string  `form:"courseId" json:"courseId" validate:"required"`
	SectionID *string `form:"sectionId" json:"sectionId"`
}

// SectionContent is one section with its resolved leaves, newest first.
type SectionContent struct {
	models.CourseSection
	Notes []models.CourseNote `json:"notes"`
	Files []models.CourseFile `json:"files"`
}

// CourseDetail is the full workspace payload: sections in manual order, each
// with its leaves, plus the unsorted bucket.
type CourseDetail struct {
	models.Course
	Sections      []SectionContent    `json:"sections"`
	UnsortedNotes []models.CourseNote `json:"unsortedNotes"`
	UnsortedFiles []models.CourseFile `json:"unsortedFiles"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool `json:"success"`
}
