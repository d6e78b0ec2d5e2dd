package models

import "time"

// Course is a top-level tabbed workspace identified by a unique slug. Courses
// are presented in manual order (order_index ascending, creation time as the
// tiebreak).
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Description *string   `db:"description" json:"description,omitempty"`
	OrderIndex  int       `db:"order_index" json:"orderIndex"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseSection groups notes and files inside a course. Sections never nest;
// the course hierarchy is exactly two levels deep.
type CourseSection struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"courseId"`
	Title      string    `db:"title" json:"title"`
	OrderIndex int       `db:"order_index" json:"orderIndex"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseNote is a rich-text note attached to a course. A nil SectionID means
// the note sits in the course's unsorted bucket.
type CourseNote struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"courseId"`
	SectionID *string   `db:"section_id" json:"sectionId,omitempty"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CourseFile records metadata for an uploaded attachment. The bytes live in
// the blob store; only the returned reference is persisted here.
type CourseFile struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"courseId"`
	SectionID *string   `db:"section_id" json:"sectionId,omitempty"`
	Title     string    `db:"title" json:"title"`
	FileName  string    `db:"file_name" json:"fileName"`
	FileURL   string    `db:"file_url" json:"fileUrl"`
	FileType  string    `db:"file_type" json:"fileType"`
	FileSize  int64     `db:"file_size" json:"fileSize"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
