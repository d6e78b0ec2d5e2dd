package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/yuliutaustin/classhub-api/internal/models"
)

// memWorkspace is an in-memory store implementing the course, section, note
// and file interfaces the workspace services consume. Each write advances an
// artificial clock so creation-time ordering is deterministic.
type memWorkspace struct {
	mu       sync.Mutex
	clock    time.Time
	seq      int
	courses  map[string]models.Course
	sections map[string]models.CourseSection
	notes    map[string]models.CourseNote
	files    map[string]models.CourseFile
}

func newMemWorkspace() *memWorkspace {
	return &memWorkspace{
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		courses:  make(map[string]models.Course),
		sections: make(map[string]models.CourseSection),
		notes:    make(map[string]models.CourseNote),
		files:    make(map[string]models.CourseFile),
	}
}

func (m *memWorkspace) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memWorkspace) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memWorkspace) Create(ctx context.Context, course *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.courses {
		if existing.Slug == course.Slug {
			return &pq.Error{Code: "23505", Constraint: "courses_slug_key"}
		}
	}
	course.ID = m.nextID("course")
	course.CreatedAt = m.tick()
	course.UpdatedAt = course.CreatedAt
	m.courses[course.ID] = *course
	return nil
}

func (m *memWorkspace) GetByID(ctx context.Context, id string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &course, nil
}

func (m *memWorkspace) GetBySlug(ctx context.Context, slug string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range m.courses {
		if course.Slug == slug {
			c := course
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memWorkspace) List(ctx context.Context) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Course, 0, len(m.courses))
	for _, course := range m.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memWorkspace) Update(ctx context.Context, id, title string, description *string, orderIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	course, ok := m.courses[id]
	if !ok {
		return sql.ErrNoRows
	}
	course.Title = title
	course.Description = description
	course.OrderIndex = orderIndex
	course.UpdatedAt = m.tick()
	m.courses[id] = course
	return nil
}

func (m *memWorkspace) NextOrderIndex(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := -1
	for _, course := range m.courses {
		if course.OrderIndex > max {
			max = course.OrderIndex
		}
	}
	return max + 1, nil
}

// memSections adapts memWorkspace to the section store methods. Separate
// receivers keep the overlapping method names apart.
type memSections struct{ w *memWorkspace }

func (m memSections) Create(ctx context.Context, section *models.CourseSection) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	section.ID = m.w.nextID("section")
	section.CreatedAt = m.w.tick()
	section.UpdatedAt = section.CreatedAt
	m.w.sections[section.ID] = *section
	return nil
}

func (m memSections) GetByID(ctx context.Context, id string) (*models.CourseSection, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	section, ok := m.w.sections[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &section, nil
}

func (m memSections) ListByCourse(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	out := make([]models.CourseSection, 0)
	for _, section := range m.w.sections {
		if section.CourseID == courseID {
			out = append(out, section)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m memSections) Update(ctx context.Context, id, title string, orderIndex int) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	section, ok := m.w.sections[id]
	if !ok {
		return sql.ErrNoRows
	}
	section.Title = title
	section.OrderIndex = orderIndex
	section.UpdatedAt = m.w.tick()
	m.w.sections[id] = section
	return nil
}

func (m memSections) DeleteWithOrphan(ctx context.Context, id string) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if _, ok := m.w.sections[id]; !ok {
		return sql.ErrNoRows
	}
	for noteID, note := range m.w.notes {
		if note.SectionID != nil && *note.SectionID == id {
			note.SectionID = nil
			m.w.notes[noteID] = note
		}
	}
	for fileID, file := range m.w.files {
		if file.SectionID != nil && *file.SectionID == id {
			file.SectionID = nil
			m.w.files[fileID] = file
		}
	}
	delete(m.w.sections, id)
	return nil
}

func (m memSections) NextOrderIndex(ctx context.Context, courseID string) (int, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	max := -1
	for _, section := range m.w.sections {
		if section.CourseID == courseID && section.OrderIndex > max {
			max = section.OrderIndex
		}
	}
	return max + 1, nil
}

type memNotes struct{ w *memWorkspace }

func (m memNotes) Create(ctx context.Context, note *models.CourseNote) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	note.ID = m.w.nextID("note")
	note.CreatedAt = m.w.tick()
	note.UpdatedAt = note.CreatedAt
	m.w.notes[note.ID] = *note
	return nil
}

func (m memNotes) GetByID(ctx context.Context, id string) (*models.CourseNote, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	note, ok := m.w.notes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &note, nil
}

func (m memNotes) Delete(ctx context.Context, id string) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if _, ok := m.w.notes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.w.notes, id)
	return nil
}

func (m memNotes) ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseNote, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	out := make([]models.CourseNote, 0)
	for _, note := range m.w.notes {
		if note.CourseID != courseID {
			continue
		}
		if !sameContainer(note.SectionID, sectionID) {
			continue
		}
		out = append(out, note)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memFiles struct{ w *memWorkspace }

func (m memFiles) Create(ctx context.Context, file *models.CourseFile) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	file.ID = m.w.nextID("file")
	file.CreatedAt = m.w.tick()
	file.UpdatedAt = file.CreatedAt
	m.w.files[file.ID] = *file
	return nil
}

func (m memFiles) GetByID(ctx context.Context, id string) (*models.CourseFile, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	file, ok := m.w.files[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &file, nil
}

func (m memFiles) Delete(ctx context.Context, id string) error {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	if _, ok := m.w.files[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.w.files, id)
	return nil
}

func (m memFiles) ListByContainer(ctx context.Context, courseID string, sectionID *string) ([]models.CourseFile, error) {
	m.w.mu.Lock()
	defer m.w.mu.Unlock()
	out := make([]models.CourseFile, 0)
	for _, file := range m.w.files {
		if file.CourseID != courseID {
			continue
		}
		if !sameContainer(file.SectionID, sectionID) {
			continue
		}
		out = append(out, file)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func sameContainer(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
