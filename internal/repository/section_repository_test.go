package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/models"
)

func newSectionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("INSERT INTO course_sections").
		WithArgs(sqlmock.AnyArg(), "course-1", "Week 1", 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	section := &models.CourseSection{CourseID: "course-1", Title: "Week 1"}
	require.NoError(t, repo.Create(context.Background(), section))
	assert.NotEmpty(t, section.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "title", "order_index", "created_at", "updated_at"}).
		AddRow("s1", "course-1", "Week 1", 0, time.Now(), time.Now()).
		AddRow("s2", "course-1", "Week 2", 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY order_index ASC, created_at ASC")).
		WithArgs("course-1").
		WillReturnRows(rows)

	sections, err := repo.ListByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Week 1", sections[0].Title)
	assert.Equal(t, 1, sections[1].OrderIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryNextOrderIndex(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(order_index), -1) + 1 FROM course_sections WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(3))

	next, err := repo.NextOrderIndex(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, 3, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectExec("UPDATE course_sections SET").
		WithArgs("missing", "Title", 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "missing", "Title", 2)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDeleteWithOrphan(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_notes SET section_id = NULL WHERE section_id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_files SET section_id = NULL WHERE section_id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_sections WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithOrphan(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepositoryDeleteWithOrphanNotFound(t *testing.T) {
	db, mock, cleanup := newSectionMock(t)
	defer cleanup()
	repo := NewSectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_notes SET section_id = NULL WHERE section_id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_files SET section_id = NULL WHERE section_id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_sections WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteWithOrphan(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
