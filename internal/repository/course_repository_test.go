package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/models"
	"github.com/yuliutaustin/classhub-api/pkg/database"
)

func newCourseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestCourseRepositoryCreateSlugConflict(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "courses_slug_key"})

	err := repo.Create(context.Background(), &models.Course{Title: "Algebra", Slug: "algebra"})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryGetBySlugNotFound(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery("FROM courses WHERE slug").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryList(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "slug", "description", "order_index", "created_at", "updated_at"}).
		AddRow("c1", "Algebra", "algebra", nil, 0, time.Now(), time.Now()).
		AddRow("c2", "Physics", "physics", nil, 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses ORDER BY order_index ASC, created_at ASC")).
		WillReturnRows(rows)

	courses, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "algebra", courses[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryNextOrderIndexEmpty(t *testing.T) {
	db, mock, cleanup := newCourseMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(order_index), -1) + 1 FROM courses")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	next, err := repo.NextOrderIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
