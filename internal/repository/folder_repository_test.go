package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFolderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestFolderRepositoryDeleteWithOrphan(t *testing.T) {
	db, mock, cleanup := newFolderMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT parent_id FROM folders WHERE id = $1")).
		WithArgs("f1").
		WillReturnRows(sqlmock.NewRows([]string{"parent_id"}).AddRow("root"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE materials SET folder_id = NULL WHERE folder_id = $1")).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE folders SET parent_id = $2 WHERE parent_id = $1")).
		WithArgs("f1", "root").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM folders WHERE id = $1")).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteWithOrphan(context.Background(), "f1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryDeleteWithOrphanNotFound(t *testing.T) {
	db, mock, cleanup := newFolderMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT parent_id FROM folders WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.DeleteWithOrphan(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFolderRepositoryNextOrderIndexRoot(t *testing.T) {
	db, mock, cleanup := newFolderMock(t)
	defer cleanup()
	repo := NewFolderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM folders WHERE parent_id IS NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(2))

	next, err := repo.NextOrderIndex(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}
