package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

func TestFolderServiceCreateAppendsPerParent(t *testing.T) {
	_, _, folders := newLibraryFixture(t)

	first, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Algebra"})
	require.NoError(t, err)
	second, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Geometry"})
	require.NoError(t, err)
	nested, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Worksheets", ParentID: &first.ID})
	require.NoError(t, err)

	assert.Equal(t, 0, first.OrderIndex)
	assert.Equal(t, 1, second.OrderIndex)
	assert.Equal(t, 0, nested.OrderIndex, "each parent keeps its own sequence")
}

func TestFolderServiceCreateValidation(t *testing.T) {
	_, _, folders := newLibraryFixture(t)

	_, err := folders.Create(context.Background(), dto.CreateFolderRequest{})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)

	missing := "nope"
	_, err = folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Orphan", ParentID: &missing})
	require.Error(t, err)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
}

func TestFolderServiceCreateEmptyParentMeansRoot(t *testing.T) {
	_, _, folders := newLibraryFixture(t)

	empty := ""
	folder, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Algebra", ParentID: &empty})
	require.NoError(t, err)
	assert.Nil(t, folder.ParentID)
}

func TestFolderServiceUpdate(t *testing.T) {
	_, _, folders := newLibraryFixture(t)

	folder, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Algebra"})
	require.NoError(t, err)

	updated, err := folders.Update(context.Background(), folder.ID, dto.UpdateFolderRequest{Name: "Algebra I", OrderIndex: 5})
	require.NoError(t, err)
	assert.Equal(t, "Algebra I", updated.Name)
	assert.Equal(t, 5, updated.OrderIndex)

	_, err = folders.Update(context.Background(), "missing", dto.UpdateFolderRequest{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestFolderServiceDeleteOrphansContent(t *testing.T) {
	lib, materials, folders := newLibraryFixture(t)

	root, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Algebra"})
	require.NoError(t, err)
	child, err := folders.Create(context.Background(), dto.CreateFolderRequest{Name: "Worksheets", ParentID: &root.ID})
	require.NoError(t, err)
	material, err := materials.Upload(context.Background(), materialRequest("Sheet", &root.ID), testUpload("sheet.pdf", "x"))
	require.NoError(t, err)

	require.NoError(t, folders.Delete(context.Background(), root.ID))

	// The material lands in the uncategorized bucket and the child folder
	// takes the deleted folder's place at the top level.
	moved, err := materials.Get(context.Background(), material.ID)
	require.NoError(t, err)
	assert.Nil(t, moved.FolderID)
	promoted := lib.folders[child.ID]
	require.NotNil(t, promoted)
	assert.Nil(t, promoted.ParentID)

	err = folders.Delete(context.Background(), root.ID)
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}
