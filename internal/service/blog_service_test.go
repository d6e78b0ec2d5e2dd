package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuliutaustin/classhub-api/internal/dto"
	"github.com/yuliutaustin/classhub-api/internal/models"
	appErrors "github.com/yuliutaustin/classhub-api/pkg/errors"
)

// memBlog keeps posts, categories and tags in memory so publication
// transitions can be asserted without a database.
type memBlog struct {
	seq        int
	posts      map[string]*models.Post
	postTags   map[string][]string
	categories map[string]*models.Category
	tags       map[string]*models.Tag
}

func newMemBlog() *memBlog {
	return &memBlog{
		posts:      make(map[string]*models.Post),
		postTags:   make(map[string][]string),
		categories: make(map[string]*models.Category),
		tags:       make(map[string]*models.Tag),
	}
}

func (m *memBlog) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memBlog) Create(ctx context.Context, post *models.Post, tagIDs []string) error {
	for _, existing := range m.posts {
		if existing.Slug == post.Slug {
			return &pq.Error{Code: "23505"}
		}
	}
	post.ID = m.nextID()
	copied := *post
	m.posts[post.ID] = &copied
	m.postTags[post.ID] = append([]string(nil), tagIDs...)
	return nil
}

func (m *memBlog) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, ok := m.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *post
	return &copied, nil
}

func (m *memBlog) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	for _, post := range m.posts {
		if post.Slug == slug {
			copied := *post
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memBlog) ListPublished(ctx context.Context) ([]models.Post, error) {
	out := make([]models.Post, 0)
	for _, post := range m.posts {
		if post.Status == models.PostStatusPublished {
			out = append(out, *post)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PublishedAt.After(*out[j].PublishedAt)
	})
	return out, nil
}

func (m *memBlog) Update(ctx context.Context, post *models.Post) error {
	if _, ok := m.posts[post.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *memBlog) Delete(ctx context.Context, id string) error {
	if _, ok := m.posts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.posts, id)
	delete(m.postTags, id)
	return nil
}

func (m *memBlog) ReplaceTags(ctx context.Context, postID string, tagIDs []string) error {
	m.postTags[postID] = append([]string(nil), tagIDs...)
	return nil
}

func (m *memBlog) ListTags(ctx context.Context, postID string) ([]models.Tag, error) {
	var out []models.Tag
	for _, id := range m.postTags[postID] {
		if tag, ok := m.tags[id]; ok {
			out = append(out, *tag)
		}
	}
	return out, nil
}

func (m *memBlog) GetCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func newBlogFixture() (*memBlog, *BlogService) {
	store := newMemBlog()
	svc := NewBlogService(store, store, nil, nil, nil)
	return store, svc
}

func postRequest(title, slug string) dto.CreatePostRequest {
	return dto.CreatePostRequest{Title: title, Slug: slug, Content: "body", AuthorID: "author-1"}
}

func TestBlogServiceCreateDefaultsToDraft(t *testing.T) {
	_, svc := newBlogFixture()

	post, err := svc.Create(context.Background(), postRequest("Hello", "hello"))
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Nil(t, post.PublishedAt)
}

func TestBlogServiceCreatePublishedStampsTimestamp(t *testing.T) {
	_, svc := newBlogFixture()
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	req := postRequest("Hello", "hello")
	req.Status = "published"
	post, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, stamp, *post.PublishedAt)
}

func TestBlogServiceCreateSlugConflict(t *testing.T) {
	_, svc := newBlogFixture()

	_, err := svc.Create(context.Background(), postRequest("Hello", "hello"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), postRequest("Other", "hello"))
	require.Error(t, err)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestBlogServiceGetBySlugHidesDrafts(t *testing.T) {
	_, svc := newBlogFixture()

	_, err := svc.Create(context.Background(), postRequest("Draft", "draft-post"))
	require.NoError(t, err)

	_, err = svc.GetBySlug(context.Background(), "draft-post")
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestBlogServiceGetBySlugResolvesRelations(t *testing.T) {
	store, svc := newBlogFixture()
	store.categories["cat-1"] = &models.Category{ID: "cat-1", Name: "News", Slug: "news"}
	store.tags["tag-1"] = &models.Tag{ID: "tag-1", Name: "Go", Slug: "go"}

	req := postRequest("Hello", "hello")
	req.Status = "published"
	catID := "cat-1"
	req.CategoryID = &catID
	req.TagIDs = []string{"tag-1"}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	post, err := svc.GetBySlug(context.Background(), "hello")
	require.NoError(t, err)
	require.NotNil(t, post.Category)
	assert.Equal(t, "news", post.Category.Slug)
	require.Len(t, post.Tags, 1)
	assert.Equal(t, "go", post.Tags[0].Slug)
}

func TestBlogServiceListPublishedNewestFirst(t *testing.T) {
	_, svc := newBlogFixture()
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	for _, slug := range []string{"first", "second"} {
		req := postRequest(slug, slug)
		req.Status = "published"
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), postRequest("Draft", "hidden"))
	require.NoError(t, err)

	posts, err := svc.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Slug)
	assert.Equal(t, "first", posts[1].Slug)
	assert.NotNil(t, posts[0].Tags, "tags serialize as an empty array, never null")
}

func TestBlogServicePublishTransitionStampsOnce(t *testing.T) {
	_, svc := newBlogFixture()
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	post, err := svc.Create(context.Background(), postRequest("Hello", "hello"))
	require.NoError(t, err)

	published, err := svc.Update(context.Background(), post.ID, dto.UpdatePostRequest{Title: "Hello", Content: "body", Status: "published"})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	first := *published.PublishedAt

	resaved, err := svc.Update(context.Background(), post.ID, dto.UpdatePostRequest{Title: "Hello v2", Content: "body", Status: "published"})
	require.NoError(t, err)
	require.NotNil(t, resaved.PublishedAt)
	assert.Equal(t, first, *resaved.PublishedAt, "re-saving a published post keeps the original timestamp")

	unpublished, err := svc.Update(context.Background(), post.ID, dto.UpdatePostRequest{Title: "Hello v2", Content: "body", Status: "draft"})
	require.NoError(t, err)
	assert.Nil(t, unpublished.PublishedAt)
}

func TestBlogServiceUpdateNotFound(t *testing.T) {
	_, svc := newBlogFixture()

	_, err := svc.Update(context.Background(), "missing", dto.UpdatePostRequest{Title: "T", Content: "c"})
	require.Error(t, err)
	assert.Equal(t, 404, appErrors.FromError(err).Status)
}

func TestBlogServiceReplaceTags(t *testing.T) {
	store, svc := newBlogFixture()
	store.tags["tag-1"] = &models.Tag{ID: "tag-1", Name: "Go", Slug: "go"}
	store.tags["tag-2"] = &models.Tag{ID: "tag-2", Name: "SQL", Slug: "sql"}

	post, err := svc.Create(context.Background(), postRequest("Hello", "hello"))
	require.NoError(t, err)

	tags, err := svc.ReplaceTags(context.Background(), post.ID, dto.ReplaceTagsRequest{TagIDs: []string{"tag-2"}})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "sql", tags[0].Slug)

	tags, err = svc.ReplaceTags(context.Background(), post.ID, dto.ReplaceTagsRequest{TagIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, tags)
	assert.NotNil(t, tags)
}
