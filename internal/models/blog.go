package models

import "time"

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Post is a blog entry looked up by unique slug.
type Post struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Slug        string     `db:"slug" json:"slug"`
	Content     string     `db:"content" json:"content"`
	Excerpt     *string    `db:"excerpt" json:"excerpt,omitempty"`
	Status      PostStatus `db:"status" json:"status"`
	AuthorID    string     `db:"author_id" json:"authorId"`
	CategoryID  *string    `db:"category_id" json:"categoryId,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	PublishedAt *time.Time `db:"published_at" json:"publishedAt,omitempty"`
}

// PostWithRelations decorates a post with its category and tags for read
// endpoints.
type PostWithRelations struct {
	Post
	Category *Category `json:"category,omitempty"`
	Tags     []Tag     `json:"tags"`
}

// Category groups posts (and optionally materials); slug is unique.
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	ParentID  *string   `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Tag labels posts through the post_tags join table; slug is unique.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}
