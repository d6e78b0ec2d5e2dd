package dto

// CreatePostRequest creates a blog post. Status defaults to draft.
type CreatePostRequest struct {
	Title      string   `json:"title" validate:"required"`
	Slug       string   `json:"slug" validate:"required"`
	Content    string   `json:"content" validate:"required"`
	Excerpt    *string  `json:"excerpt"`
	Status     string   `json:"status" validate:"omitempty,oneof=draft published"`
	AuthorID   string   `json:"authorId" validate:"required"`
	CategoryID *string  `json:"categoryId"`
	TagIDs     []string `json:"tagIds"`
}

// UpdatePostRequest replaces the mutable post fields.
type UpdatePostRequest struct {
	Title      string  `json:"title" validate:"required"`
	Content    string  `json:"content" validate:"required"`
	Excerpt    *string `json:"excerpt"`
	Status     string  `json:"status" validate:"omitempty,oneof=draft published"`
	CategoryID *string `json:"categoryId"`
}

// ReplaceTagsRequest replaces the full tag set of a post.
type ReplaceTagsRequest struct {
	TagIDs []string `json:"tagIds" validate:"required"`
}

// CreateCategoryRequest creates a category with a unique slug.
type CreateCategoryRequest struct {
	Name     string  `json:"name" validate:"required"`
	Slug     string  `json:"slug" validate:"required"`
	ParentID *string `json:"parentId"`
}

// CreateTagRequest creates a tag with a unique slug.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required"`
	Slug string `json:"slug" validate:"required"`
}
