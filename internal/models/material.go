package models

import "time"

// Folder organizes class materials. Unlike course sections, folders nest to
// arbitrary depth through ParentID.
type Folder struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	ParentID   *string   `db:"parent_id" json:"parentId,omitempty"`
	OrderIndex int       `db:"order_index" json:"orderIndex"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Material is a downloadable class resource. A nil FolderID places it in the
// uncategorized bucket.
type Material struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	FileURL     string    `db:"file_url" json:"fileUrl"`
	FileName    string    `db:"file_name" json:"fileName"`
	FileType    string    `db:"file_type" json:"fileType"`
	FileSize    int64     `db:"file_size" json:"fileSize"`
	FolderID    *string   `db:"folder_id" json:"folderId,omitempty"`
	CategoryID  *string   `db:"category_id" json:"categoryId,omitempty"`
	AuthorID    string    `db:"author_id" json:"authorId"`
	OrderIndex  int       `db:"order_index" json:"orderIndex"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
