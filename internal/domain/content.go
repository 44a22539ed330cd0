package domain

import "time"

// ContentType identifies which content table a lifecycle record refers to.
type ContentType string

const (
	ContentTypeTutorial ContentType = "tutorial"
	ContentTypePage     ContentType = "page"
)

// Valid reports whether the content type is one of the known kinds.
func (t ContentType) Valid() bool {
	return t == ContentTypeTutorial || t == ContentTypePage
}

// Tutorial is an editable tutorial record served to readers
type Tutorial struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title     string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Body      string    `gorm:"column:body;type:mediumtext" json:"body"`
	Published bool      `gorm:"column:published;default:false;index" json:"published"`
	AuthorID  string    `gorm:"column:author_id;type:varchar(64)" json:"author_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Tutorial) TableName() string { return "tutorials" }

// Page is an editable static page record (about, terms, ...)
type Page struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"column:slug;type:varchar(128);uniqueIndex" json:"slug"`
	Title     string    `gorm:"column:title;type:varchar(255)" json:"title"`
	Body      string    `gorm:"column:body;type:mediumtext" json:"body"`
	Published bool      `gorm:"column:published;default:false;index" json:"published"`
	AuthorID  string    `gorm:"column:author_id;type:varchar(64)" json:"author_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Page) TableName() string { return "pages" }

// EditableContent is the narrow view of a content record the lifecycle
// engine reads and writes: title and body only. Publish state and the rest
// of the row belong to the content handlers.
type EditableContent struct {
	Title string
	Body  string
}

// CreateTutorialRequest request body for creating a tutorial
type CreateTutorialRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// UpdateTutorialRequest request body for updating a tutorial
type UpdateTutorialRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// CreatePageRequest request body for creating a page
type CreatePageRequest struct {
	Slug  string `json:"slug" binding:"required"`
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

// UpdatePageRequest request body for updating a page
type UpdatePageRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}
