package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ContentVersion stores one immutable snapshot of a content item's editable
// fields. Rows are append-only: they are never updated or deleted, so the
// table doubles as an audit trail even after the content record itself is
// gone.
type ContentVersion struct {
	ID          uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentType ContentType       `gorm:"column:content_type;type:varchar(20);uniqueIndex:uq_content_version,priority:1" json:"content_type"`
	ContentID   uint64            `gorm:"column:content_id;uniqueIndex:uq_content_version,priority:2" json:"content_id"`
	Version     uint              `gorm:"column:version;uniqueIndex:uq_content_version,priority:3" json:"version"`
	Title       string            `gorm:"column:title;type:varchar(255)" json:"title"`
	Body        string            `gorm:"column:body;type:mediumtext" json:"body"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	AuthorID    string            `gorm:"column:author_id;type:varchar(64)" json:"author_id"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ContentVersion) TableName() string { return "content_versions" }

// VersionResponse is the API shape for a version listing entry. Body is
// omitted from listings to keep them light; GetVersion returns the full row.
type VersionResponse struct {
	ID          uint64      `json:"id"`
	ContentType ContentType `json:"content_type"`
	ContentID   uint64      `json:"content_id"`
	Version     uint        `json:"version"`
	Title       string      `json:"title"`
	AuthorID    string      `json:"author_id"`
	CreatedAt   string      `json:"created_at"`
}

// ToResponse converts a ContentVersion to its listing shape
func (v *ContentVersion) ToResponse() VersionResponse {
	return VersionResponse{
		ID:          v.ID,
		ContentType: v.ContentType,
		ContentID:   v.ContentID,
		Version:     v.Version,
		Title:       v.Title,
		AuthorID:    v.AuthorID,
		CreatedAt:   v.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
