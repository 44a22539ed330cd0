package repository

import "github.com/tutorhub/tutorhub-backend/internal/domain"

// ContentStore is the narrow interface the lifecycle engine uses against a
// content table. Each content type provides one implementation; the engine
// dispatches on domain.ContentType and never branches on table names
// itself. All writes are single UPDATEs scoped to the id so concurrent
// edits to unrelated fields are never clobbered.
type ContentStore interface {
	// GetEditable returns the current title and body of the record
	GetEditable(id uint64) (*domain.EditableContent, error)
	// UpdateEditable overwrites title and body only
	UpdateEditable(id uint64, title, body string) error
	// SetPublished flips the published flag only
	SetPublished(id uint64, published bool) error
	// Delete removes the record entirely
	Delete(id uint64) error
	// FindTitlesByIDs returns id → title for listing joins
	FindTitlesByIDs(ids []uint64) (map[uint64]string, error)
}

// ContentStores maps each content type to its store. Built once at startup
// and injected into the lifecycle service.
type ContentStores map[domain.ContentType]ContentStore
