package migration

import (
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for all tables. Existing tables are altered in
// place; the composite unique index on content_versions is what backs the
// gapless-version invariant, so it must exist before the API serves writes.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Tutorial{},
		&domain.Page{},
		&domain.ContentVersion{},
		&domain.ScheduledAction{},
		&domain.ApprovalRequest{},
	)
}
