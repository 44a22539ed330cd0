package repository

import (
	"errors"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlErrDuplicateEntry = 1062

// VersionRepository content version snapshot data access. Versions are
// append-only; there is no update or delete.
type VersionRepository interface {
	// Create allocates the next version number for the content item and
	// inserts the snapshot, filling in version and ID on the passed struct.
	Create(version *domain.ContentVersion) error
	// FindByContent returns all versions for a content item, newest first
	FindByContent(contentType domain.ContentType, contentID uint64) ([]domain.ContentVersion, error)
	// FindByVersion returns one specific version of a content item
	FindByVersion(contentType domain.ContentType, contentID uint64, version uint) (*domain.ContentVersion, error)
}

type versionRepository struct {
	db *gorm.DB
}

// NewVersionRepository creates a new VersionRepository
func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

// Create computes MAX(version)+1 and inserts within one transaction. The
// MAX read locks the item's existing rows (SELECT ... FOR UPDATE), which
// serializes concurrent saves for the same content id. Two concurrent
// first-ever saves have no rows to lock, so the composite unique index on
// (content_type, content_id, version) is the backstop; a duplicate-key
// conflict is retried once with a freshly allocated number.
func (r *versionRepository) Create(version *domain.ContentVersion) error {
	err := r.createOnce(version)
	if isDuplicateEntry(err) {
		version.ID = 0
		err = r.createOnce(version)
	}
	return err
}

func (r *versionRepository) createOnce(version *domain.ContentVersion) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxVersion *uint
		err := tx.Model(&domain.ContentVersion{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("content_type = ? AND content_id = ?", version.ContentType, version.ContentID).
			Select("MAX(version)").
			Scan(&maxVersion).Error
		if err != nil {
			return err
		}

		version.Version = 1
		if maxVersion != nil {
			version.Version = *maxVersion + 1
		}
		return tx.Create(version).Error
	})
}

func (r *versionRepository) FindByContent(contentType domain.ContentType, contentID uint64) ([]domain.ContentVersion, error) {
	var versions []domain.ContentVersion
	err := r.db.Where("content_type = ? AND content_id = ?", contentType, contentID).
		Order("version DESC").
		Find(&versions).Error
	return versions, err
}

func (r *versionRepository) FindByVersion(contentType domain.ContentType, contentID uint64, version uint) (*domain.ContentVersion, error) {
	var v domain.ContentVersion
	err := r.db.Where("content_type = ? AND content_id = ? AND version = ?", contentType, contentID, version).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// isDuplicateEntry reports whether err is a MySQL duplicate-key violation
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}
	return false
}
