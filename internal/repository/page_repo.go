package repository

import (
	"errors"

	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
)

// PageRepository page data access. Implements ContentStore for the
// lifecycle engine on top of the regular CRUD surface.
type PageRepository interface {
	ContentStore
	Create(page *domain.Page) error
	FindByID(id uint64) (*domain.Page, error)
	FindBySlug(slug string) (*domain.Page, error)
	FindAll(publishedOnly bool) ([]domain.Page, error)
	Update(page *domain.Page) error
}

type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new PageRepository
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

func (r *pageRepository) Create(page *domain.Page) error {
	return r.db.Create(page).Error
}

func (r *pageRepository) FindByID(id uint64) (*domain.Page, error) {
	var page domain.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) FindBySlug(slug string) (*domain.Page, error) {
	var page domain.Page
	err := r.db.Where("slug = ?", slug).First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

func (r *pageRepository) FindAll(publishedOnly bool) ([]domain.Page, error) {
	query := r.db.Model(&domain.Page{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var pages []domain.Page
	err := query.Order("slug ASC").Find(&pages).Error
	return pages, err
}

func (r *pageRepository) Update(page *domain.Page) error {
	return r.db.Save(page).Error
}

func (r *pageRepository) GetEditable(id uint64) (*domain.EditableContent, error) {
	page, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &domain.EditableContent{Title: page.Title, Body: page.Body}, nil
}

func (r *pageRepository) UpdateEditable(id uint64, title, body string) error {
	result := r.db.Model(&domain.Page{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "body": body})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkExists(id)
	}
	return nil
}

func (r *pageRepository) SetPublished(id uint64, published bool) error {
	result := r.db.Model(&domain.Page{}).
		Where("id = ?", id).
		Update("published", published)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.checkExists(id)
	}
	return nil
}

// checkExists disambiguates a zero-row update: MySQL reports no affected
// rows both for a missing record and for a write that changed nothing.
func (r *pageRepository) checkExists(id uint64) error {
	var count int64
	if err := r.db.Model(&domain.Page{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.ErrPageNotFound
	}
	return nil
}

func (r *pageRepository) Delete(id uint64) error {
	result := r.db.Delete(&domain.Page{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrPageNotFound
	}
	return nil
}

func (r *pageRepository) FindTitlesByIDs(ids []uint64) (map[uint64]string, error) {
	titles := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	var rows []struct {
		ID    uint64
		Title string
	}
	err := r.db.Model(&domain.Page{}).
		Select("id, title").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		titles[row.ID] = row.Title
	}
	return titles, nil
}
