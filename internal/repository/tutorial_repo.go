package repository

import (
	"errors"

	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
)

// TutorialRepository tutorial data access. Implements ContentStore for the
// lifecycle engine on top of the regular CRUD surface.
type TutorialRepository interface {
	ContentStore
	Create(tutorial *domain.Tutorial) error
	FindByID(id uint64) (*domain.Tutorial, error)
	FindAll(publishedOnly bool, page, limit int) ([]domain.Tutorial, int64, error)
	Update(tutorial *domain.Tutorial) error
}

type tutorialRepository struct {
	db *gorm.DB
}

// NewTutorialRepository creates a new TutorialRepository
func NewTutorialRepository(db *gorm.DB) TutorialRepository {
	return &tutorialRepository{db: db}
}

func (r *tutorialRepository) Create(tutorial *domain.Tutorial) error {
	return r.db.Create(tutorial).Error
}

func (r *tutorialRepository) FindByID(id uint64) (*domain.Tutorial, error) {
	var tutorial domain.Tutorial
	err := r.db.First(&tutorial, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrTutorialNotFound
		}
		return nil, err
	}
	return &tutorial, nil
}

func (r *tutorialRepository) FindAll(publishedOnly bool, page, limit int) ([]domain.Tutorial, int64, error) {
	query := r.db.Model(&domain.Tutorial{})
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tutorials []domain.Tutorial
	err := query.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&tutorials).Error
	return tutorials, total, err
}

func (r *tutorialRepository) Update(tutorial *domain.Tutorial) error {
	return r.db.Save(tutorial).Error
}

func (r *tutorialRepository) GetEditable(id uint64) (*domain.EditableContent, error) {
	tutorial, err := r.FindByID(id)
	if err != nil {
		return nil, err
	}
	return &domain.EditableContent{Title: tutorial.Title, Body: tutorial.Body}, nil
}

func (r *tutorialRepository) UpdateEditable(id uint64, title, body string) error {
	result := r.db.Model(&domain.Tutorial{}).
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

func (r *tutorialRepository) SetPublished(id uint64, published bool) error {
	result := r.db.Model(&domain.Tutorial{}).
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
func (r *tutorialRepository) checkExists(id uint64) error {
	var count int64
	if err := r.db.Model(&domain.Tutorial{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.ErrTutorialNotFound
	}
	return nil
}

func (r *tutorialRepository) Delete(id uint64) error {
	result := r.db.Delete(&domain.Tutorial{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return common.ErrTutorialNotFound
	}
	return nil
}

func (r *tutorialRepository) FindTitlesByIDs(ids []uint64) (map[uint64]string, error) {
	titles := make(map[uint64]string, len(ids))
	if len(ids) == 0 {
		return titles, nil
	}

	var rows []struct {
		ID    uint64
		Title string
	}
	err := r.db.Model(&domain.Tutorial{}).
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
