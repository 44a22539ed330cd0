package repository

import (
	"time"

	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
)

// ScheduleRepository scheduled action data access
type ScheduleRepository interface {
	// Create inserts a new pending (executed=false) action
	Create(action *domain.ScheduledAction) error
	// FindByID returns a single scheduled action
	FindByID(id uint64) (*domain.ScheduledAction, error)
	// FindPending returns all unexecuted actions ordered by due time ascending
	FindPending() ([]domain.ScheduledAction, error)
	// FindDue returns unexecuted actions with due_at <= now, due ascending
	FindDue(now time.Time) ([]domain.ScheduledAction, error)
	// Claim atomically marks an action executed. Returns true only for the
	// caller whose update actually flipped the flag; concurrent execute
	// passes racing on the same action get false and must skip it.
	Claim(id uint64, now time.Time) (bool, error)
	// Release reverts a claim after a failed apply so the next pass retries
	Release(id uint64) error
	// DeletePending removes an unexecuted action. Deleting an executed or
	// absent action is a no-op, not an error.
	DeletePending(id uint64) error
}

type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(action *domain.ScheduledAction) error {
	return r.db.Create(action).Error
}

func (r *scheduleRepository) FindByID(id uint64) (*domain.ScheduledAction, error) {
	var action domain.ScheduledAction
	err := r.db.First(&action, id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *scheduleRepository) FindPending() ([]domain.ScheduledAction, error) {
	var actions []domain.ScheduledAction
	err := r.db.Where("executed = ?", false).
		Order("due_at ASC").
		Find(&actions).Error
	return actions, err
}

// FindDue includes actions due exactly at now (boundary counts as due)
func (r *scheduleRepository) FindDue(now time.Time) ([]domain.ScheduledAction, error) {
	var actions []domain.ScheduledAction
	err := r.db.Where("executed = ? AND due_at <= ?", false, now).
		Order("due_at ASC").
		Find(&actions).Error
	return actions, err
}

// Claim is the single atomic conditional update that makes concurrent
// execute passes safe: the WHERE executed = false guard means exactly one
// caller sees RowsAffected = 1 for a given action.
func (r *scheduleRepository) Claim(id uint64, now time.Time) (bool, error) {
	result := r.db.Model(&domain.ScheduledAction{}).
		Where("id = ? AND executed = ?", id, false).
		Updates(map[string]interface{}{
			"executed":    true,
			"executed_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *scheduleRepository) Release(id uint64) error {
	return r.db.Model(&domain.ScheduledAction{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"executed":    false,
			"executed_at": nil,
		}).Error
}

func (r *scheduleRepository) DeletePending(id uint64) error {
	return r.db.Where("id = ? AND executed = ?", id, false).
		Delete(&domain.ScheduledAction{}).Error
}
