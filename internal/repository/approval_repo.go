package repository

import (
	"errors"
	"time"

	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/gorm"
)

// ApprovalRepository approval request data access
type ApprovalRepository interface {
	// CreatePending inserts a new pending request unless one already exists
	// for the content item. Returns common.ErrAlreadyPending on conflict.
	CreatePending(contentType domain.ContentType, contentID uint64) (*domain.ApprovalRequest, error)
	// FindByID returns a single approval request
	FindByID(id uint64) (*domain.ApprovalRequest, error)
	// FindPending returns all pending requests, oldest first
	FindPending() ([]domain.ApprovalRequest, error)
	// Decide transitions a pending request to a terminal status, recording
	// the reviewer and notes. Returns common.ErrInvalidStateTransition when
	// the request exists but is no longer pending.
	Decide(id uint64, status domain.ApprovalStatus, reviewerID string, notes string) error
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new ApprovalRepository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

// CreatePending uses a single INSERT ... SELECT ... WHERE NOT EXISTS so the
// "no live pending request" check and the insert are one statement. A plain
// read-then-insert would let two concurrent submissions both pass the check.
func (r *approvalRepository) CreatePending(contentType domain.ContentType, contentID uint64) (*domain.ApprovalRequest, error) {
	now := time.Now()
	result := r.db.Exec(`
		INSERT INTO approval_requests (content_type, content_id, status, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?
		FROM DUAL
		WHERE NOT EXISTS (
			SELECT 1 FROM approval_requests
			WHERE content_type = ? AND content_id = ? AND status = ?
		)`,
		contentType, contentID, domain.ApprovalPending, now, now,
		contentType, contentID, domain.ApprovalPending,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, common.ErrAlreadyPending
	}

	var req domain.ApprovalRequest
	err := r.db.Where("content_type = ? AND content_id = ? AND status = ?",
		contentType, contentID, domain.ApprovalPending).
		Order("id DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) FindByID(id uint64) (*domain.ApprovalRequest, error) {
	var req domain.ApprovalRequest
	err := r.db.First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *approvalRepository) FindPending() ([]domain.ApprovalRequest, error) {
	var reqs []domain.ApprovalRequest
	err := r.db.Where("status = ?", domain.ApprovalPending).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

// Decide guards the transition with a status filter derived from the
// domain transition table, so the UPDATE itself can only move a request
// along an allowed edge. Zero affected rows means either the request is
// gone or it already reached a terminal state; the follow-up read
// distinguishes the two.
func (r *approvalRepository) Decide(id uint64, status domain.ApprovalStatus, reviewerID string, notes string) error {
	sources := domain.TransitionSources(status)
	if len(sources) == 0 {
		return common.ErrInvalidStateTransition
	}

	updates := map[string]interface{}{
		"status":      status,
		"reviewer_id": reviewerID,
		"updated_at":  time.Now(),
	}
	if notes != "" {
		updates["notes"] = notes
	}

	result := r.db.Model(&domain.ApprovalRequest{}).
		Where("id = ? AND status IN ?", id, sources).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&domain.ApprovalRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.ErrNotFound
		}
		return common.ErrInvalidStateTransition
	}
	return nil
}
