package domain

import "time"

// ApprovalStatus is the moderation state of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// approvalTransitions is the explicit transition table. approved and
// rejected are terminal; nothing leaves them.
var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:  {ApprovalApproved, ApprovalRejected},
	ApprovalApproved: {},
	ApprovalRejected: {},
}

// CanTransition reports whether status may move to target.
func (s ApprovalStatus) CanTransition(target ApprovalStatus) bool {
	for _, t := range approvalTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionSources returns the statuses allowed to move to target. The
// repository builds its decision guard from this, so the transition table
// above is the single source of truth for what a decision may overwrite.
func TransitionSources(target ApprovalStatus) []ApprovalStatus {
	all := []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected}
	var sources []ApprovalStatus
	for _, from := range all {
		if from.CanTransition(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// ApprovalRequest is a moderation gate for a content item. At most one
// pending request may exist per (content_type, content_id); terminal
// requests never block resubmission.
type ApprovalRequest struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentType ContentType    `gorm:"column:content_type;type:varchar(20);index:idx_approval_content" json:"content_type"`
	ContentID   uint64         `gorm:"column:content_id;index:idx_approval_content" json:"content_id"`
	Status      ApprovalStatus `gorm:"column:status;type:varchar(20);index" json:"status"`
	ReviewerID  *string        `gorm:"column:reviewer_id;type:varchar(64)" json:"reviewer_id,omitempty"`
	Notes       *string        `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ApprovalRequest) TableName() string { return "approval_requests" }

// SubmitApprovalRequest request body for submitting content for review
type SubmitApprovalRequest struct {
	ContentType ContentType `json:"content_type" binding:"required"`
	ContentID   uint64      `json:"content_id" binding:"required"`
}

// ApprovalDecisionRequest request body for approve/reject. Notes are
// optional on approve and mandatory on reject.
type ApprovalDecisionRequest struct {
	Notes string `json:"notes"`
}

// ApprovalResponse is the API shape for the reviewer queue listing
type ApprovalResponse struct {
	ID           uint64         `json:"id"`
	ContentType  ContentType    `json:"content_type"`
	ContentID    uint64         `json:"content_id"`
	ContentTitle string         `json:"content_title,omitempty"`
	Status       ApprovalStatus `json:"status"`
	ReviewerID   string         `json:"reviewer_id,omitempty"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
}

// ToResponse converts an ApprovalRequest to its API shape
func (a *ApprovalRequest) ToResponse() ApprovalResponse {
	resp := ApprovalResponse{
		ID:          a.ID,
		ContentType: a.ContentType,
		ContentID:   a.ContentID,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:   a.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if a.ReviewerID != nil {
		resp.ReviewerID = *a.ReviewerID
	}
	if a.Notes != nil {
		resp.Notes = *a.Notes
	}
	return resp
}
