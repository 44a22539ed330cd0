package domain

import "time"

// ActionKind is the state transition a scheduled action applies when due.
type ActionKind string

const (
	ActionPublish   ActionKind = "publish"
	ActionUnpublish ActionKind = "unpublish"
	ActionDelete    ActionKind = "delete"
)

// Valid reports whether the action kind is one of the known kinds.
func (a ActionKind) Valid() bool {
	return a == ActionPublish || a == ActionUnpublish || a == ActionDelete
}

// ScheduledAction is a one-shot deferred transition for a content item.
// due_at is immutable after creation; cancelling means deleting the
// unexecuted row. Multiple pending actions may coexist for the same item
// and each fires independently.
type ScheduledAction struct {
	ID          uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ContentType ContentType `gorm:"column:content_type;type:varchar(20);index:idx_sched_content" json:"content_type"`
	ContentID   uint64      `gorm:"column:content_id;index:idx_sched_content" json:"content_id"`
	Action      ActionKind  `gorm:"column:action;type:varchar(20)" json:"action"`
	DueAt       time.Time   `gorm:"column:due_at;index:idx_sched_due" json:"due_at"`
	Executed    bool        `gorm:"column:executed;default:false;index:idx_sched_due" json:"executed"`
	ExecutedAt  *time.Time  `gorm:"column:executed_at" json:"executed_at,omitempty"`
	CreatedAt   time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ScheduledAction) TableName() string { return "scheduled_actions" }

// ScheduleRequest request body for scheduling a deferred action
type ScheduleRequest struct {
	ContentType ContentType `json:"content_type" binding:"required"`
	ContentID   uint64      `json:"content_id" binding:"required"`
	Action      ActionKind  `json:"action" binding:"required"`
	DueAt       time.Time   `json:"due_at" binding:"required"`
}

// ScheduledActionResponse is the API shape for the admin schedule listing.
// Title is joined in by the handler; the engine itself only knows the
// (content_type, content_id) pair.
type ScheduledActionResponse struct {
	ID           uint64      `json:"id"`
	ContentType  ContentType `json:"content_type"`
	ContentID    uint64      `json:"content_id"`
	ContentTitle string      `json:"content_title,omitempty"`
	Action       ActionKind  `json:"action"`
	DueAt        string      `json:"due_at"`
	CreatedAt    string      `json:"created_at"`
}

// ToResponse converts a ScheduledAction to its API shape
func (s *ScheduledAction) ToResponse() ScheduledActionResponse {
	return ScheduledActionResponse{
		ID:          s.ID,
		ContentType: s.ContentType,
		ContentID:   s.ContentID,
		Action:      s.Action,
		DueAt:       s.DueAt.Format("2006-01-02 15:04:05"),
		CreatedAt:   s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// ExecutionError records a single action that failed to apply during an
// execute-pass. Failed actions stay unexecuted and are retried on the next
// pass.
type ExecutionError struct {
	ActionID    uint64      `json:"action_id"`
	ContentType ContentType `json:"content_type"`
	ContentID   uint64      `json:"content_id"`
	Action      ActionKind  `json:"action"`
	Message     string      `json:"message"`
}

// ExecuteResult is the outcome of one execute-pass. Per-action failures are
// collected here rather than aborting the pass.
type ExecuteResult struct {
	ExecutedCount int              `json:"executed_count"`
	Errors        []ExecutionError `json:"errors,omitempty"`
}
