package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/internal/middleware"
	"github.com/tutorhub/tutorhub-backend/internal/service"
)

// LifecycleHandler exposes the content lifecycle engine over the admin API:
// version history, scheduled actions and the approval workflow.
type LifecycleHandler struct {
	lifecycle *service.LifecycleService
}

// NewLifecycleHandler creates a new LifecycleHandler
func NewLifecycleHandler(lifecycle *service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{lifecycle: lifecycle}
}

func parseContentType(c *gin.Context) (domain.ContentType, bool) {
	contentType := domain.ContentType(c.Param("type"))
	if !contentType.Valid() {
		common.ErrorResponse(c, http.StatusBadRequest, "Unknown content type", nil)
		return "", false
	}
	return contentType, true
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

// lifecycleError maps engine errors to HTTP responses
func lifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound),
		errors.Is(err, common.ErrVersionNotFound),
		errors.Is(err, common.ErrTutorialNotFound),
		errors.Is(err, common.ErrPageNotFound):
		common.ErrorResponse(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, common.ErrAlreadyPending),
		errors.Is(err, common.ErrInvalidStateTransition):
		common.ErrorResponse(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, err.Error(), nil)
	default:
		common.ErrorResponse(c, http.StatusInternalServerError, "Internal error", err)
	}
}

// ListVersions handles GET /api/v1/content/:type/:id/versions
func (h *LifecycleHandler) ListVersions(c *gin.Context) {
	contentType, ok := parseContentType(c)
	if !ok {
		return
	}
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	versions, err := h.lifecycle.ListVersions(contentType, contentID)
	if err != nil {
		lifecycleError(c, err)
		return
	}

	responses := make([]domain.VersionResponse, len(versions))
	for i := range versions {
		responses[i] = versions[i].ToResponse()
	}
	common.SuccessResponse(c, responses)
}

// GetVersion handles GET /api/v1/content/:type/:id/versions/:version
func (h *LifecycleHandler) GetVersion(c *gin.Context) {
	contentType, ok := parseContentType(c)
	if !ok {
		return
	}
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	versionNum, err := strconv.ParseUint(c.Param("version"), 10, 32)
	if err != nil || versionNum == 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version number", err)
		return
	}

	version, err := h.lifecycle.GetVersion(contentType, contentID, uint(versionNum))
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, version)
}

// RestoreVersion handles POST /api/v1/content/:type/:id/versions/:version/restore
func (h *LifecycleHandler) RestoreVersion(c *gin.Context) {
	contentType, ok := parseContentType(c)
	if !ok {
		return
	}
	contentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	versionNum, err := strconv.ParseUint(c.Param("version"), 10, 32)
	if err != nil || versionNum == 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid version number", err)
		return
	}

	if err := h.lifecycle.RestoreVersion(contentType, contentID, uint(versionNum), middleware.GetUserID(c)); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"restored": versionNum})
}

// Schedule handles POST /api/v1/schedules
func (h *LifecycleHandler) Schedule(c *gin.Context) {
	var req domain.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	action, err := h.lifecycle.Schedule(&req)
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.CreatedResponse(c, action.ToResponse())
}

// ListScheduled handles GET /api/v1/schedules
func (h *LifecycleHandler) ListScheduled(c *gin.Context) {
	actions, err := h.lifecycle.ListScheduled()
	if err != nil {
		lifecycleError(c, err)
		return
	}

	// Join content titles per type for display
	idsByType := make(map[domain.ContentType][]uint64)
	for i := range actions {
		idsByType[actions[i].ContentType] = append(idsByType[actions[i].ContentType], actions[i].ContentID)
	}
	titles := make(map[domain.ContentType]map[uint64]string, len(idsByType))
	for contentType, ids := range idsByType {
		titles[contentType] = h.lifecycle.TitlesFor(contentType, ids)
	}

	responses := make([]domain.ScheduledActionResponse, len(actions))
	for i := range actions {
		resp := actions[i].ToResponse()
		resp.ContentTitle = titles[actions[i].ContentType][actions[i].ContentID]
		responses[i] = resp
	}
	common.SuccessResponse(c, responses)
}

// CancelScheduled handles DELETE /api/v1/schedules/:id
func (h *LifecycleHandler) CancelScheduled(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.CancelScheduled(id); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"cancelled": id})
}

// ExecuteScheduled handles POST /api/v1/schedules/execute, the manual
// admin trigger for the execute-pass. Partial failures come back in the
// result body, not as an HTTP error.
func (h *LifecycleHandler) ExecuteScheduled(c *gin.Context) {
	result, err := h.lifecycle.ExecuteScheduled(time.Now())
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, result)
}

// SubmitForApproval handles POST /api/v1/approvals
func (h *LifecycleHandler) SubmitForApproval(c *gin.Context) {
	var req domain.SubmitApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	approval, err := h.lifecycle.SubmitForApproval(req.ContentType, req.ContentID)
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.CreatedResponse(c, approval.ToResponse())
}

// PendingApprovals handles GET /api/v1/approvals/pending
func (h *LifecycleHandler) PendingApprovals(c *gin.Context) {
	approvals, err := h.lifecycle.PendingApprovals()
	if err != nil {
		lifecycleError(c, err)
		return
	}

	idsByType := make(map[domain.ContentType][]uint64)
	for i := range approvals {
		idsByType[approvals[i].ContentType] = append(idsByType[approvals[i].ContentType], approvals[i].ContentID)
	}
	titles := make(map[domain.ContentType]map[uint64]string, len(idsByType))
	for contentType, ids := range idsByType {
		titles[contentType] = h.lifecycle.TitlesFor(contentType, ids)
	}

	responses := make([]domain.ApprovalResponse, len(approvals))
	for i := range approvals {
		resp := approvals[i].ToResponse()
		resp.ContentTitle = titles[approvals[i].ContentType][approvals[i].ContentID]
		responses[i] = resp
	}
	common.SuccessResponse(c, responses)
}

// Approve handles POST /api/v1/approvals/:id/approve
func (h *LifecycleHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// Notes are optional on approve; an empty or absent body is fine
	var req domain.ApprovalDecisionRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.lifecycle.Approve(id, middleware.GetUserID(c), req.Notes); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"approved": id})
}

// Reject handles POST /api/v1/approvals/:id/reject
func (h *LifecycleHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req domain.ApprovalDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.lifecycle.Reject(id, middleware.GetUserID(c), req.Notes); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"rejected": id})
}
