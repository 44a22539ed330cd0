package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/internal/middleware"
	"github.com/tutorhub/tutorhub-backend/internal/repository"
	"github.com/tutorhub/tutorhub-backend/internal/service"
	"github.com/tutorhub/tutorhub-backend/pkg/logger"
)

// ContentHandler handles tutorial and page CRUD. Every successful save is
// recorded as a version through the lifecycle coordinator.
type ContentHandler struct {
	tutorialRepo repository.TutorialRepository
	pageRepo     repository.PageRepository
	lifecycle    *service.LifecycleService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(
	tutorialRepo repository.TutorialRepository,
	pageRepo repository.PageRepository,
	lifecycle *service.LifecycleService,
) *ContentHandler {
	return &ContentHandler{
		tutorialRepo: tutorialRepo,
		pageRepo:     pageRepo,
		lifecycle:    lifecycle,
	}
}

// recordVersion appends a snapshot after a successful save (best-effort:
// the save itself already succeeded, so a version failure is logged and
// surfaced to metrics rather than failing the request)
func (h *ContentHandler) recordVersion(contentType domain.ContentType, contentID uint64, title, body, changeType, authorID string) {
	_, err := h.lifecycle.RecordVersion(contentType, contentID, title, body,
		map[string]interface{}{"change_type": changeType}, authorID)
	if err != nil {
		logger.Error("Failed to record %s version for %s/%d: %v", changeType, contentType, contentID, err)
	}
}

// --- Tutorials ---

// ListTutorials handles GET /api/v1/tutorials
func (h *ContentHandler) ListTutorials(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	publishedOnly := c.Query("all") == "" || middleware.GetUserID(c) == ""

	tutorials, total, err := h.tutorialRepo.FindAll(publishedOnly, page, limit)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list tutorials", err)
		return
	}
	common.SuccessWithMeta(c, tutorials, &common.Meta{Page: page, Limit: limit, Total: total})
}

// GetTutorial handles GET /api/v1/tutorials/:id
func (h *ContentHandler) GetTutorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	tutorial, err := h.tutorialRepo.FindByID(id)
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, tutorial)
}

// CreateTutorial handles POST /api/v1/tutorials
func (h *ContentHandler) CreateTutorial(c *gin.Context) {
	var req domain.CreateTutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tutorial := &domain.Tutorial{
		Title:    req.Title,
		Body:     req.Body,
		AuthorID: middleware.GetUserID(c),
	}
	if err := h.tutorialRepo.Create(tutorial); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to create tutorial", err)
		return
	}

	h.recordVersion(domain.ContentTypeTutorial, tutorial.ID, tutorial.Title, tutorial.Body, "create", tutorial.AuthorID)
	common.CreatedResponse(c, tutorial)
}

// UpdateTutorial handles PUT /api/v1/tutorials/:id
func (h *ContentHandler) UpdateTutorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdateTutorialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tutorial, err := h.tutorialRepo.FindByID(id)
	if err != nil {
		lifecycleError(c, err)
		return
	}

	tutorial.Title = req.Title
	tutorial.Body = req.Body
	if err := h.tutorialRepo.Update(tutorial); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to update tutorial", err)
		return
	}

	h.recordVersion(domain.ContentTypeTutorial, tutorial.ID, tutorial.Title, tutorial.Body, "update", middleware.GetUserID(c))
	common.SuccessResponse(c, tutorial)
}

// DeleteTutorial handles DELETE /api/v1/tutorials/:id. Version history for
// the deleted id is kept as audit trail.
func (h *ContentHandler) DeleteTutorial(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tutorialRepo.Delete(id); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": id})
}

// --- Pages ---

// ListPages handles GET /api/v1/pages
func (h *ContentHandler) ListPages(c *gin.Context) {
	publishedOnly := middleware.GetUserID(c) == ""

	pages, err := h.pageRepo.FindAll(publishedOnly)
	if err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to list pages", err)
		return
	}
	common.SuccessResponse(c, pages)
}

// GetPage handles GET /api/v1/pages/:slug
func (h *ContentHandler) GetPage(c *gin.Context) {
	page, err := h.pageRepo.FindBySlug(c.Param("slug"))
	if err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, page)
}

// CreatePage handles POST /api/v1/pages
func (h *ContentHandler) CreatePage(c *gin.Context) {
	var req domain.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	page := &domain.Page{
		Slug:     req.Slug,
		Title:    req.Title,
		Body:     req.Body,
		AuthorID: middleware.GetUserID(c),
	}
	if err := h.pageRepo.Create(page); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to create page", err)
		return
	}

	h.recordVersion(domain.ContentTypePage, page.ID, page.Title, page.Body, "create", page.AuthorID)
	common.CreatedResponse(c, page)
}

// UpdatePage handles PUT /api/v1/pages/:id
func (h *ContentHandler) UpdatePage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req domain.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	page, err := h.pageRepo.FindByID(id)
	if err != nil {
		lifecycleError(c, err)
		return
	}

	page.Title = req.Title
	page.Body = req.Body
	if err := h.pageRepo.Update(page); err != nil {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to update page", err)
		return
	}

	h.recordVersion(domain.ContentTypePage, page.ID, page.Title, page.Body, "update", middleware.GetUserID(c))
	common.SuccessResponse(c, page)
}

// DeletePage handles DELETE /api/v1/pages/:id
func (h *ContentHandler) DeletePage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.pageRepo.Delete(id); err != nil {
		lifecycleError(c, err)
		return
	}
	common.SuccessResponse(c, gin.H{"deleted": id})
}
