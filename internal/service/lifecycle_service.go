package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/internal/repository"
	pkgcache "github.com/tutorhub/tutorhub-backend/pkg/cache"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	cacheKeyPendingApprovals = "lifecycle:approvals:pending"
	cacheKeyPendingSchedule  = "lifecycle:schedule:pending"
	listingCacheTTL          = time.Minute
)

var (
	scheduledExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifecycle_scheduled_actions_executed_total",
		Help: "Total number of scheduled actions successfully executed",
	})
	scheduledFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lifecycle_scheduled_actions_failed_total",
		Help: "Total number of scheduled actions that failed to apply",
	})
)

// LifecycleService coordinates version history, scheduled actions and the
// approval workflow for content items. It is the single entry point the
// handlers and the scheduler call; all store access goes through the
// injected repositories.
type LifecycleService struct {
	versionRepo  repository.VersionRepository
	scheduleRepo repository.ScheduleRepository
	approvalRepo repository.ApprovalRepository
	stores       repository.ContentStores
	cache        pkgcache.Service // optional, nil when Redis is unavailable
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	versionRepo repository.VersionRepository,
	scheduleRepo repository.ScheduleRepository,
	approvalRepo repository.ApprovalRepository,
	stores repository.ContentStores,
) *LifecycleService {
	return &LifecycleService{
		versionRepo:  versionRepo,
		scheduleRepo: scheduleRepo,
		approvalRepo: approvalRepo,
		stores:       stores,
	}
}

// SetCache sets the redis cache service (optional dependency)
func (s *LifecycleService) SetCache(cache pkgcache.Service) {
	s.cache = cache
}

func (s *LifecycleService) storeFor(contentType domain.ContentType) (repository.ContentStore, error) {
	store, ok := s.stores[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrInvalidInput, contentType)
	}
	return store, nil
}

func (s *LifecycleService) invalidate(key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(context.Background(), key); err != nil {
		log.Printf("[WARN] cache invalidation failed (key=%s): %v", key, err)
	}
}

// --- Version Store ---

// RecordVersion appends a new immutable snapshot for a content item and
// returns it with the assigned version number. Called on every successful
// content save.
func (s *LifecycleService) RecordVersion(contentType domain.ContentType, contentID uint64, title, body string, metadata map[string]interface{}, authorID string) (*domain.ContentVersion, error) {
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrInvalidInput, contentType)
	}
	if contentID == 0 {
		return nil, fmt.Errorf("%w: content id is required", common.ErrInvalidInput)
	}

	version := &domain.ContentVersion{
		ContentType: contentType,
		ContentID:   contentID,
		Title:       title,
		Body:        body,
		Metadata:    datatypes.JSONMap(metadata),
		AuthorID:    authorID,
	}
	if err := s.versionRepo.Create(version); err != nil {
		return nil, fmt.Errorf("failed to record version: %w", err)
	}
	return version, nil
}

// ListVersions returns all snapshots for a content item, newest first
func (s *LifecycleService) ListVersions(contentType domain.ContentType, contentID uint64) ([]domain.ContentVersion, error) {
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrInvalidInput, contentType)
	}
	return s.versionRepo.FindByContent(contentType, contentID)
}

// GetVersion returns one specific snapshot
func (s *LifecycleService) GetVersion(contentType domain.ContentType, contentID uint64, version uint) (*domain.ContentVersion, error) {
	v, err := s.versionRepo.FindByVersion(contentType, contentID, version)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrVersionNotFound
		}
		return nil, err
	}
	return v, nil
}

// RestoreVersion copies title and body from a stored snapshot back onto the
// content record. The current state is snapshotted first, so a restore is
// itself undoable via another restore. Only title and body are written;
// publish state and metadata stay untouched.
func (s *LifecycleService) RestoreVersion(contentType domain.ContentType, contentID uint64, version uint, authorID string) error {
	store, err := s.storeFor(contentType)
	if err != nil {
		return err
	}

	target, err := s.GetVersion(contentType, contentID, version)
	if err != nil {
		return err
	}

	current, err := store.GetEditable(contentID)
	if err != nil {
		return err
	}

	snapshot := &domain.ContentVersion{
		ContentType: contentType,
		ContentID:   contentID,
		Title:       current.Title,
		Body:        current.Body,
		Metadata:    datatypes.JSONMap{"snapshot_reason": "pre_restore", "restore_target": version},
		AuthorID:    authorID,
	}
	if err := s.versionRepo.Create(snapshot); err != nil {
		return fmt.Errorf("failed to snapshot current state before restore: %w", err)
	}

	if err := store.UpdateEditable(contentID, target.Title, target.Body); err != nil {
		return err
	}

	log.Printf("[INFO] restored %s/%d to version %d (pre-restore state saved as version %d)",
		contentType, contentID, version, snapshot.Version)
	return nil
}

// --- Scheduled Action Queue ---

// Schedule enqueues a deferred publish/unpublish/delete. A due time in the
// past is accepted and simply becomes due on the next execute-pass. No
// dedup against existing pending actions for the same item: each schedule
// fires independently.
func (s *LifecycleService) Schedule(req *domain.ScheduleRequest) (*domain.ScheduledAction, error) {
	if !req.ContentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrInvalidInput, req.ContentType)
	}
	if !req.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", common.ErrInvalidInput, req.Action)
	}
	if req.DueAt.IsZero() {
		return nil, fmt.Errorf("%w: due time is required", common.ErrInvalidInput)
	}

	action := &domain.ScheduledAction{
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Action:      req.Action,
		DueAt:       req.DueAt,
	}
	if err := s.scheduleRepo.Create(action); err != nil {
		return nil, fmt.Errorf("failed to schedule action: %w", err)
	}

	s.invalidate(cacheKeyPendingSchedule)
	return action, nil
}

// ListScheduled returns all unexecuted actions, due time ascending
func (s *LifecycleService) ListScheduled() ([]domain.ScheduledAction, error) {
	ctx := context.Background()
	if s.cache != nil {
		var cached []domain.ScheduledAction
		if err := s.cache.Get(ctx, cacheKeyPendingSchedule, &cached); err == nil {
			return cached, nil
		}
	}

	actions, err := s.scheduleRepo.FindPending()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPendingSchedule, actions, listingCacheTTL); err != nil {
			log.Printf("[WARN] failed to cache scheduled listing: %v", err)
		}
	}
	return actions, nil
}

// CancelScheduled deletes a not-yet-executed action. Cancelling an action
// that already fired or never existed is a no-op, not an error.
func (s *LifecycleService) CancelScheduled(id uint64) error {
	if err := s.scheduleRepo.DeletePending(id); err != nil {
		return err
	}
	s.invalidate(cacheKeyPendingSchedule)
	return nil
}

// ExecuteScheduled applies all actions due at now. Each action is claimed
// with an atomic conditional update before being applied, so concurrent
// passes (two process replicas firing a timer) never double-apply one
// action. Per-action failures release the claim, land in the result's
// error list and do not abort the pass; only a store-level failure on the
// initial due query is returned as an error.
func (s *LifecycleService) ExecuteScheduled(now time.Time) (*domain.ExecuteResult, error) {
	due, err := s.scheduleRepo.FindDue(now)
	if err != nil {
		return nil, fmt.Errorf("failed to load due actions: %w", err)
	}

	result := &domain.ExecuteResult{}
	for i := range due {
		action := &due[i]

		claimed, err := s.scheduleRepo.Claim(action.ID, now)
		if err != nil {
			result.Errors = append(result.Errors, executionError(action, err))
			continue
		}
		if !claimed {
			// Another pass got there first
			continue
		}

		if err := s.applyAction(action); err != nil {
			log.Printf("[WARN] scheduled %s failed for %s/%d: %v (will retry next pass)",
				action.Action, action.ContentType, action.ContentID, err)
			scheduledFailedTotal.Inc()
			result.Errors = append(result.Errors, executionError(action, err))

			if relErr := s.scheduleRepo.Release(action.ID); relErr != nil {
				log.Printf("[WARN] failed to release claim on action %d: %v", action.ID, relErr)
			}
			continue
		}

		scheduledExecutedTotal.Inc()
		result.ExecutedCount++
	}

	if result.ExecutedCount > 0 {
		s.invalidate(cacheKeyPendingSchedule)
		log.Printf("[INFO] execute-pass applied %d scheduled action(s), %d failure(s)",
			result.ExecutedCount, len(result.Errors))
	}
	return result, nil
}

func (s *LifecycleService) applyAction(action *domain.ScheduledAction) error {
	store, err := s.storeFor(action.ContentType)
	if err != nil {
		return err
	}

	switch action.Action {
	case domain.ActionPublish:
		return store.SetPublished(action.ContentID, true)
	case domain.ActionUnpublish:
		return store.SetPublished(action.ContentID, false)
	case domain.ActionDelete:
		return store.Delete(action.ContentID)
	default:
		return fmt.Errorf("%w: unknown action %q", common.ErrInvalidInput, action.Action)
	}
}

func executionError(action *domain.ScheduledAction, err error) domain.ExecutionError {
	return domain.ExecutionError{
		ActionID:    action.ID,
		ContentType: action.ContentType,
		ContentID:   action.ContentID,
		Action:      action.Action,
		Message:     err.Error(),
	}
}

// --- Approval Workflow ---

// SubmitForApproval creates a pending request for a content item. Fails
// with common.ErrAlreadyPending while a live pending request exists;
// previously approved or rejected items can be resubmitted freely.
func (s *LifecycleService) SubmitForApproval(contentType domain.ContentType, contentID uint64) (*domain.ApprovalRequest, error) {
	if !contentType.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", common.ErrInvalidInput, contentType)
	}
	if contentID == 0 {
		return nil, fmt.Errorf("%w: content id is required", common.ErrInvalidInput)
	}

	req, err := s.approvalRepo.CreatePending(contentType, contentID)
	if err != nil {
		return nil, err
	}

	s.invalidate(cacheKeyPendingApprovals)
	return req, nil
}

// Approve transitions a pending request to approved. Requests already in a
// terminal state fail with common.ErrInvalidStateTransition.
func (s *LifecycleService) Approve(approvalID uint64, reviewerID, notes string) error {
	if err := s.approvalRepo.Decide(approvalID, domain.ApprovalApproved, reviewerID, notes); err != nil {
		return err
	}
	s.invalidate(cacheKeyPendingApprovals)
	log.Printf("[INFO] approval %d approved by %s", approvalID, reviewerID)
	return nil
}

// Reject transitions a pending request to rejected. Notes are mandatory: a
// rejection without a stated reason gives the editor nothing to act on.
func (s *LifecycleService) Reject(approvalID uint64, reviewerID, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return fmt.Errorf("%w: rejection notes are required", common.ErrInvalidInput)
	}

	if err := s.approvalRepo.Decide(approvalID, domain.ApprovalRejected, reviewerID, notes); err != nil {
		return err
	}
	s.invalidate(cacheKeyPendingApprovals)
	log.Printf("[INFO] approval %d rejected by %s", approvalID, reviewerID)
	return nil
}

// PendingApprovals returns the reviewer queue, oldest first
func (s *LifecycleService) PendingApprovals() ([]domain.ApprovalRequest, error) {
	ctx := context.Background()
	if s.cache != nil {
		var cached []domain.ApprovalRequest
		if err := s.cache.Get(ctx, cacheKeyPendingApprovals, &cached); err == nil {
			return cached, nil
		}
	}

	reqs, err := s.approvalRepo.FindPending()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPendingApprovals, reqs, listingCacheTTL); err != nil {
			log.Printf("[WARN] failed to cache pending approvals: %v", err)
		}
	}
	return reqs, nil
}

// TitlesFor batch-resolves content titles for listing joins. Missing
// records (deleted out-of-band) simply have no entry; lifecycle rows for
// orphaned ids remain valid history.
func (s *LifecycleService) TitlesFor(contentType domain.ContentType, ids []uint64) map[uint64]string {
	store, err := s.storeFor(contentType)
	if err != nil {
		return map[uint64]string{}
	}
	titles, err := store.FindTitlesByIDs(ids)
	if err != nil {
		log.Printf("[WARN] title lookup failed for %s: %v", contentType, err)
		return map[uint64]string{}
	}
	return titles
}
