package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/internal/repository"
	"gorm.io/gorm"
)

// MockVersionRepository is a mock implementation of VersionRepository
type MockVersionRepository struct {
	mock.Mock
}

func (m *MockVersionRepository) Create(version *domain.ContentVersion) error {
	args := m.Called(version)
	return args.Error(0)
}

func (m *MockVersionRepository) FindByContent(contentType domain.ContentType, contentID uint64) ([]domain.ContentVersion, error) {
	args := m.Called(contentType, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContentVersion), args.Error(1)
}

func (m *MockVersionRepository) FindByVersion(contentType domain.ContentType, contentID uint64, version uint) (*domain.ContentVersion, error) {
	args := m.Called(contentType, contentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ContentVersion), args.Error(1)
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(action *domain.ScheduledAction) error {
	args := m.Called(action)
	return args.Error(0)
}

func (m *MockScheduleRepository) FindByID(id uint64) (*domain.ScheduledAction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledAction), args.Error(1)
}

func (m *MockScheduleRepository) FindPending() ([]domain.ScheduledAction, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledAction), args.Error(1)
}

func (m *MockScheduleRepository) FindDue(now time.Time) ([]domain.ScheduledAction, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledAction), args.Error(1)
}

func (m *MockScheduleRepository) Claim(id uint64, now time.Time) (bool, error) {
	args := m.Called(id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockScheduleRepository) Release(id uint64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockScheduleRepository) DeletePending(id uint64) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockApprovalRepository is a mock implementation of ApprovalRepository
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) CreatePending(contentType domain.ContentType, contentID uint64) (*domain.ApprovalRequest, error) {
	args := m.Called(contentType, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) FindByID(id uint64) (*domain.ApprovalRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) FindPending() ([]domain.ApprovalRequest, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) Decide(id uint64, status domain.ApprovalStatus, reviewerID string, notes string) error {
	args := m.Called(id, status, reviewerID, notes)
	return args.Error(0)
}

// MockContentStore is a mock implementation of ContentStore
type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) GetEditable(id uint64) (*domain.EditableContent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EditableContent), args.Error(1)
}

func (m *MockContentStore) UpdateEditable(id uint64, title, body string) error {
	args := m.Called(id, title, body)
	return args.Error(0)
}

func (m *MockContentStore) SetPublished(id uint64, published bool) error {
	args := m.Called(id, published)
	return args.Error(0)
}

func (m *MockContentStore) Delete(id uint64) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockContentStore) FindTitlesByIDs(ids []uint64) (map[uint64]string, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint64]string), args.Error(1)
}

type lifecycleMocks struct {
	versions  *MockVersionRepository
	schedules *MockScheduleRepository
	approvals *MockApprovalRepository
	tutorials *MockContentStore
	pages     *MockContentStore
}

func newLifecycleService() (*LifecycleService, *lifecycleMocks) {
	m := &lifecycleMocks{
		versions:  new(MockVersionRepository),
		schedules: new(MockScheduleRepository),
		approvals: new(MockApprovalRepository),
		tutorials: new(MockContentStore),
		pages:     new(MockContentStore),
	}
	svc := NewLifecycleService(m.versions, m.schedules, m.approvals, repository.ContentStores{
		domain.ContentTypeTutorial: m.tutorials,
		domain.ContentTypePage:     m.pages,
	})
	return svc, m
}

// --- Version Store ---

func TestRecordVersionRejectsUnknownContentType(t *testing.T) {
	svc, _ := newLifecycleService()

	_, err := svc.RecordVersion("post", 1, "t", "b", nil, "author")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecordVersionRejectsZeroContentID(t *testing.T) {
	svc, _ := newLifecycleService()

	_, err := svc.RecordVersion(domain.ContentTypeTutorial, 0, "t", "b", nil, "author")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecordVersionReturnsAssignedNumber(t *testing.T) {
	svc, m := newLifecycleService()

	m.versions.On("Create", mock.AnythingOfType("*domain.ContentVersion")).
		Run(func(args mock.Arguments) {
			args.Get(0).(*domain.ContentVersion).Version = 3
		}).
		Return(nil)

	v, err := svc.RecordVersion(domain.ContentTypeTutorial, 7, "Title", "Body", nil, "alice")
	assert.NoError(t, err)
	assert.Equal(t, uint(3), v.Version)
	assert.Equal(t, domain.ContentTypeTutorial, v.ContentType)
	m.versions.AssertExpectations(t)
}

func TestGetVersionNotFound(t *testing.T) {
	svc, m := newLifecycleService()

	m.versions.On("FindByVersion", domain.ContentTypePage, uint64(1), uint(9)).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.GetVersion(domain.ContentTypePage, 1, 9)
	assert.ErrorIs(t, err, common.ErrVersionNotFound)
}

func TestRestoreVersionSnapshotsCurrentStateFirst(t *testing.T) {
	svc, m := newLifecycleService()

	target := &domain.ContentVersion{
		ContentType: domain.ContentTypePage,
		ContentID:   5,
		Version:     1,
		Title:       "Old title",
		Body:        "A",
	}
	m.versions.On("FindByVersion", domain.ContentTypePage, uint64(5), uint(1)).Return(target, nil)
	m.pages.On("GetEditable", uint64(5)).Return(&domain.EditableContent{Title: "Current title", Body: "C"}, nil)

	var snapshot *domain.ContentVersion
	m.versions.On("Create", mock.AnythingOfType("*domain.ContentVersion")).
		Run(func(args mock.Arguments) {
			snapshot = args.Get(0).(*domain.ContentVersion)
			snapshot.Version = 4
		}).
		Return(nil)
	m.pages.On("UpdateEditable", uint64(5), "Old title", "A").Return(nil)

	err := svc.RestoreVersion(domain.ContentTypePage, 5, 1, "bob")
	assert.NoError(t, err)

	// Pre-restore state was snapshotted before the overwrite
	assert.NotNil(t, snapshot)
	assert.Equal(t, "Current title", snapshot.Title)
	assert.Equal(t, "C", snapshot.Body)
	assert.Equal(t, "pre_restore", snapshot.Metadata["snapshot_reason"])
	m.pages.AssertExpectations(t)
	m.versions.AssertExpectations(t)
}

func TestRestoreVersionTargetMissing(t *testing.T) {
	svc, m := newLifecycleService()

	m.versions.On("FindByVersion", domain.ContentTypeTutorial, uint64(3), uint(2)).
		Return(nil, gorm.ErrRecordNotFound)

	err := svc.RestoreVersion(domain.ContentTypeTutorial, 3, 2, "bob")
	assert.ErrorIs(t, err, common.ErrVersionNotFound)
	m.tutorials.AssertNotCalled(t, "UpdateEditable", mock.Anything, mock.Anything, mock.Anything)
}

// --- Scheduled Action Queue ---

func TestScheduleRejectsUnknownAction(t *testing.T) {
	svc, _ := newLifecycleService()

	_, err := svc.Schedule(&domain.ScheduleRequest{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   1,
		Action:      "archive",
		DueAt:       time.Now(),
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestScheduleRejectsZeroDueTime(t *testing.T) {
	svc, _ := newLifecycleService()

	_, err := svc.Schedule(&domain.ScheduleRequest{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   1,
		Action:      domain.ActionPublish,
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestScheduleAcceptsPastDueTime(t *testing.T) {
	svc, m := newLifecycleService()

	m.schedules.On("Create", mock.AnythingOfType("*domain.ScheduledAction")).Return(nil)

	action, err := svc.Schedule(&domain.ScheduleRequest{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   1,
		Action:      domain.ActionPublish,
		DueAt:       time.Now().Add(-time.Hour),
	})
	assert.NoError(t, err)
	assert.NotNil(t, action)
	m.schedules.AssertExpectations(t)
}

func TestExecuteScheduledAppliesDuePublish(t *testing.T) {
	svc, m := newLifecycleService()
	now := time.Now()

	due := []domain.ScheduledAction{
		{ID: 1, ContentType: domain.ContentTypeTutorial, ContentID: 10, Action: domain.ActionPublish, DueAt: now.Add(-time.Second)},
	}
	m.schedules.On("FindDue", now).Return(due, nil)
	m.schedules.On("Claim", uint64(1), now).Return(true, nil)
	m.tutorials.On("SetPublished", uint64(10), true).Return(nil)

	result, err := svc.ExecuteScheduled(now)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.ExecutedCount)
	assert.Empty(t, result.Errors)
	m.tutorials.AssertExpectations(t)
}

func TestExecuteScheduledSecondPassIsIdempotent(t *testing.T) {
	svc, m := newLifecycleService()
	now := time.Now()

	// All actions already executed: the due query filters them out
	m.schedules.On("FindDue", now).Return([]domain.ScheduledAction{}, nil)

	result, err := svc.ExecuteScheduled(now)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.ExecutedCount)
}

func TestExecuteScheduledSkipsLostClaims(t *testing.T) {
	svc, m := newLifecycleService()
	now := time.Now()

	due := []domain.ScheduledAction{
		{ID: 1, ContentType: domain.ContentTypeTutorial, ContentID: 10, Action: domain.ActionPublish, DueAt: now},
	}
	m.schedules.On("FindDue", now).Return(due, nil)
	// Another execute-pass claimed the action first
	m.schedules.On("Claim", uint64(1), now).Return(false, nil)

	result, err := svc.ExecuteScheduled(now)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.ExecutedCount)
	assert.Empty(t, result.Errors)
	m.tutorials.AssertNotCalled(t, "SetPublished", mock.Anything, mock.Anything)
}

func TestExecuteScheduledIsolatesPerActionFailures(t *testing.T) {
	svc, m := newLifecycleService()
	now := time.Now()

	due := []domain.ScheduledAction{
		{ID: 1, ContentType: domain.ContentTypeTutorial, ContentID: 10, Action: domain.ActionDelete, DueAt: now},
		{ID: 2, ContentType: domain.ContentTypePage, ContentID: 20, Action: domain.ActionPublish, DueAt: now},
	}
	m.schedules.On("FindDue", now).Return(due, nil)
	m.schedules.On("Claim", uint64(1), now).Return(true, nil)
	m.schedules.On("Claim", uint64(2), now).Return(true, nil)

	// Content record already gone: the delete fails, the claim is released
	m.tutorials.On("Delete", uint64(10)).Return(common.ErrTutorialNotFound)
	m.schedules.On("Release", uint64(1)).Return(nil)

	m.pages.On("SetPublished", uint64(20), true).Return(nil)

	result, err := svc.ExecuteScheduled(now)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.ExecutedCount)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, uint64(1), result.Errors[0].ActionID)
	assert.Equal(t, domain.ActionDelete, result.Errors[0].Action)
	m.schedules.AssertCalled(t, "Release", uint64(1))
}

func TestExecuteScheduledFatalOnStoreFailure(t *testing.T) {
	svc, m := newLifecycleService()
	now := time.Now()

	m.schedules.On("FindDue", now).Return(nil, errors.New("connection refused"))

	_, err := svc.ExecuteScheduled(now)
	assert.Error(t, err)
}

func TestCancelScheduled(t *testing.T) {
	svc, m := newLifecycleService()

	m.schedules.On("DeletePending", uint64(42)).Return(nil)

	err := svc.CancelScheduled(42)
	assert.NoError(t, err)
	m.schedules.AssertExpectations(t)
}

// --- Approval Workflow ---

func TestSubmitForApprovalDuplicatePending(t *testing.T) {
	svc, m := newLifecycleService()

	m.approvals.On("CreatePending", domain.ContentTypeTutorial, uint64(1)).
		Return(nil, common.ErrAlreadyPending)

	_, err := svc.SubmitForApproval(domain.ContentTypeTutorial, 1)
	assert.ErrorIs(t, err, common.ErrAlreadyPending)
}

func TestSubmitForApprovalRejectsUnknownContentType(t *testing.T) {
	svc, m := newLifecycleService()

	_, err := svc.SubmitForApproval("post", 1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	m.approvals.AssertNotCalled(t, "CreatePending", mock.Anything, mock.Anything)
}

func TestApprove(t *testing.T) {
	svc, m := newLifecycleService()

	m.approvals.On("Decide", uint64(9), domain.ApprovalApproved, "reviewer-1", "looks good").Return(nil)

	err := svc.Approve(9, "reviewer-1", "looks good")
	assert.NoError(t, err)
	m.approvals.AssertExpectations(t)
}

func TestApproveTerminalRequest(t *testing.T) {
	svc, m := newLifecycleService()

	m.approvals.On("Decide", uint64(9), domain.ApprovalApproved, "reviewer-1", "").
		Return(common.ErrInvalidStateTransition)

	err := svc.Approve(9, "reviewer-1", "")
	assert.ErrorIs(t, err, common.ErrInvalidStateTransition)
}

func TestRejectRequiresNotes(t *testing.T) {
	svc, m := newLifecycleService()

	err := svc.Reject(9, "reviewer-1", "   ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	m.approvals.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReject(t *testing.T) {
	svc, m := newLifecycleService()

	m.approvals.On("Decide", uint64(9), domain.ApprovalRejected, "reviewer-1", "needs sources").Return(nil)

	err := svc.Reject(9, "reviewer-1", "needs sources")
	assert.NoError(t, err)
	m.approvals.AssertExpectations(t)
}

func TestPendingApprovalsOrderPassedThrough(t *testing.T) {
	svc, m := newLifecycleService()

	queue := []domain.ApprovalRequest{
		{ID: 1, ContentType: domain.ContentTypeTutorial, ContentID: 1, Status: domain.ApprovalPending},
		{ID: 2, ContentType: domain.ContentTypePage, ContentID: 2, Status: domain.ApprovalPending},
	}
	m.approvals.On("FindPending").Return(queue, nil)

	got, err := svc.PendingApprovals()
	assert.NoError(t, err)
	assert.Equal(t, queue, got)
}

func TestTitlesForUnknownTypeReturnsEmptyMap(t *testing.T) {
	svc, _ := newLifecycleService()

	titles := svc.TitlesFor("post", []uint64{1, 2})
	assert.Empty(t, titles)
}
