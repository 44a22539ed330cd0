package repository

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tutorhub/tutorhub-backend/internal/common"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MySQLRepoSuite exercises the SQL-level guarantees of the lifecycle
// repositories against a real MySQL server: the locked MAX+1 version
// allocation, the due-time boundary, the claim's conditional update and the
// single-statement pending insert. These cannot be verified through mocks.
//
// Set TEST_MYSQL_DSN to run, e.g.
//
//	TEST_MYSQL_DSN="tutorhub:pw@tcp(127.0.0.1:3306)/tutorhub_test?charset=utf8mb4&parseTime=True&loc=Local"
type MySQLRepoSuite struct {
	suite.Suite
	db *gorm.DB
}

func TestMySQLRepoSuite(t *testing.T) {
	if os.Getenv("TEST_MYSQL_DSN") == "" {
		t.Skip("TEST_MYSQL_DSN not set; skipping MySQL-backed repository tests")
	}
	suite.Run(t, new(MySQLRepoSuite))
}

func (s *MySQLRepoSuite) SetupSuite() {
	db, err := gorm.Open(mysql.Open(os.Getenv("TEST_MYSQL_DSN")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&domain.ContentVersion{},
		&domain.ScheduledAction{},
		&domain.ApprovalRequest{},
	))
	s.db = db
}

var contentIDSeq uint64

// uniqueContentID keeps each test's rows apart so the suite can run against
// a shared database without truncating tables.
func uniqueContentID() uint64 {
	return uint64(time.Now().UnixNano()) + atomic.AddUint64(&contentIDSeq, 1)
}

// --- Version store ---

func (s *MySQLRepoSuite) TestVersionNumbersStartAtOne() {
	repo := NewVersionRepository(s.db)
	contentID := uniqueContentID()

	first := &domain.ContentVersion{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   contentID,
		Title:       "first save",
		Body:        "body",
		AuthorID:    "tester",
	}
	s.Require().NoError(repo.Create(first))
	s.Equal(uint(1), first.Version)

	second := &domain.ContentVersion{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   contentID,
		Title:       "second save",
		Body:        "body",
		AuthorID:    "tester",
	}
	s.Require().NoError(repo.Create(second))
	s.Equal(uint(2), second.Version)
}

func (s *MySQLRepoSuite) TestVersionNumbersGaplessUnderConcurrentSaves() {
	repo := NewVersionRepository(s.db)
	contentID := uniqueContentID()

	first := &domain.ContentVersion{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   contentID,
		Title:       "initial",
		Body:        "body",
		AuthorID:    "tester",
	}
	s.Require().NoError(repo.Create(first))

	const writers = 8
	versions := make(chan uint, writers)
	errs := make(chan error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v := &domain.ContentVersion{
				ContentType: domain.ContentTypeTutorial,
				ContentID:   contentID,
				Title:       fmt.Sprintf("save %d", n),
				Body:        "body",
				AuthorID:    "tester",
			}
			if err := repo.Create(v); err != nil {
				errs <- err
				return
			}
			versions <- v.Version
		}(i)
	}
	wg.Wait()
	close(versions)
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	seen := make(map[uint]bool, writers+1)
	seen[first.Version] = true
	for v := range versions {
		s.False(seen[v], "duplicate version %d", v)
		seen[v] = true
	}
	for want := uint(1); want <= writers+1; want++ {
		s.True(seen[want], "missing version %d", want)
	}
}

// --- Scheduled action queue ---

func (s *MySQLRepoSuite) TestFindDueIncludesExactBoundary() {
	repo := NewScheduleRepository(s.db)
	now := time.Now().Truncate(time.Second)

	action := &domain.ScheduledAction{
		ContentType: domain.ContentTypeTutorial,
		ContentID:   uniqueContentID(),
		Action:      domain.ActionPublish,
		DueAt:       now,
	}
	s.Require().NoError(repo.Create(action))

	due, err := repo.FindDue(now)
	s.Require().NoError(err)
	s.True(containsAction(due, action.ID), "action due exactly at now must be returned")

	early, err := repo.FindDue(now.Add(-time.Second))
	s.Require().NoError(err)
	s.False(containsAction(early, action.ID), "action must not be due before its due time")
}

func (s *MySQLRepoSuite) TestClaimIsExclusive() {
	repo := NewScheduleRepository(s.db)
	now := time.Now().Truncate(time.Second)

	action := &domain.ScheduledAction{
		ContentType: domain.ContentTypePage,
		ContentID:   uniqueContentID(),
		Action:      domain.ActionUnpublish,
		DueAt:       now.Add(-time.Minute),
	}
	s.Require().NoError(repo.Create(action))

	claimed, err := repo.Claim(action.ID, now)
	s.Require().NoError(err)
	s.True(claimed, "first claim must win")

	again, err := repo.Claim(action.ID, now)
	s.Require().NoError(err)
	s.False(again, "second claim on an executed action must lose")

	s.Require().NoError(repo.Release(action.ID))

	reclaimed, err := repo.Claim(action.ID, now)
	s.Require().NoError(err)
	s.True(reclaimed, "a released action must be claimable again")
}

func containsAction(actions []domain.ScheduledAction, id uint64) bool {
	for i := range actions {
		if actions[i].ID == id {
			return true
		}
	}
	return false
}

// --- Approval workflow ---

func (s *MySQLRepoSuite) TestSinglePendingApprovalPerItem() {
	repo := NewApprovalRepository(s.db)
	contentID := uniqueContentID()

	req, err := repo.CreatePending(domain.ContentTypePage, contentID)
	s.Require().NoError(err)
	s.Equal(domain.ApprovalPending, req.Status)

	_, err = repo.CreatePending(domain.ContentTypePage, contentID)
	s.ErrorIs(err, common.ErrAlreadyPending)

	s.Require().NoError(repo.Decide(req.ID, domain.ApprovalApproved, "reviewer-1", ""))

	// Terminal requests never block resubmission
	again, err := repo.CreatePending(domain.ContentTypePage, contentID)
	s.Require().NoError(err)
	s.NotEqual(req.ID, again.ID)
}

func (s *MySQLRepoSuite) TestDecideRejectsTerminalRequests() {
	repo := NewApprovalRepository(s.db)
	contentID := uniqueContentID()

	req, err := repo.CreatePending(domain.ContentTypeTutorial, contentID)
	s.Require().NoError(err)
	s.Require().NoError(repo.Decide(req.ID, domain.ApprovalRejected, "reviewer-1", "needs work"))

	err = repo.Decide(req.ID, domain.ApprovalApproved, "reviewer-2", "")
	s.ErrorIs(err, common.ErrInvalidStateTransition)

	missing := repo.Decide(req.ID+1_000_000, domain.ApprovalApproved, "reviewer-2", "")
	s.ErrorIs(missing, common.ErrNotFound)
}
