package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

type classIssueHarness struct {
	*fixture
	svc       ClassIssueService
	noise     models.ClassIssueType
	publisher *recordingPublisher
}

func newClassIssueHarness(t *testing.T) *classIssueHarness {
	t.Helper()
	f := newFixture(t)
	h := &classIssueHarness{fixture: f, publisher: &recordingPublisher{}}

	h.noise = models.ClassIssueType{Name: "Noise", IsActive: true}
	require.NoError(t, f.db.Create(&h.noise).Error)

	h.svc = NewClassIssueService(ClassIssueDependencies{
		Transactor:  repository.NewTransactor(f.db),
		Issues:      repository.NewClassIssueRepository(f.db),
		Academics:   repository.NewAcademicRepository(f.db),
		Users:       repository.NewUserRepository(f.db),
		Assignments: repository.NewComplaintAssignmentRepository(f.db),
		Ledger:      f.ledger(h.publisher),
		Validator:   validator.New(),
		ReviewRole:  models.RoleFaculty,
		Bounds:      ListBounds{Default: 50, Max: 200},
	}, testLogger())
	return h
}

func TestClassIssueSubmitRequiresLeader(t *testing.T) {
	h := newClassIssueHarness(t)
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, h.actor(h.student), dto.ClassIssueSubmitRequest{IssueTypeID: h.noise.ID, Description: "Loud"})
	require.ErrorIs(t, err, ErrNotClassLeader)

	_, err = h.svc.Submit(ctx, h.actor(h.teacher), dto.ClassIssueSubmitRequest{IssueTypeID: h.noise.ID, Description: "Loud"})
	require.ErrorIs(t, err, ErrNotClassLeader)

	otherClass := h.classB.ID
	_, err = h.svc.Submit(ctx, h.actor(h.leader), dto.ClassIssueSubmitRequest{IssueTypeID: h.noise.ID, Description: "Loud", ClassID: &otherClass})
	require.ErrorIs(t, err, ErrNotClassLeader)

	_, err = h.svc.Submit(ctx, h.actor(h.leader), dto.ClassIssueSubmitRequest{IssueTypeID: 999, Description: "Loud"})
	require.ErrorIs(t, err, ErrIssueTypeNotFound)
}

func TestClassIssueSubmitDefaultsToLedClass(t *testing.T) {
	h := newClassIssueHarness(t)

	resp, err := h.svc.Submit(context.Background(), h.actor(h.leader), dto.ClassIssueSubmitRequest{
		IssueTypeID: h.noise.ID,
		Description: "Construction noise during lectures",
	})
	require.NoError(t, err)
	require.Equal(t, h.classA.ID, resp.ClassroomID)
	require.Equal(t, models.StatusPending, resp.Status)
	require.Equal(t, "Noise", resp.IssueTypeName)

	classes, err := h.svc.MyClasses(context.Background(), h.actor(h.leader))
	require.NoError(t, err)
	require.Len(t, classes, 1)
	require.Equal(t, h.classA.ID, classes[0].ID)
}

func TestClassIssueVisibilityScoping(t *testing.T) {
	h := newClassIssueHarness(t)
	ctx := context.Background()

	issue, err := h.svc.Submit(ctx, h.actor(h.leader), dto.ClassIssueSubmitRequest{IssueTypeID: h.noise.ID, Description: "Projector broken"})
	require.NoError(t, err)

	for _, viewer := range []models.User{h.student, h.leader, h.teacher, h.admin} {
		rows, err := h.svc.List(ctx, h.actor(viewer), dto.ListQuery{})
		require.NoError(t, err)
		require.Len(t, rows, 1, viewer.Username)
	}

	rows, err := h.svc.List(ctx, h.actor(h.outsider), dto.ListQuery{})
	require.NoError(t, err)
	require.Empty(t, rows)

	_, err = h.svc.Track(ctx, h.actor(h.outsider), issue.ID)
	require.ErrorIs(t, err, ErrOutsideScope)

	tracking, err := h.svc.Track(ctx, h.actor(h.student), issue.ID)
	require.NoError(t, err)
	require.Len(t, tracking.History, 1)
	require.Equal(t, classIssueOpenNote, tracking.History[0].Note)

	_, err = h.svc.Track(ctx, h.actor(h.admin), 12345)
	require.ErrorIs(t, err, ErrComplaintNotFound)
}

func TestClassIssueUpdateStatusRespectsScope(t *testing.T) {
	h := newClassIssueHarness(t)
	ctx := context.Background()

	issue, err := h.svc.Submit(ctx, h.actor(h.leader), dto.ClassIssueSubmitRequest{IssueTypeID: h.noise.ID, Description: "AC leaking"})
	require.NoError(t, err)

	_, err = h.svc.UpdateStatus(ctx, h.actor(h.leader), dto.StatusUpdateRequest{ID: issue.ID, Status: "Resolved"})
	require.ErrorIs(t, err, ErrNotReviewer)

	_, err = h.svc.UpdateStatus(ctx, h.actor(h.faculty), dto.StatusUpdateRequest{ID: issue.ID, Status: "Resolved"})
	require.ErrorIs(t, err, ErrOutsideScope)

	_, err = h.svc.UpdateStatus(ctx, h.actor(h.teacher), dto.StatusUpdateRequest{ID: issue.ID, Status: ""})
	require.Error(t, err)

	entry, err := h.svc.UpdateStatus(ctx, h.actor(h.teacher), dto.StatusUpdateRequest{ID: issue.ID, Status: "In Review", Note: "Maintenance informed"})
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, *entry.OldStatus)

	entry, err = h.svc.UpdateStatus(ctx, h.actor(h.admin), dto.StatusUpdateRequest{ID: issue.ID, Status: "Resolved"})
	require.NoError(t, err)
	require.Equal(t, "In Review", *entry.OldStatus)

	rows, err := h.svc.List(ctx, h.actor(h.leader), dto.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, "Resolved", rows[0].Status)

	assignment, err := repository.NewComplaintAssignmentRepository(h.db).Find(ctx, models.ComplaintClassIssue, issue.ID)
	require.NoError(t, err)
	require.Equal(t, "Resolved", assignment.Status)
	require.Len(t, h.publisher.events, 2)
}
