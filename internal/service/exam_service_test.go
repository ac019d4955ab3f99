package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

type examHarness struct {
	*fixture
	svc      ExamService
	subjects []models.SubjectClass
	foreign  models.SubjectClass
}

func newExamHarness(t *testing.T, windowStatus string) *examHarness {
	t.Helper()
	f := newFixture(t)
	h := &examHarness{fixture: f}

	for i, name := range []string{"Mathematics", "Physics", "Chemistry", "Biology"} {
		subject := models.Subject{Code: name[:3], Name: name}
		require.NoError(t, f.db.Create(&subject).Error)
		sc := models.SubjectClass{SubjectID: subject.ID, ClassroomID: f.classA.ID}
		require.NoError(t, f.db.Create(&sc).Error)
		h.subjects = append(h.subjects, sc)
		if i == 0 {
			h.foreign = models.SubjectClass{SubjectID: subject.ID, ClassroomID: f.classB.ID}
			require.NoError(t, f.db.Create(&h.foreign).Error)
		}
	}

	if windowStatus != "" {
		window := models.AppealWindow{AppealType: models.DefaultAppealType, Status: windowStatus}
		require.NoError(t, repository.NewExamAppealRepository(f.db).SaveWindow(context.Background(), &window))
	}

	h.svc = NewExamService(ExamDependencies{
		Transactor: repository.NewTransactor(f.db),
		Appeals:    repository.NewExamAppealRepository(f.db),
		Academics:  repository.NewAcademicRepository(f.db),
		Ledger:     f.ledger(nil),
		Validator:  validator.New(),
		Bounds:     ListBounds{Default: 50, Max: 200},
	}, testLogger())
	return h
}

func (h *examHarness) lines(ids ...uint) []dto.ExamAppealLine {
	out := make([]dto.ExamAppealLine, 0, len(ids))
	for _, id := range ids {
		out = append(out, dto.ExamAppealLine{SubjectClassID: id, Reason: "Marking error on question 3"})
	}
	return out
}

func (h *examHarness) appealCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, h.db.Model(&models.ExamAppeal{}).Count(&count).Error)
	return count
}

func TestReferenceNoFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^APP-[0-9A-Z]{10}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		ref, err := newReferenceNo()
		require.NoError(t, err)
		require.Regexp(t, pattern, ref)
		seen[ref] = struct{}{}
	}
	require.Len(t, seen, 50)
}

func TestExamSubmitRejectsMoreThanThreeLines(t *testing.T) {
	h := newExamHarness(t, models.WindowOpen)

	ids := make([]uint, 0, 4)
	for _, sc := range h.subjects {
		ids = append(ids, sc.ID)
	}
	_, err := h.svc.Submit(context.Background(), h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(ids...)})
	require.ErrorIs(t, err, ErrAppealLimitExceeded)
	require.Zero(t, h.appealCount(t))
}

func TestExamSubmitRejectsClosedWindow(t *testing.T) {
	for _, status := range []string{models.WindowClosed, ""} {
		h := newExamHarness(t, status)

		_, err := h.svc.Submit(context.Background(), h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[0].ID)})
		require.ErrorIs(t, err, ErrAppealWindowClosed)
		require.Zero(t, h.appealCount(t))
	}
}

func TestExamSubmitRespectsWindowBounds(t *testing.T) {
	h := newExamHarness(t, "")
	past := time.Now().Add(-time.Hour)
	window := models.AppealWindow{AppealType: models.DefaultAppealType, Status: "open", ClosesAt: &past}
	require.NoError(t, repository.NewExamAppealRepository(h.db).SaveWindow(context.Background(), &window))

	_, err := h.svc.Submit(context.Background(), h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[0].ID)})
	require.ErrorIs(t, err, ErrAppealWindowClosed)
}

func TestExamSubmitValidatesLines(t *testing.T) {
	h := newExamHarness(t, models.WindowOpen)
	ctx := context.Background()

	_, err := h.svc.Submit(ctx, h.actor(h.teacher), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[0].ID)})
	require.ErrorIs(t, err, ErrNotStudent)

	_, err = h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{})
	require.Error(t, err)

	_, err = h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[0].ID, h.subjects[0].ID)})
	require.ErrorIs(t, err, ErrDuplicateSubjectLine)

	_, err = h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(9999)})
	require.ErrorIs(t, err, ErrSubjectClassNotFound)

	_, err = h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.foreign.ID)})
	require.ErrorIs(t, err, ErrSubjectClassNotFound)

	mark := 140.0
	_, err = h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: []dto.ExamAppealLine{
		{SubjectClassID: h.subjects[0].ID, Reason: "x", RequestedMark: &mark},
	}})
	require.Error(t, err)

	require.Zero(t, h.appealCount(t))
}

func TestExamSubmitSharesReferenceAndTracks(t *testing.T) {
	h := newExamHarness(t, models.WindowOpen)
	ctx := context.Background()

	resp, err := h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{
		Subjects: h.lines(h.subjects[0].ID, h.subjects[1].ID),
	})
	require.NoError(t, err)
	require.Len(t, resp.Appeals, 2)
	for _, appeal := range resp.Appeals {
		require.Equal(t, resp.ReferenceNo, appeal.ReferenceNo)
		require.Equal(t, models.StatusPending, appeal.Status)
		require.Equal(t, models.DefaultAppealType, appeal.AppealType)
	}

	public, err := h.svc.TrackByReference(ctx, " "+resp.ReferenceNo+" ")
	require.NoError(t, err)
	require.Len(t, public.Appeals, 2)
	require.Empty(t, public.Appeals[0].Appeal.StudentName)
	require.Len(t, public.Appeals[0].History, 1)
	require.Nil(t, public.Appeals[0].History[0].OldStatus)

	_, err = h.svc.TrackByReference(ctx, "")
	require.ErrorIs(t, err, ErrReferenceNoRequired)
	_, err = h.svc.TrackByReference(ctx, "APP-0000000000")
	require.ErrorIs(t, err, ErrReferenceNotFound)

	mine, err := h.svc.MyAppeals(ctx, h.actor(h.student), dto.ListQuery{})
	require.NoError(t, err)
	require.Len(t, mine, 2)

	others, err := h.svc.MyAppeals(ctx, h.actor(h.outsider), dto.ListQuery{})
	require.NoError(t, err)
	require.Empty(t, others)

	all, err := h.svc.MyAppeals(ctx, h.actor(h.admin), dto.ListQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = h.svc.Track(ctx, h.actor(h.outsider), resp.Appeals[0].ID)
	require.ErrorIs(t, err, ErrOutsideScope)

	_, err = h.svc.UpdateStatus(ctx, h.actor(h.teacher), dto.StatusUpdateRequest{ID: resp.Appeals[0].ID, Status: "Accepted"})
	require.ErrorIs(t, err, ErrNotReviewer)

	_, err = h.svc.UpdateStatus(ctx, h.actor(h.admin), dto.StatusUpdateRequest{ID: resp.Appeals[0].ID, Status: "Accepted"})
	require.NoError(t, err)

	tracking, err := h.svc.Track(ctx, h.actor(h.student), resp.Appeals[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Accepted", tracking.Appeal.Status)
	require.Len(t, tracking.History, 2)
}

func TestExamReferenceRetriesOnCollision(t *testing.T) {
	h := newExamHarness(t, models.WindowOpen)
	ctx := context.Background()

	first, err := h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[0].ID)})
	require.NoError(t, err)

	candidates := []string{first.ReferenceNo, "APP-FRESH00001"}
	svc := h.svc.(*examService)
	svc.reference = func() (string, error) {
		next := candidates[0]
		candidates = candidates[1:]
		return next, nil
	}

	second, err := h.svc.Submit(ctx, h.actor(h.student), dto.ExamSubmitRequest{Subjects: h.lines(h.subjects[1].ID)})
	require.NoError(t, err)
	require.Equal(t, "APP-FRESH00001", second.ReferenceNo)
}

func TestExamSubjectsFromLatestEnrollment(t *testing.T) {
	h := newExamHarness(t, models.WindowOpen)

	subjects, err := h.svc.Subjects(context.Background(), h.actor(h.student))
	require.NoError(t, err)
	require.Len(t, subjects, 4)
	require.Equal(t, "Mathematics", subjects[0].SubjectName)
	require.Equal(t, "Class A", subjects[0].ClassName)
}
