package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/observability"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

const (
	maxAppealLines       = 3
	referenceAttempts    = 5
	examAppealOpenNote   = "Appeal submitted."
	appealReferenceUpper = 32
)

// ExamService manages exam score appeals.
type ExamService interface {
	Subjects(ctx context.Context, actor Actor) ([]dto.ExamSubjectResponse, error)
	Submit(ctx context.Context, actor Actor, req dto.ExamSubmitRequest) (dto.ExamSubmitResponse, error)
	MyAppeals(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.ExamAppealResponse, error)
	Track(ctx context.Context, actor Actor, id uint) (dto.ExamTrackingResponse, error)
	TrackByReference(ctx context.Context, referenceNo string) (dto.ExamReferenceResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error)
}

// ExamDependencies wires the exam appeal service.
type ExamDependencies struct {
	Transactor repository.Transactor
	Appeals    repository.ExamAppealRepository
	Academics  repository.AcademicRepository
	Ledger     LedgerService
	Validator  *validator.Validate
	Bounds     ListBounds
}

type examService struct {
	tx        repository.Transactor
	appeals   repository.ExamAppealRepository
	academics repository.AcademicRepository
	ledger    LedgerService
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	bounds    ListBounds
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	reference func() (string, error)
}

// NewExamService constructs the exam appeal service.
func NewExamService(deps ExamDependencies, logger zerolog.Logger) ExamService {
	return &examService{
		tx:        deps.Transactor,
		appeals:   deps.Appeals,
		academics: deps.Academics,
		ledger:    deps.Ledger,
		validator: deps.Validator,
		sanitizer: bluemonday.StrictPolicy(),
		bounds:    deps.Bounds,
		logger:    logger.With().Str("component", "exam_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/exam"),
		now:       func() time.Time { return time.Now().UTC() },
		reference: newReferenceNo,
	}
}

// Subjects lists the subject classes of the student's latest enrollment.
func (s *examService) Subjects(ctx context.Context, actor Actor) ([]dto.ExamSubjectResponse, error) {
	if !actor.IsStudent() {
		return nil, ErrNotStudent
	}

	enrollment, err := s.academics.LatestEnrollment(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []dto.ExamSubjectResponse{}, nil
		}
		return nil, err
	}

	subjectClasses, err := s.academics.SubjectClassesForClassroom(ctx, enrollment.ClassroomID)
	if err != nil {
		return nil, err
	}
	return dto.NewExamSubjectResponseSlice(subjectClasses), nil
}

// Submit files one appeal line per subject under a shared reference number.
// Every check runs before anything is written.
func (s *examService) Submit(ctx context.Context, actor Actor, req dto.ExamSubmitRequest) (dto.ExamSubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "exam.submit", trace.WithAttributes(
		attribute.Int("actor.id", int(actor.ID)),
		attribute.Int("appeal.lines", len(req.Subjects)),
	))
	defer span.End()

	if !actor.IsStudent() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ExamSubmitResponse{}, ErrNotStudent
	}
	if len(req.Subjects) > maxAppealLines {
		span.SetStatus(codes.Error, "limit exceeded")
		return dto.ExamSubmitResponse{}, ErrAppealLimitExceeded
	}
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ExamSubmitResponse{}, err
	}

	appealType := strings.TrimSpace(req.AppealType)
	if appealType == "" {
		appealType = models.DefaultAppealType
	}
	span.SetAttributes(attribute.String("appeal.type", appealType))

	ids := make([]uint, 0, len(req.Subjects))
	for _, line := range req.Subjects {
		for _, seen := range ids {
			if seen == line.SubjectClassID {
				return dto.ExamSubmitResponse{}, ErrDuplicateSubjectLine
			}
		}
		ids = append(ids, line.SubjectClassID)
	}

	if err := s.checkSubjects(ctx, actor, ids); err != nil {
		span.SetStatus(codes.Error, "subject check failed")
		return dto.ExamSubmitResponse{}, err
	}

	window, err := s.appeals.FindWindow(ctx, appealType)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ExamSubmitResponse{}, err
	}
	if err != nil || !window.IsOpenAt(s.now()) {
		span.SetStatus(codes.Error, "window closed")
		return dto.ExamSubmitResponse{}, ErrAppealWindowClosed
	}

	referenceNo, err := s.uniqueReference(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.ExamSubmitResponse{}, err
	}

	appeals := make([]models.ExamAppeal, 0, len(req.Subjects))
	for _, line := range req.Subjects {
		reason := sanitizeText(s.sanitizer, line.Reason)
		if reason == "" {
			return dto.ExamSubmitResponse{}, ErrDescriptionRequired
		}
		appeals = append(appeals, models.ExamAppeal{
			ReferenceNo:    referenceNo,
			AppealType:     appealType,
			WindowID:       window.ID,
			StudentID:      actor.ID,
			SubjectClassID: line.SubjectClassID,
			Reason:         reason,
			RequestedMark:  line.RequestedMark,
		})
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.appeals.CreateBatch(ctx, appeals); err != nil {
			return err
		}
		for _, appeal := range appeals {
			if _, err := s.ledger.Open(ctx, models.ComplaintExamAppeal, appeal.ID, actor.ID, examAppealOpenNote); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return dto.ExamSubmitResponse{}, err
	}

	observability.ComplaintsSubmitted().WithLabelValues(string(models.ComplaintExamAppeal)).Add(float64(len(appeals)))
	span.SetAttributes(attribute.String("appeal.reference_no", referenceNo))
	span.SetStatus(codes.Ok, "submitted")

	rows, err := s.appeals.ListByReference(ctx, referenceNo)
	if err != nil {
		return dto.ExamSubmitResponse{}, err
	}
	return dto.ExamSubmitResponse{
		ReferenceNo: referenceNo,
		Appeals:     dto.NewExamAppealResponseSlice(rows),
	}, nil
}

// MyAppeals lists the student's own appeals; admins and exam officers see all.
func (s *examService) MyAppeals(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.ExamAppealResponse, error) {
	filter := repository.ExamAppealFilter{Page: s.bounds.page(query)}
	switch {
	case actor.Unscoped():
	case actor.IsStudent():
		studentID := actor.ID
		filter.StudentID = &studentID
	default:
		return nil, ErrNotStudent
	}

	rows, err := s.appeals.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewExamAppealResponseSlice(rows), nil
}

func (s *examService) Track(ctx context.Context, actor Actor, id uint) (dto.ExamTrackingResponse, error) {
	summary, err := s.appeals.Summary(ctx, id)
	if err != nil {
		return dto.ExamTrackingResponse{}, notFoundAs(err, ErrComplaintNotFound)
	}
	if summary.StudentID != actor.ID && !actor.Unscoped() {
		return dto.ExamTrackingResponse{}, ErrOutsideScope
	}
	return s.tracking(ctx, summary)
}

// TrackByReference serves the anonymous tracking page.
func (s *examService) TrackByReference(ctx context.Context, referenceNo string) (dto.ExamReferenceResponse, error) {
	referenceNo = strings.ToUpper(strings.TrimSpace(referenceNo))
	if referenceNo == "" {
		return dto.ExamReferenceResponse{}, ErrReferenceNoRequired
	}
	if len(referenceNo) > appealReferenceUpper {
		return dto.ExamReferenceResponse{}, ErrReferenceNotFound
	}

	rows, err := s.appeals.ListByReference(ctx, referenceNo)
	if err != nil {
		return dto.ExamReferenceResponse{}, err
	}
	if len(rows) == 0 {
		return dto.ExamReferenceResponse{}, ErrReferenceNotFound
	}

	out := dto.ExamReferenceResponse{
		ReferenceNo: referenceNo,
		Appeals:     make([]dto.ExamTrackingResponse, 0, len(rows)),
	}
	for _, row := range rows {
		// the reference alone must not reveal who filed the appeal
		row.StudentName = ""
		tracking, err := s.tracking(ctx, row)
		if err != nil {
			return dto.ExamReferenceResponse{}, err
		}
		out.Appeals = append(out.Appeals, tracking)
	}
	return out, nil
}

// UpdateStatus is limited to admins and exam officers.
func (s *examService) UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error) {
	if !actor.Unscoped() {
		return dto.StatusEntryResponse{}, ErrNotReviewer
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StatusEntryResponse{}, err
	}
	return s.ledger.Advance(ctx, models.ComplaintExamAppeal, req.ID, req.Status, actor, req.Note)
}

func (s *examService) tracking(ctx context.Context, row models.ExamAppealSummary) (dto.ExamTrackingResponse, error) {
	history, err := s.ledger.History(ctx, models.ComplaintExamAppeal, row.ID)
	if err != nil {
		return dto.ExamTrackingResponse{}, err
	}
	return dto.ExamTrackingResponse{
		Appeal:  dto.NewExamAppealResponse(row),
		History: history,
	}, nil
}

// checkSubjects requires every subject class to exist and belong to a classroom
// the student is enrolled in.
func (s *examService) checkSubjects(ctx context.Context, actor Actor, ids []uint) error {
	subjectClasses, err := s.academics.FindSubjectClasses(ctx, ids)
	if err != nil {
		return err
	}
	if len(subjectClasses) != len(ids) {
		return ErrSubjectClassNotFound
	}

	enrolled, err := s.academics.EnrolledClassroomIDs(ctx, actor.ID)
	if err != nil {
		return err
	}
	allowed := make(map[uint]struct{}, len(enrolled))
	for _, id := range enrolled {
		allowed[id] = struct{}{}
	}
	for _, sc := range subjectClasses {
		if _, ok := allowed[sc.ClassroomID]; !ok {
			return ErrSubjectClassNotFound
		}
	}
	return nil
}

func (s *examService) uniqueReference(ctx context.Context) (string, error) {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		candidate, err := s.reference()
		if err != nil {
			return "", err
		}
		taken, err := s.appeals.ReferenceExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		s.logger.Debug().Str("reference_no", candidate).Msg("reference collision, retrying")
	}
	return "", fmt.Errorf("could not allocate a unique reference after %d attempts", referenceAttempts)
}
