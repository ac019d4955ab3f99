package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/observability"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

const classIssueOpenNote = "Submitted"

// ClassIssueService manages issues class leaders raise about their classroom.
type ClassIssueService interface {
	Types(ctx context.Context) ([]dto.IssueTypeResponse, error)
	MyClasses(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error)
	Submit(ctx context.Context, actor Actor, req dto.ClassIssueSubmitRequest) (dto.ClassIssueResponse, error)
	List(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.ClassIssueResponse, error)
	Track(ctx context.Context, actor Actor, id uint) (dto.ClassIssueTrackingResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error)
}

// ClassIssueDependencies wires the class issue service.
type ClassIssueDependencies struct {
	Transactor  repository.Transactor
	Issues      repository.ClassIssueRepository
	Academics   repository.AcademicRepository
	Users       repository.UserRepository
	Assignments repository.ComplaintAssignmentRepository
	Ledger      LedgerService
	Validator   *validator.Validate
	ReviewRole  string
	Bounds      ListBounds
}

type classIssueService struct {
	tx        repository.Transactor
	issues    repository.ClassIssueRepository
	academics repository.AcademicRepository
	ledger    LedgerService
	assigner  reviewerAssigner
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	bounds    ListBounds
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewClassIssueService constructs the class issue service.
func NewClassIssueService(deps ClassIssueDependencies, logger zerolog.Logger) ClassIssueService {
	logger = logger.With().Str("component", "class_issue_service").Logger()
	return &classIssueService{
		tx:        deps.Transactor,
		issues:    deps.Issues,
		academics: deps.Academics,
		ledger:    deps.Ledger,
		assigner: reviewerAssigner{
			users:       deps.Users,
			assignments: deps.Assignments,
			role:        deps.ReviewRole,
			logger:      logger,
		},
		validator: deps.Validator,
		sanitizer: bluemonday.StrictPolicy(),
		bounds:    deps.Bounds,
		logger:    logger,
		tracer:    otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/class_issue"),
	}
}

func (s *classIssueService) Types(ctx context.Context) ([]dto.IssueTypeResponse, error) {
	types, err := s.issues.ListTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IssueTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, dto.IssueTypeResponse{ID: t.ID, Name: t.Name})
	}
	return out, nil
}

// MyClasses lists the classrooms the caller leads.
func (s *classIssueService) MyClasses(ctx context.Context, actor Actor) ([]dto.ClassroomResponse, error) {
	if !actor.IsStudent() {
		return []dto.ClassroomResponse{}, nil
	}
	led, err := s.academics.LedClassrooms(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewClassroomResponseSlice(led), nil
}

func (s *classIssueService) Submit(ctx context.Context, actor Actor, req dto.ClassIssueSubmitRequest) (dto.ClassIssueResponse, error) {
	ctx, span := s.tracer.Start(ctx, "class_issue.submit", trace.WithAttributes(
		attribute.Int("actor.id", int(actor.ID)),
	))
	defer span.End()

	if !actor.IsStudent() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ClassIssueResponse{}, ErrNotClassLeader
	}
	led, err := s.academics.LedClassrooms(ctx, actor.ID)
	if err != nil {
		return dto.ClassIssueResponse{}, err
	}
	if len(led) == 0 {
		span.SetStatus(codes.Error, "forbidden")
		return dto.ClassIssueResponse{}, ErrNotClassLeader
	}

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ClassIssueResponse{}, err
	}

	classroomID := led[0].ID
	if req.ClassID != nil {
		found := false
		for _, classroom := range led {
			if classroom.ID == *req.ClassID {
				found = true
				break
			}
		}
		if !found {
			span.SetStatus(codes.Error, "forbidden")
			return dto.ClassIssueResponse{}, ErrNotClassLeader
		}
		classroomID = *req.ClassID
	}

	description := sanitizeText(s.sanitizer, req.Description)
	if description == "" {
		return dto.ClassIssueResponse{}, ErrDescriptionRequired
	}

	var issue models.ClassIssue
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.issues.FindType(ctx, req.IssueTypeID); err != nil {
			return notFoundAs(err, ErrIssueTypeNotFound)
		}

		issue = models.ClassIssue{
			IssueTypeID: req.IssueTypeID,
			ClassroomID: classroomID,
			LeaderID:    actor.ID,
			Description: description,
		}
		if err := s.issues.Create(ctx, &issue); err != nil {
			return err
		}

		if _, err := s.ledger.Open(ctx, models.ComplaintClassIssue, issue.ID, actor.ID, classIssueOpenNote); err != nil {
			return err
		}

		return s.assigner.assign(ctx, models.ComplaintClassIssue, issue.ID)
	})
	if err != nil {
		span.SetStatus(codes.Error, "submit failed")
		if !isExpected(err) {
			span.RecordError(err)
		}
		return dto.ClassIssueResponse{}, err
	}

	observability.ComplaintsSubmitted().WithLabelValues(string(models.ComplaintClassIssue)).Inc()
	span.SetStatus(codes.Ok, "submitted")

	summary, err := s.issues.Summary(ctx, issue.ID)
	if err != nil {
		return dto.ClassIssueResponse{}, err
	}
	return dto.NewClassIssueResponse(summary), nil
}

func (s *classIssueService) List(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.ClassIssueResponse, error) {
	classroomIDs, unscoped, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}

	rows, err := s.issues.List(ctx, repository.ClassIssueFilter{
		ClassroomIDs: classroomIDs,
		Unscoped:     unscoped,
		Page:         s.bounds.page(query),
	})
	if err != nil {
		return nil, err
	}
	return dto.NewClassIssueResponseSlice(rows), nil
}

func (s *classIssueService) Track(ctx context.Context, actor Actor, id uint) (dto.ClassIssueTrackingResponse, error) {
	summary, err := s.issues.Summary(ctx, id)
	if err != nil {
		return dto.ClassIssueTrackingResponse{}, notFoundAs(err, ErrComplaintNotFound)
	}
	if err := s.authorize(ctx, actor, summary.ClassroomID); err != nil {
		return dto.ClassIssueTrackingResponse{}, err
	}

	history, err := s.ledger.History(ctx, models.ComplaintClassIssue, id)
	if err != nil {
		return dto.ClassIssueTrackingResponse{}, err
	}

	return dto.ClassIssueTrackingResponse{
		Issue:   dto.NewClassIssueResponse(summary),
		History: history,
	}, nil
}

// UpdateStatus lets reviewers advance issues belonging to classrooms they can see.
func (s *classIssueService) UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error) {
	if !actor.CanReview() {
		return dto.StatusEntryResponse{}, ErrNotReviewer
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StatusEntryResponse{}, err
	}

	issue, err := s.issues.FindByID(ctx, req.ID)
	if err != nil {
		return dto.StatusEntryResponse{}, notFoundAs(err, ErrComplaintNotFound)
	}
	if err := s.authorize(ctx, actor, issue.ClassroomID); err != nil {
		return dto.StatusEntryResponse{}, err
	}

	return s.ledger.Advance(ctx, models.ComplaintClassIssue, req.ID, req.Status, actor, req.Note)
}

// scope resolves the classrooms whose issues the actor may see.
func (s *classIssueService) scope(ctx context.Context, actor Actor) ([]uint, bool, error) {
	if actor.Unscoped() {
		return nil, true, nil
	}

	switch {
	case actor.IsStudent():
		enrolled, err := s.academics.EnrolledClassroomIDs(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		led, err := s.academics.LedClassrooms(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		ids := append([]uint{}, enrolled...)
		for _, classroom := range led {
			ids = appendUnique(ids, classroom.ID)
		}
		return ids, false, nil
	case actor.IsTeacher():
		taught, err := s.academics.TaughtClassrooms(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		ids := make([]uint, 0, len(taught))
		for _, classroom := range taught {
			ids = append(ids, classroom.ID)
		}
		return ids, false, nil
	default:
		return []uint{}, false, nil
	}
}

func (s *classIssueService) authorize(ctx context.Context, actor Actor, classroomID uint) error {
	ids, unscoped, err := s.scope(ctx, actor)
	if err != nil {
		return err
	}
	if unscoped {
		return nil
	}
	for _, id := range ids {
		if id == classroomID {
			return nil
		}
	}
	return ErrOutsideScope
}

func appendUnique(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
