package service

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

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

// CampusService manages campus-environment complaints.
type CampusService interface {
	Types(ctx context.Context) ([]dto.IssueTypeResponse, error)
	Submit(ctx context.Context, actor Actor, req dto.CampusSubmitRequest, images []*multipart.FileHeader) (dto.CampusIssueResponse, error)
	List(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.CampusIssueResponse, error)
	Track(ctx context.Context, actor Actor, id uint) (dto.CampusTrackingResponse, error)
	ToggleSupport(ctx context.Context, actor Actor, req dto.SupportRequest) (dto.SupportResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error)
	OpenImage(ctx context.Context, filename string) (io.ReadCloser, string, error)
}

// CampusDependencies wires the campus service.
type CampusDependencies struct {
	Transactor  repository.Transactor
	Complaints  repository.CampusIssueRepository
	Users       repository.UserRepository
	Assignments repository.ComplaintAssignmentRepository
	Ledger      LedgerService
	Images      ImageService
	Validator   *validator.Validate
	ReviewRole  string
	Bounds      ListBounds
}

type campusService struct {
	tx         repository.Transactor
	complaints repository.CampusIssueRepository
	ledger     LedgerService
	images     ImageService
	assigner   reviewerAssigner
	validator  *validator.Validate
	sanitizer  *bluemonday.Policy
	bounds     ListBounds
	logger     zerolog.Logger
	tracer     trace.Tracer
}

// NewCampusService constructs the campus complaint service.
func NewCampusService(deps CampusDependencies, logger zerolog.Logger) CampusService {
	logger = logger.With().Str("component", "campus_service").Logger()
	return &campusService{
		tx:         deps.Transactor,
		complaints: deps.Complaints,
		ledger:     deps.Ledger,
		images:     deps.Images,
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
		tracer:    otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/campus"),
	}
}

func (s *campusService) Types(ctx context.Context) ([]dto.IssueTypeResponse, error) {
	types, err := s.complaints.ListTypes(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.IssueTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, dto.IssueTypeResponse{ID: t.ID, Name: t.Name, IsOther: t.IsOther()})
	}
	return out, nil
}

// Submit files a campus complaint. A title given under the "Other" category
// is resolved into a real category first; a category that already has an
// unresolved complaint rejects the submission so students support it instead.
func (s *campusService) Submit(ctx context.Context, actor Actor, req dto.CampusSubmitRequest, images []*multipart.FileHeader) (dto.CampusIssueResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campus.submit", trace.WithAttributes(
		attribute.Int("actor.id", int(actor.ID)),
		attribute.Int("images.count", len(images)),
	))
	defer span.End()

	if !actor.IsStudent() {
		span.SetStatus(codes.Error, "forbidden")
		return dto.CampusIssueResponse{}, ErrNotStudent
	}
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.CampusIssueResponse{}, err
	}

	title := sanitizeText(s.sanitizer, req.Title)
	description := sanitizeText(s.sanitizer, req.Description)
	if description == "" {
		return dto.CampusIssueResponse{}, ErrDescriptionRequired
	}

	var (
		issue  models.CampusIssue
		stored []string
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		category, err := s.complaints.FindType(ctx, req.IssueTypeID)
		if err != nil {
			return notFoundAs(err, ErrIssueTypeNotFound)
		}

		if category.IsOther() && title != "" {
			category, err = s.complaints.ResolveType(ctx, title)
			if err != nil {
				return err
			}
		}

		if !category.IsOther() {
			busy, err := s.complaints.HasUnresolvedInType(ctx, category.ID)
			if err != nil {
				return err
			}
			if busy {
				return ErrActiveComplaintExists
			}
		}

		stored, err = s.images.Store(ctx, images)
		if err != nil {
			return err
		}

		issue = models.CampusIssue{
			IssueTypeID: category.ID,
			StudentID:   actor.ID,
			Title:       title,
			Description: description,
			Images:      stored,
		}
		if err := s.complaints.Create(ctx, &issue); err != nil {
			return err
		}

		if _, err := s.ledger.Open(ctx, models.ComplaintCampusEnv, issue.ID, actor.ID, "Complaint submitted."); err != nil {
			return err
		}

		return s.assigner.assign(ctx, models.ComplaintCampusEnv, issue.ID)
	})
	if err != nil {
		if len(stored) > 0 {
			s.images.Discard(context.WithoutCancel(ctx), stored)
		}
		span.SetStatus(codes.Error, "submit failed")
		if !isExpected(err) {
			span.RecordError(err)
		}
		return dto.CampusIssueResponse{}, err
	}

	observability.ComplaintsSubmitted().WithLabelValues(string(models.ComplaintCampusEnv)).Inc()
	span.SetAttributes(attribute.Int("complaint.id", int(issue.ID)))
	span.SetStatus(codes.Ok, "submitted")

	summary, err := s.complaints.Summary(ctx, issue.ID, actor.ID)
	if err != nil {
		return dto.CampusIssueResponse{}, err
	}
	return dto.NewCampusIssueResponse(summary), nil
}

// List returns every campus complaint, newest first. Mine restricts it to the caller's own.
func (s *campusService) List(ctx context.Context, actor Actor, query dto.ListQuery) ([]dto.CampusIssueResponse, error) {
	filter := repository.CampusIssueFilter{
		ViewerID: actor.ID,
		Page:     s.bounds.page(query),
	}
	if query.Mine {
		studentID := actor.ID
		filter.StudentID = &studentID
	}

	rows, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewCampusIssueResponseSlice(rows), nil
}

func (s *campusService) Track(ctx context.Context, actor Actor, id uint) (dto.CampusTrackingResponse, error) {
	summary, err := s.complaints.Summary(ctx, id, actor.ID)
	if err != nil {
		return dto.CampusTrackingResponse{}, notFoundAs(err, ErrComplaintNotFound)
	}

	history, err := s.ledger.History(ctx, models.ComplaintCampusEnv, id)
	if err != nil {
		return dto.CampusTrackingResponse{}, err
	}

	return dto.CampusTrackingResponse{
		Complaint: dto.NewCampusIssueResponse(summary),
		History:   history,
	}, nil
}

func (s *campusService) ToggleSupport(ctx context.Context, actor Actor, req dto.SupportRequest) (dto.SupportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "campus.toggle_support", trace.WithAttributes(
		attribute.Int("actor.id", int(actor.ID)),
		attribute.Int("complaint.id", int(req.ComplaintID)),
	))
	defer span.End()

	if !actor.IsStudent() {
		return dto.SupportResponse{}, ErrNotStudent
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SupportResponse{}, err
	}

	if _, err := s.complaints.FindByID(ctx, req.ComplaintID); err != nil {
		return dto.SupportResponse{}, notFoundAs(err, ErrComplaintNotFound)
	}

	supported, err := s.complaints.ToggleSupport(ctx, req.ComplaintID, actor.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "toggle failed")
		return dto.SupportResponse{}, err
	}

	result := "withdrawn"
	if supported {
		result = "supported"
	}
	observability.SupportToggles().WithLabelValues(result).Inc()
	span.SetAttributes(attribute.Bool("support.active", supported))

	return dto.SupportResponse{ComplaintID: req.ComplaintID, Supported: supported}, nil
}

func (s *campusService) UpdateStatus(ctx context.Context, actor Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error) {
	if !actor.CanReview() {
		return dto.StatusEntryResponse{}, ErrNotReviewer
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.StatusEntryResponse{}, err
	}
	return s.ledger.Advance(ctx, models.ComplaintCampusEnv, req.ID, req.Status, actor, req.Note)
}

func (s *campusService) OpenImage(ctx context.Context, filename string) (io.ReadCloser, string, error) {
	return s.images.Open(ctx, filename)
}

// isExpected reports whether err is a business failure rather than a fault.
func isExpected(err error) bool {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	}
	return false
}
