package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/observability"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

const defaultStatusNote = "Status updated."

// ComplaintLocator resolves the submitter of a complaint of one type.
type ComplaintLocator interface {
	OwnerOf(ctx context.Context, id uint) (uint, error)
}

// StatusChangedEvent is broadcast after a status change commits.
type StatusChangedEvent struct {
	ComplaintType models.ComplaintType `json:"complaint_type"`
	ComplaintID   uint                 `json:"complaint_id"`
	OwnerID       uint                 `json:"owner_id"`
	OldStatus     *string              `json:"old_status"`
	NewStatus     string               `json:"new_status"`
	ChangedBy     uint                 `json:"changed_by"`
	ChangedAt     time.Time            `json:"changed_at"`
}

// EventPublisher fans status changes out to other processes.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
}

// LedgerService records and reads complaint status history for every complaint type.
type LedgerService interface {
	Open(ctx context.Context, complaintType models.ComplaintType, complaintID, actorID uint, note string) (models.StatusEntry, error)
	Advance(ctx context.Context, complaintType models.ComplaintType, complaintID uint, status string, actor Actor, note string) (dto.StatusEntryResponse, error)
	CurrentStatus(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (string, error)
	History(ctx context.Context, complaintType models.ComplaintType, complaintID uint) ([]dto.StatusEntryResponse, error)
}

// LedgerDependencies wires the ledger to storage and fan-out.
type LedgerDependencies struct {
	Transactor    repository.Transactor
	Entries       repository.StatusLedgerRepository
	Assignments   repository.ComplaintAssignmentRepository
	Notifications repository.NotificationRepository
	Locators      map[models.ComplaintType]ComplaintLocator
	Publisher     EventPublisher
}

type ledgerService struct {
	tx            repository.Transactor
	entries       repository.StatusLedgerRepository
	assignments   repository.ComplaintAssignmentRepository
	notifications repository.NotificationRepository
	locators      map[models.ComplaintType]ComplaintLocator
	mirrored      map[models.ComplaintType]bool
	publisher     EventPublisher
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewLedgerService constructs the shared status ledger.
func NewLedgerService(deps LedgerDependencies, logger zerolog.Logger) LedgerService {
	return &ledgerService{
		tx:            deps.Transactor,
		entries:       deps.Entries,
		assignments:   deps.Assignments,
		notifications: deps.Notifications,
		locators:      deps.Locators,
		mirrored: map[models.ComplaintType]bool{
			models.ComplaintClassIssue: true,
			models.ComplaintCampusEnv:  true,
		},
		publisher: deps.Publisher,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "ledger_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/ledger"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Open writes the first Pending entry of a new complaint. It joins the
// transaction carried by ctx.
func (s *ledgerService) Open(ctx context.Context, complaintType models.ComplaintType, complaintID, actorID uint, note string) (models.StatusEntry, error) {
	entry := models.StatusEntry{
		ComplaintType: complaintType,
		ComplaintID:   complaintID,
		NewStatus:     models.StatusPending,
		Note:          s.clean(note),
		ChangedBy:     actorID,
		CreatedAt:     s.now(),
	}
	if err := s.entries.Append(ctx, &entry); err != nil {
		return models.StatusEntry{}, err
	}
	return entry, nil
}

func (s *ledgerService) Advance(ctx context.Context, complaintType models.ComplaintType, complaintID uint, status string, actor Actor, note string) (dto.StatusEntryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.advance", trace.WithAttributes(
		attribute.String("complaint.type", string(complaintType)),
		attribute.Int("complaint.id", int(complaintID)),
	))
	defer span.End()

	newStatus := s.clean(status)
	if newStatus == "" {
		span.SetStatus(codes.Error, "empty status")
		return dto.StatusEntryResponse{}, ErrStatusRequired
	}
	if utf8.RuneCountInString(newStatus) > models.StatusMaxLength {
		span.SetStatus(codes.Error, "status too long")
		return dto.StatusEntryResponse{}, ErrStatusTooLong
	}
	note = s.clean(note)
	if note == "" {
		note = defaultStatusNote
	}

	locator, ok := s.locators[complaintType]
	if !ok {
		return dto.StatusEntryResponse{}, fmt.Errorf("no locator registered for %s", complaintType)
	}

	var (
		entry   models.StatusEntry
		ownerID uint
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		owner, err := locator.OwnerOf(ctx, complaintID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrComplaintNotFound
			}
			return err
		}
		ownerID = owner

		var oldStatus *string
		latest, err := s.entries.Latest(ctx, complaintType, complaintID)
		switch {
		case err == nil:
			previous := latest.NewStatus
			oldStatus = &previous
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		entry = models.StatusEntry{
			ComplaintType: complaintType,
			ComplaintID:   complaintID,
			OldStatus:     oldStatus,
			NewStatus:     newStatus,
			Note:          note,
			ChangedBy:     actor.ID,
			CreatedAt:     s.now(),
		}
		if err := s.entries.Append(ctx, &entry); err != nil {
			return err
		}

		if s.mirrored[complaintType] && s.assignments != nil {
			if err := s.assignments.MirrorStatus(ctx, complaintType, complaintID, newStatus); err != nil {
				return err
			}
		}

		if s.notifications != nil && owner != actor.ID {
			if err := s.notifications.Create(ctx, s.statusNotification(entry, owner)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "advance failed")
		return dto.StatusEntryResponse{}, err
	}

	observability.StatusTransitions().WithLabelValues(string(complaintType)).Inc()
	s.publish(ctx, entry, ownerID)
	span.SetStatus(codes.Ok, "advanced")

	return dto.NewStatusEntryResponse(entry), nil
}

// CurrentStatus is the newest entry's status, or Pending when there is no history.
func (s *ledgerService) CurrentStatus(ctx context.Context, complaintType models.ComplaintType, complaintID uint) (string, error) {
	latest, err := s.entries.Latest(ctx, complaintType, complaintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.StatusPending, nil
		}
		return "", err
	}
	return latest.NewStatus, nil
}

func (s *ledgerService) History(ctx context.Context, complaintType models.ComplaintType, complaintID uint) ([]dto.StatusEntryResponse, error) {
	entries, err := s.entries.History(ctx, complaintType, complaintID)
	if err != nil {
		return nil, err
	}
	return dto.NewStatusEntryResponseSlice(entries), nil
}

func (s *ledgerService) statusNotification(entry models.StatusEntry, ownerID uint) *models.Notification {
	payload := datatypes.JSONMap{
		"complaint_type": string(entry.ComplaintType),
		"complaint_id":   entry.ComplaintID,
		"new_status":     entry.NewStatus,
		"note":           entry.Note,
	}
	if entry.OldStatus != nil {
		payload["old_status"] = *entry.OldStatus
	}

	return &models.Notification{
		UserID:  ownerID,
		Type:    models.NotificationStatusChanged,
		Title:   "Status updated",
		Message: fmt.Sprintf("Your %s #%d is now %s.", complaintLabel(entry.ComplaintType), entry.ComplaintID, entry.NewStatus),
		Payload: payload,
	}
}

func (s *ledgerService) publish(ctx context.Context, entry models.StatusEntry, ownerID uint) {
	if s.publisher == nil {
		return
	}
	event := StatusChangedEvent{
		ComplaintType: entry.ComplaintType,
		ComplaintID:   entry.ComplaintID,
		OwnerID:       ownerID,
		OldStatus:     entry.OldStatus,
		NewStatus:     entry.NewStatus,
		ChangedBy:     entry.ChangedBy,
		ChangedAt:     entry.CreatedAt,
	}
	if err := s.publisher.PublishStatusChanged(ctx, event); err != nil {
		observability.EventsPublished().WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).
			Str("complaint_type", string(entry.ComplaintType)).
			Uint("complaint_id", entry.ComplaintID).
			Msg("failed to publish status change")
		return
	}
	observability.EventsPublished().WithLabelValues("sent").Inc()
}

func (s *ledgerService) clean(value string) string {
	return sanitizeText(s.sanitizer, value)
}

func complaintLabel(complaintType models.ComplaintType) string {
	switch complaintType {
	case models.ComplaintClassIssue:
		return "class issue"
	case models.ComplaintCampusEnv:
		return "campus complaint"
	case models.ComplaintExamAppeal:
		return "exam appeal"
	default:
		return "complaint"
	}
}
