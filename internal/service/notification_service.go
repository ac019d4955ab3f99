package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

const (
	notificationBufferSize = 16
	notificationListLimit  = 50
)

// NotificationService lists a user's status notifications and relays live
// status changes to connected clients.
type NotificationService interface {
	List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	Subscribe(userID uint) (<-chan StatusChangedEvent, func())
	EventPublisher
	Start(ctx context.Context)
}

type notificationService struct {
	repo         repository.NotificationRepository
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	tracer       trace.Tracer
	broker       *eventBroker
	nodeID       string
	now          func() time.Time
}

type busEnvelope struct {
	Source string             `json:"source"`
	Event  StatusChangedEvent `json:"event"`
	SentAt time.Time          `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan StatusChangedEvent]struct{}
}

// NewNotificationService constructs the notification service. Both bus
// clients are optional; without them events only reach local subscribers.
func NewNotificationService(repo repository.NotificationRepository, redisClient *redis.Client, natsConn *nats.Conn, subjectBase string, logger zerolog.Logger) NotificationService {
	channel := ""
	subject := ""
	if base := strings.TrimSpace(subjectBase); base != "" {
		channel = strings.ReplaceAll(base, ".", ":") + ":status"
		subject = strings.ReplaceAll(base, ":", ".") + ".status"
	}

	return &notificationService{
		repo:         repo,
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "notification_service").Logger(),
		tracer:       otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/notification"),
		broker: &eventBroker{
			subscribers: make(map[uint]map[chan StatusChangedEvent]struct{}),
		},
		nodeID: uuid.NewString(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *notificationService) List(ctx context.Context, userID uint) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, err
	}
	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int("notification.user_id", int(userID)),
		attribute.Int("notification.id", int(id)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

// PublishStatusChanged delivers the event to local subscribers and every
// configured bus.
func (s *notificationService) PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error {
	s.broker.broadcast(event)

	payload, err := json.Marshal(busEnvelope{Source: s.nodeID, Event: event, SentAt: s.now()})
	if err != nil {
		return err
	}

	var errs []error
	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *notificationService) Subscribe(userID uint) (<-chan StatusChangedEvent, func()) {
	channel := make(chan StatusChangedEvent, notificationBufferSize)
	s.broker.subscribe(userID, channel)

	var once sync.Once
	return channel, func() {
		once.Do(func() { s.broker.unsubscribe(userID, channel) })
	}
}

func (s *notificationService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("status redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *notificationService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats status subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain status nats subscription")
		}
	}()
}

func (s *notificationService) handleEnvelope(payload []byte) {
	var envelope busEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid status event payload")
		return
	}

	// Redis and NATS may both deliver our own events back.
	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(userID uint, ch chan StatusChangedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan StatusChangedEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(userID uint, ch chan StatusChangedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *eventBroker) broadcast(event StatusChangedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[event.OwnerID] {
		select {
		case ch <- event:
		default:
		}
	}
}
