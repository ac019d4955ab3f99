package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
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

// AuthService signs users in and out and describes the current account.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	Logout(ctx context.Context, actor Actor) error
	Me(ctx context.Context, actor Actor) (dto.MeResponse, error)
	ValidateSession(ctx context.Context, sessionID string, userID uint) (Actor, error)
}

// AuthDependencies wires the auth service.
type AuthDependencies struct {
	Authenticator Authenticator
	Users         repository.UserRepository
	Sessions      repository.SessionRepository
	Academics     repository.AcademicRepository
	Roles         RoleProvider
	Validator     *validator.Validate
	Secret        string
	TokenTTL      time.Duration
}

type authService struct {
	authenticator Authenticator
	users         repository.UserRepository
	sessions      repository.SessionRepository
	academics     repository.AcademicRepository
	roles         RoleProvider
	validator     *validator.Validate
	secret        []byte
	ttl           time.Duration
	logger        zerolog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(deps AuthDependencies, logger zerolog.Logger) AuthService {
	ttl := deps.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		authenticator: deps.Authenticator,
		users:         deps.Users,
		sessions:      deps.Sessions,
		academics:     deps.Academics,
		roles:         deps.Roles,
		validator:     deps.Validator,
		secret:        []byte(deps.Secret),
		ttl:           ttl,
		logger:        logger.With().Str("component", "auth_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/campus-appeals-api/internal/service/auth"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	req.Channel = strings.ToUpper(strings.TrimSpace(req.Channel))
	ctx, span := s.tracer.Start(ctx, "auth.login", trace.WithAttributes(
		attribute.String("auth.channel", req.Channel),
	))
	defer span.End()

	response, err := s.login(ctx, req)
	switch {
	case err == nil:
		observability.Logins().WithLabelValues("success").Inc()
		span.SetStatus(codes.Ok, "signed in")
	case errors.Is(err, ErrUnauthorized):
		observability.Logins().WithLabelValues("invalid_credentials").Inc()
		span.SetStatus(codes.Error, "invalid credentials")
	case isExpected(err):
		observability.Logins().WithLabelValues("rejected").Inc()
		span.SetStatus(codes.Error, "rejected")
	default:
		observability.Logins().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
	}
	return response, err
}

func (s *authService) login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, err
	}

	user, err := s.authenticator.Authenticate(ctx, req.Identifier, req.Secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := checkAccountActive(user); err != nil {
		return dto.LoginResponse{}, err
	}
	if !channelAllowed(user.AccessChannel, req.Channel) {
		return dto.LoginResponse{}, ErrChannelNotAllowed
	}

	role := models.NormalizeRole(user.Role.Name)
	if req.Channel == models.ChannelApp && role != models.RoleStudent && role != models.RoleTeacher {
		return dto.LoginResponse{}, ErrRoleNotAllowedOnChannel
	}

	session := models.AccessSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Channel:   req.Channel,
		ExpiresAt: s.now().Add(s.ttl),
	}

	// Everything that can fail runs before the previous session is revoked.
	actor := NewActor(user.ID, user.Role.Name, session.ID, session.Channel)
	profile, err := s.profile(ctx, user, actor)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	rbac, err := s.roles.Payload(ctx, user.Role)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	token, err := s.sign(user.ID, role, session)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.sessions.Replace(ctx, &session); err != nil {
		return dto.LoginResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("channel", session.Channel).Msg("user signed in")

	return dto.LoginResponse{
		Token:       token,
		ExpiresAt:   session.ExpiresAt,
		Profile:     profile,
		Dashboard:   rbac.Dashboard,
		Modules:     rbac.Modules,
		Permissions: rbac.Permissions,
	}, nil
}

// Logout revokes only the session behind the current token.
func (s *authService) Logout(ctx context.Context, actor Actor) error {
	if actor.SessionID == "" {
		return ErrSessionRevoked
	}
	if err := s.sessions.Delete(ctx, actor.SessionID); err != nil {
		return notFoundAs(err, ErrSessionRevoked)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (dto.MeResponse, error) {
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return dto.MeResponse{}, notFoundAs(err, ErrSessionRevoked)
	}

	profile, err := s.profile(ctx, user, actor)
	if err != nil {
		return dto.MeResponse{}, err
	}
	rbac, err := s.roles.Payload(ctx, user.Role)
	if err != nil {
		return dto.MeResponse{}, err
	}

	return dto.MeResponse{
		Profile:     profile,
		Dashboard:   rbac.Dashboard,
		Modules:     rbac.Modules,
		Permissions: rbac.Permissions,
	}, nil
}

// ValidateSession confirms the token's session is still live and the account
// may still sign in. The returned actor carries the account's current role.
func (s *authService) ValidateSession(ctx context.Context, sessionID string, userID uint) (Actor, error) {
	if sessionID == "" {
		return Actor{}, ErrSessionRevoked
	}

	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return Actor{}, notFoundAs(err, ErrSessionRevoked)
	}
	if session.UserID != userID || !session.ExpiresAt.After(s.now()) {
		return Actor{}, ErrSessionRevoked
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return Actor{}, notFoundAs(err, ErrSessionRevoked)
	}
	if err := checkAccountActive(user); err != nil {
		return Actor{}, err
	}

	return NewActor(user.ID, user.Role.Name, session.ID, session.Channel), nil
}

func (s *authService) sign(userID uint, role string, session models.AccessSession) (string, error) {
	claims := jwt.MapClaims{
		"sub":     strconv.FormatUint(uint64(userID), 10),
		"role":    role,
		"channel": session.Channel,
		"jti":     session.ID,
		"iat":     s.now().Unix(),
		"exp":     session.ExpiresAt.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) profile(ctx context.Context, user models.User, actor Actor) (dto.ProfileResponse, error) {
	profile := dto.ProfileResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Role:     actor.Role,
		Status:   user.Status,
	}

	switch {
	case actor.IsStudent():
		led, err := s.academics.LedClassrooms(ctx, user.ID)
		if err != nil {
			return dto.ProfileResponse{}, err
		}
		profile.IsLeader = len(led) > 0

		student, err := s.academics.FindStudent(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, err
		}
		if err == nil {
			summary := &dto.StudentSummary{
				StudentNo: student.StudentNo,
				Name:      student.Name,
				Email:     student.Email,
			}
			enrollment, err := s.academics.LatestEnrollment(ctx, user.ID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ProfileResponse{}, err
			}
			if err == nil {
				classroom := dto.NewClassroomResponse(enrollment.Classroom)
				summary.Classroom = &classroom
			}
			profile.Student = summary
		}
	case actor.IsTeacher():
		taught, err := s.academics.TaughtClassrooms(ctx, user.ID)
		if err != nil {
			return dto.ProfileResponse{}, err
		}
		profile.Classes = dto.NewClassroomResponseSlice(taught)
	}

	return profile, nil
}

func checkAccountActive(user models.User) error {
	if !strings.EqualFold(strings.TrimSpace(user.Status), models.UserStatusActive) {
		status := strings.TrimSpace(user.Status)
		if status == "" {
			status = "inactive"
		}
		return accountInactiveError(status)
	}
	return nil
}

// channelAllowed treats an empty access channel as BOTH.
func channelAllowed(allowed, requested string) bool {
	allowed = strings.ToUpper(strings.TrimSpace(allowed))
	if allowed == "" || allowed == models.ChannelBoth {
		return true
	}
	return allowed == requested
}
