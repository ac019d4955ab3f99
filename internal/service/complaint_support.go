package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/models"
	"github.com/noah-isme/campus-appeals-api/internal/repository"
)

// ListBounds caps listing page sizes.
type ListBounds struct {
	Default int
	Max     int
}

func (b ListBounds) page(query dto.ListQuery) repository.Page {
	limit := query.Limit
	if limit <= 0 {
		limit = b.Default
	}
	if limit <= 0 {
		limit = 50
	}
	if b.Max > 0 && limit > b.Max {
		limit = b.Max
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

// reviewerAssigner routes new complaints to the first active user of a role.
type reviewerAssigner struct {
	users       repository.UserRepository
	assignments repository.ComplaintAssignmentRepository
	role        string
	logger      zerolog.Logger
}

// assign is a no-op when nobody holds the reviewer role.
func (a reviewerAssigner) assign(ctx context.Context, complaintType models.ComplaintType, complaintID uint) error {
	if a.users == nil || a.assignments == nil || a.role == "" {
		return nil
	}

	reviewer, err := a.users.FirstActiveByRole(ctx, models.NormalizeRole(a.role))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.logger.Debug().Str("role", a.role).Msg("no reviewer available for auto-assignment")
			return nil
		}
		return err
	}

	return a.assignments.Create(ctx, &models.ComplaintAssignment{
		ComplaintType: complaintType,
		ComplaintID:   complaintID,
		AssigneeID:    reviewer.ID,
		Status:        models.StatusPending,
	})
}

// sanitizeText strips markup and returns plain text. Escaping happens on output.
func sanitizeText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

func notFoundAs(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
