package service

import "github.com/noah-isme/campus-appeals-api/internal/models"

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID        uint
	Role      string
	SessionID string
	Channel   string
}

// NewActor normalises the role into the canonical enumeration.
func NewActor(id uint, role, sessionID, channel string) Actor {
	return Actor{
		ID:        id,
		Role:      models.NormalizeRole(role),
		SessionID: sessionID,
		Channel:   channel,
	}
}

func (a Actor) IsStudent() bool { return a.Role == models.RoleStudent }

func (a Actor) IsTeacher() bool { return a.Role == models.RoleTeacher }

// Unscoped actors see every complaint.
func (a Actor) Unscoped() bool { return models.IsUnscopedRole(a.Role) }

func (a Actor) CanReview() bool { return models.IsReviewerRole(a.Role) }
