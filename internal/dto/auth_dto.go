package dto

import (
	"time"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=128"`
	Secret     string `json:"secret" validate:"required,max=128"`
	Channel    string `json:"channel" validate:"required,oneof=APP WEB"`
}

// DashboardDescriptor points a client at the landing screen for a role.
type DashboardDescriptor struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Route string `json:"route"`
}

// ModuleResponse is one navigable module enabled for the caller's role.
type ModuleResponse struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Route string `json:"route"`
	Icon  string `json:"icon,omitempty"`
}

// NewModuleResponseSlice converts module models into DTOs.
func NewModuleResponseSlice(modules []models.Module) []ModuleResponse {
	out := make([]ModuleResponse, 0, len(modules))
	for _, module := range modules {
		out = append(out, ModuleResponse{
			Key:   module.Key,
			Title: module.Title,
			Route: module.Route,
			Icon:  module.Icon,
		})
	}
	return out
}

// RBACPayload bundles what the Role/Permission provider returns for a role.
type RBACPayload struct {
	Dashboard   DashboardDescriptor `json:"dashboard"`
	Modules     []ModuleResponse    `json:"modules"`
	Permissions []string            `json:"permissions"`
}

// StudentSummary is the academic part of a student's profile.
type StudentSummary struct {
	StudentNo string             `json:"student_no"`
	Name      string             `json:"name"`
	Email     string             `json:"email,omitempty"`
	Classroom *ClassroomResponse `json:"classroom,omitempty"`
}

// ProfileResponse describes the authenticated account.
type ProfileResponse struct {
	ID       uint                `json:"id"`
	Username string              `json:"username"`
	FullName string              `json:"full_name"`
	Role     string              `json:"role"`
	Status   string              `json:"status"`
	IsLeader bool                `json:"is_leader"`
	Student  *StudentSummary     `json:"student,omitempty"`
	Classes  []ClassroomResponse `json:"classes,omitempty"`
}

// LoginResponse is returned after a successful sign-in.
type LoginResponse struct {
	Token       string              `json:"token"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Profile     ProfileResponse     `json:"profile"`
	Dashboard   DashboardDescriptor `json:"dashboard"`
	Modules     []ModuleResponse    `json:"modules"`
	Permissions []string            `json:"permissions"`
}

// MeResponse is returned by GET /me.
type MeResponse struct {
	Profile     ProfileResponse     `json:"profile"`
	Dashboard   DashboardDescriptor `json:"dashboard"`
	Modules     []ModuleResponse    `json:"modules"`
	Permissions []string            `json:"permissions"`
}
