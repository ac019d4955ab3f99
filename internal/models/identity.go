package models

import (
	"strings"
	"time"
)

// Canonical role names. Role rows are normalised into one of these.
const (
	RoleStudent     = "student"
	RoleTeacher     = "teacher"
	RoleAdmin       = "admin"
	RoleExamOfficer = "exam_officer"
	RoleFaculty     = "faculty"
)

// NormalizeRole maps a stored role name onto the canonical enumeration
// ("Exam Officer" and "exam-officer" both become exam_officer).
func NormalizeRole(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}

// IsReviewerRole reports whether a role may advance complaint statuses.
func IsReviewerRole(role string) bool {
	switch role {
	case RoleTeacher, RoleAdmin, RoleExamOfficer, RoleFaculty:
		return true
	}
	return false
}

// IsUnscopedRole reports whether a role sees every complaint.
func IsUnscopedRole(role string) bool {
	return role == RoleAdmin || role == RoleExamOfficer
}

// Access channels a session can be issued for.
const (
	ChannelApp  = "APP"
	ChannelWeb  = "WEB"
	ChannelBoth = "BOTH"
)

// UserStatusActive is the only status allowed to sign in.
const UserStatusActive = "active"

// Role groups users and owns their dashboard, modules and permissions.
type Role struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	DashboardKey   string    `gorm:"size:64" json:"dashboard_key"`
	DashboardTitle string    `gorm:"size:128" json:"dashboard_title"`
	DashboardRoute string    `gorm:"size:255" json:"dashboard_route"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Module is a navigable feature area that can be enabled per role.
type Module struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:64;uniqueIndex;not null" json:"key"`
	Title     string    `gorm:"size:128;not null" json:"title"`
	Route     string    `gorm:"size:255" json:"route"`
	Icon      string    `gorm:"size:64" json:"icon"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleModule links a module to a role with a display order.
type RoleModule struct {
	RoleID    uint   `gorm:"primaryKey" json:"role_id"`
	ModuleID  uint   `gorm:"primaryKey" json:"module_id"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
	Module    Module `gorm:"foreignKey:ModuleID" json:"module"`
}

// RolePermission grants a flat permission key to a role.
type RolePermission struct {
	RoleID        uint   `gorm:"primaryKey" json:"role_id"`
	PermissionKey string `gorm:"primaryKey;size:128" json:"permission_key"`
}

// User is an account able to authenticate against the API.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	SecretHash    string    `gorm:"size:255;not null" json:"-"`
	RoleID        uint      `gorm:"index;not null" json:"role_id"`
	Role          Role      `gorm:"foreignKey:RoleID" json:"role"`
	Status        string    `gorm:"size:32;not null;default:active" json:"status"`
	AccessChannel string    `gorm:"size:8" json:"access_channel"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AccessSession is a live bearer token. At most one exists per user and channel.
type AccessSession struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_access_sessions_user_channel" json:"user_id"`
	Channel   string    `gorm:"size:8;not null;uniqueIndex:idx_access_sessions_user_channel" json:"channel"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
