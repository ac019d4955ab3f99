package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// Models lists every persisted model in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.Module{},
		&models.RoleModule{},
		&models.RolePermission{},
		&models.User{},
		&models.AccessSession{},
		&models.Student{},
		&models.Classroom{},
		&models.ClassEnrollment{},
		&models.ClassLeader{},
		&models.ClassTeacher{},
		&models.Subject{},
		&models.SubjectClass{},
		&models.StatusEntry{},
		&models.ComplaintAssignment{},
		&models.ClassIssueType{},
		&models.ClassIssue{},
		&models.CampusIssueType{},
		&models.CampusIssue{},
		&models.SupportVote{},
		&models.AppealWindow{},
		&models.ExamAppeal{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
