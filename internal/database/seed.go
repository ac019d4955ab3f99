package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// SeedReport counts the rows a seed run inserted. Rows that already existed
// are left alone and not counted.
type SeedReport struct {
	Roles       int
	Modules     int
	RoleModules int
	Permissions int
	IssueTypes  int
	Windows     int
}

type seedRole struct {
	name        string
	dashboard   [3]string
	modules     []string
	permissions []string
}

var defaultModules = []models.Module{
	{Key: "exam-appeals", Title: "Exam Appeals", Route: "/exam", Icon: "file-text", IsActive: true},
	{Key: "class-issues", Title: "Class Issues", Route: "/class-issues", Icon: "users", IsActive: true},
	{Key: "campus-env", Title: "Campus Environment", Route: "/campus-env", Icon: "map-pin", IsActive: true},
	{Key: "notifications", Title: "Notifications", Route: "/notifications", Icon: "bell", IsActive: true},
	{Key: "profile", Title: "Profile", Route: "/me", Icon: "user", IsActive: true},
}

var defaultRoles = []seedRole{
	{
		name:        models.RoleStudent,
		dashboard:   [3]string{"student", "Student Dashboard", "/student"},
		modules:     []string{"exam-appeals", "class-issues", "campus-env"},
		permissions: []string{"complaint.submit", "complaint.support", "complaint.track"},
	},
	{
		name:        models.RoleTeacher,
		dashboard:   [3]string{"teacher", "Teacher Dashboard", "/teacher"},
		modules:     []string{"class-issues", "campus-env", "notifications"},
		permissions: []string{"complaint.track", "complaint.review"},
	},
	{
		name:        models.RoleFaculty,
		dashboard:   [3]string{"faculty", "Faculty Dashboard", "/faculty"},
		modules:     []string{"campus-env", "class-issues", "notifications"},
		permissions: []string{"complaint.track", "complaint.review"},
	},
	{
		name:        models.RoleExamOfficer,
		dashboard:   [3]string{"exam_officer", "Exam Office", "/exam-office"},
		modules:     []string{"exam-appeals", "notifications", "profile"},
		permissions: []string{"complaint.track", "complaint.review", "exam.review"},
	},
	{
		name:        models.RoleAdmin,
		dashboard:   [3]string{"admin", "Administration", "/admin"},
		modules:     []string{"exam-appeals", "class-issues", "campus-env"},
		permissions: []string{"complaint.track", "complaint.review", "exam.review", "window.manage"},
	},
}

var defaultClassIssueTypes = []string{"Teaching Quality", "Schedule", "Facilities", "Other"}

var defaultCampusIssueTypes = []string{"Cleanliness", "Security", "Infrastructure", "Other"}

// Seed inserts the canonical roles, their modules and permissions, default
// issue categories including "Other", and a closed window for the default
// appeal type. Running it twice is harmless.
func Seed(ctx context.Context, db *gorm.DB) (SeedReport, error) {
	var report SeedReport
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moduleIDs := make(map[string]uint, len(defaultModules))
		for _, m := range defaultModules {
			module := m
			created, err := firstOrCreate(tx, &module, "key = ?", module.Key)
			if err != nil {
				return fmt.Errorf("seed module %s: %w", m.Key, err)
			}
			if created {
				report.Modules++
			}
			moduleIDs[module.Key] = module.ID
		}

		for _, r := range defaultRoles {
			role := models.Role{
				Name:           r.name,
				DashboardKey:   r.dashboard[0],
				DashboardTitle: r.dashboard[1],
				DashboardRoute: r.dashboard[2],
			}
			created, err := firstOrCreate(tx, &role, "name = ?", role.Name)
			if err != nil {
				return fmt.Errorf("seed role %s: %w", r.name, err)
			}
			if created {
				report.Roles++
			}

			for i, key := range r.modules {
				link := models.RoleModule{RoleID: role.ID, ModuleID: moduleIDs[key], SortOrder: len(r.modules) - i}
				res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&link)
				if res.Error != nil {
					return fmt.Errorf("seed module %s for role %s: %w", key, r.name, res.Error)
				}
				report.RoleModules += int(res.RowsAffected)
			}

			for _, key := range r.permissions {
				res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.RolePermission{RoleID: role.ID, PermissionKey: key})
				if res.Error != nil {
					return fmt.Errorf("seed permission %s for role %s: %w", key, r.name, res.Error)
				}
				report.Permissions += int(res.RowsAffected)
			}
		}

		for _, name := range defaultClassIssueTypes {
			issueType := models.ClassIssueType{Name: name, IsActive: true}
			created, err := firstOrCreate(tx, &issueType, "name = ?", name)
			if err != nil {
				return fmt.Errorf("seed class issue type %s: %w", name, err)
			}
			if created {
				report.IssueTypes++
			}
		}

		for _, name := range defaultCampusIssueTypes {
			category := models.CampusIssueType{Name: name}
			created, err := firstOrCreate(tx, &category, "name_key = ?", models.CategoryKey(name))
			if err != nil {
				return fmt.Errorf("seed campus issue type %s: %w", name, err)
			}
			if created {
				report.IssueTypes++
			}
		}

		window := models.AppealWindow{AppealType: models.DefaultAppealType, Status: models.WindowClosed}
		created, err := firstOrCreate(tx, &window, "appeal_type = ?", window.AppealType)
		if err != nil {
			return fmt.Errorf("seed appeal window: %w", err)
		}
		if created {
			report.Windows++
		}
		return nil
	})
	return report, err
}

func firstOrCreate(tx *gorm.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	res := tx.Where(query, args...).Limit(1).Find(dest)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Omit(clause.Associations).Create(dest).Error; err != nil {
		return false, err
	}
	return true, nil
}
