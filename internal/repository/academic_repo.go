package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/noah-isme/campus-appeals-api/internal/models"
)

// AcademicRepository answers class membership questions used for eligibility and scoping.
type AcademicRepository interface {
	FindStudent(ctx context.Context, userID uint) (models.Student, error)
	LedClassrooms(ctx context.Context, userID uint) ([]models.Classroom, error)
	EnrolledClassroomIDs(ctx context.Context, userID uint) ([]uint, error)
	TaughtClassrooms(ctx context.Context, userID uint) ([]models.Classroom, error)
	LatestEnrollment(ctx context.Context, userID uint) (models.ClassEnrollment, error)
	SubjectClassesForClassroom(ctx context.Context, classroomID uint) ([]models.SubjectClass, error)
	FindSubjectClasses(ctx context.Context, ids []uint) ([]models.SubjectClass, error)
}

type academicRepository struct {
	db *gorm.DB
}

// NewAcademicRepository constructs a GORM-backed academic repository.
func NewAcademicRepository(db *gorm.DB) AcademicRepository {
	return &academicRepository{db: db}
}

func (r *academicRepository) FindStudent(ctx context.Context, userID uint) (models.Student, error) {
	var student models.Student
	err := conn(ctx, r.db).Where("user_id = ?", userID).First(&student).Error
	return student, err
}

func (r *academicRepository) LedClassrooms(ctx context.Context, userID uint) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := conn(ctx, r.db).
		Joins("JOIN class_leaders cl ON cl.classroom_id = classrooms.id").
		Where("cl.user_id = ?", userID).
		Order("classrooms.name ASC").
		Find(&classrooms).Error; err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *academicRepository) EnrolledClassroomIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := conn(ctx, r.db).
		Model(&models.ClassEnrollment{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("classroom_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// TaughtClassrooms merges homeroom assignments with classrooms the user teaches a subject to.
func (r *academicRepository) TaughtClassrooms(ctx context.Context, userID uint) ([]models.Classroom, error) {
	var homeroom []models.Classroom
	if err := conn(ctx, r.db).
		Joins("JOIN class_teachers ct ON ct.classroom_id = classrooms.id").
		Where("ct.user_id = ?", userID).
		Find(&homeroom).Error; err != nil {
		return nil, err
	}

	var subjects []models.Classroom
	if err := conn(ctx, r.db).
		Joins("JOIN subject_classes sc ON sc.classroom_id = classrooms.id").
		Where("sc.teacher_user_id = ?", userID).
		Find(&subjects).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(homeroom)+len(subjects))
	merged := make([]models.Classroom, 0, len(homeroom)+len(subjects))
	for _, classroom := range append(homeroom, subjects...) {
		if _, ok := seen[classroom.ID]; ok {
			continue
		}
		seen[classroom.ID] = struct{}{}
		merged = append(merged, classroom)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Name < merged[j].Name })
	return merged, nil
}

func (r *academicRepository) LatestEnrollment(ctx context.Context, userID uint) (models.ClassEnrollment, error) {
	var enrollment models.ClassEnrollment
	err := conn(ctx, r.db).
		Preload("Classroom").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&enrollment).Error
	return enrollment, err
}

func (r *academicRepository) SubjectClassesForClassroom(ctx context.Context, classroomID uint) ([]models.SubjectClass, error) {
	var subjectClasses []models.SubjectClass
	if err := conn(ctx, r.db).
		Preload("Subject").
		Preload("Classroom").
		Where("classroom_id = ?", classroomID).
		Order("id ASC").
		Find(&subjectClasses).Error; err != nil {
		return nil, err
	}
	return subjectClasses, nil
}

func (r *academicRepository) FindSubjectClasses(ctx context.Context, ids []uint) ([]models.SubjectClass, error) {
	if len(ids) == 0 {
		return []models.SubjectClass{}, nil
	}
	var subjectClasses []models.SubjectClass
	if err := conn(ctx, r.db).
		Preload("Subject").
		Where("id IN ?", ids).
		Find(&subjectClasses).Error; err != nil {
		return nil, err
	}
	return subjectClasses, nil
}
