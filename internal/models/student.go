package models

import "time"

// Student holds the academic profile attached to a student user account.
type Student struct {
	UserID    uint      `gorm:"primaryKey" json:"user_id"`
	StudentNo string    `gorm:"size:64;uniqueIndex;not null" json:"student_no"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Classroom is a teaching group students enroll in.
type Classroom struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ClsNo        string    `gorm:"size:64;uniqueIndex;not null" json:"cls_no"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	AcademicYear string    `gorm:"size:32" json:"academic_year"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ClassEnrollment records a student's membership of a classroom.
type ClassEnrollment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClassroomID uint      `gorm:"not null;uniqueIndex:idx_enrollment_class_user" json:"classroom_id"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_enrollment_class_user" json:"user_id"`
	Classroom   Classroom `gorm:"foreignKey:ClassroomID" json:"classroom"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassLeader marks a student as the leader of a classroom.
type ClassLeader struct {
	ClassroomID uint      `gorm:"primaryKey" json:"classroom_id"`
	UserID      uint      `gorm:"primaryKey" json:"user_id"`
	Classroom   Classroom `gorm:"foreignKey:ClassroomID" json:"classroom"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClassTeacher assigns a teacher to a classroom.
type ClassTeacher struct {
	ClassroomID uint      `gorm:"primaryKey" json:"classroom_id"`
	UserID      uint      `gorm:"primaryKey" json:"user_id"`
	Classroom   Classroom `gorm:"foreignKey:ClassroomID" json:"classroom"`
	CreatedAt   time.Time `json:"created_at"`
}

// Subject is a course taught across classrooms.
type Subject struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SubjectClass is a subject as taught to one classroom.
type SubjectClass struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubjectID     uint      `gorm:"not null;index" json:"subject_id"`
	ClassroomID   uint      `gorm:"not null;index" json:"classroom_id"`
	TeacherUserID *uint     `gorm:"index" json:"teacher_user_id"`
	Subject       Subject   `gorm:"foreignKey:SubjectID" json:"subject"`
	Classroom     Classroom `gorm:"foreignKey:ClassroomID" json:"classroom"`
	CreatedAt     time.Time `json:"created_at"`
}
