package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OtherCategoryKey is the normalised name of the catch-all campus category.
const OtherCategoryKey = "other"

// CategoryKey normalises a category name for case-insensitive uniqueness.
func CategoryKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CampusIssueType is a campus-environment category. NameKey is unique.
type CampusIssueType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	NameKey   string    `gorm:"size:255;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeSave keeps the normalised key in step with the display name.
func (t *CampusIssueType) BeforeSave(tx *gorm.DB) error {
	t.Name = strings.Join(strings.Fields(t.Name), " ")
	t.NameKey = CategoryKey(t.Name)
	return nil
}

// IsOther reports whether the type is the generic catch-all bucket.
func (t CampusIssueType) IsOther() bool {
	return t.NameKey == OtherCategoryKey || CategoryKey(t.Name) == OtherCategoryKey
}

// CampusIssue is a campus-environment complaint filed by a student.
type CampusIssue struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	IssueTypeID uint            `gorm:"not null;index" json:"issue_type_id"`
	StudentID   uint            `gorm:"not null;index" json:"student_id"`
	Title       string          `gorm:"size:255" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	ImagesRaw   datatypes.JSON  `gorm:"column:images" json:"-"`
	IssueType   CampusIssueType `gorm:"foreignKey:IssueTypeID" json:"issue_type"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	Images      []string        `gorm:"-" json:"images"`
}

// BeforeSave encodes the image path list as JSON.
func (c *CampusIssue) BeforeSave(tx *gorm.DB) error {
	raw, err := encodeImages(c.Images)
	if err != nil {
		return err
	}
	c.ImagesRaw = raw
	return nil
}

// AfterFind hydrates the image path list.
func (c *CampusIssue) AfterFind(tx *gorm.DB) error {
	c.Images = DecodeImages(c.ImagesRaw)
	return nil
}

func encodeImages(paths []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(paths))
	for _, path := range paths {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

// DecodeImages parses a stored image list, tolerating empty or malformed values.
func DecodeImages(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return []string{}
	}
	if paths == nil {
		return []string{}
	}
	return paths
}

// SupportVote is a student's endorsement of a campus complaint.
type SupportVote struct {
	CampusIssueID uint      `gorm:"primaryKey" json:"campus_issue_id"`
	StudentID     uint      `gorm:"primaryKey" json:"student_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CampusIssueSummary is a listing row with status and support information.
type CampusIssueSummary struct {
	ID            uint           `json:"id"`
	IssueTypeID   uint           `json:"issue_type_id"`
	IssueTypeName string         `json:"issue_type_name"`
	StudentID     uint           `json:"student_id"`
	StudentName   string         `json:"student_name"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ImagesRaw     datatypes.JSON `gorm:"column:images" json:"-"`
	Status        string         `json:"status"`
	SupportCount  int64          `json:"support_count"`
	HasSupported  bool           `json:"has_supported"`
	CreatedAt     time.Time      `json:"created_at"`
}
