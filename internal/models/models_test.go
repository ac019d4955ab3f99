package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCategoryKeyNormalisesCaseAndSpacing(t *testing.T) {
	require.Equal(t, "broken chair", CategoryKey("  Broken   Chair "))
	require.Equal(t, CategoryKey("Noisy generator"), CategoryKey("noisy GENERATOR"))
}

func TestIsResolvedStatus(t *testing.T) {
	require.True(t, IsResolvedStatus("Resolved"))
	require.True(t, IsResolvedStatus(" resolved "))
	require.False(t, IsResolvedStatus("In Progress"))
}

func TestAppealWindowIsOpenAt(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	require.True(t, AppealWindow{Status: WindowOpen}.IsOpenAt(now))
	require.True(t, AppealWindow{Status: "open", OpensAt: &before, ClosesAt: &after}.IsOpenAt(now))
	require.False(t, AppealWindow{Status: WindowClosed}.IsOpenAt(now))
	require.False(t, AppealWindow{Status: WindowOpen, OpensAt: &after}.IsOpenAt(now))
	require.False(t, AppealWindow{Status: WindowOpen, ClosesAt: &before}.IsOpenAt(now))
}

func TestDecodeImagesToleratesBadInput(t *testing.T) {
	require.Equal(t, []string{}, DecodeImages(nil))
	require.Equal(t, []string{}, DecodeImages([]byte("not-json")))
	require.Equal(t, []string{"a.png", "b.jpg"}, DecodeImages([]byte(`["a.png","b.jpg"]`)))
}

func TestCampusIssueTypeIsOther(t *testing.T) {
	require.True(t, CampusIssueType{Name: "Other"}.IsOther())
	require.False(t, CampusIssueType{Name: "Lighting", NameKey: "lighting"}.IsOther())
}

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, RoleExamOfficer, NormalizeRole("Exam Officer"))
	require.Equal(t, RoleExamOfficer, NormalizeRole(" exam-officer "))
	require.Equal(t, RoleStudent, NormalizeRole("STUDENT"))
	require.True(t, IsUnscopedRole(NormalizeRole("Admin")))
	require.False(t, IsReviewerRole(RoleStudent))
}
