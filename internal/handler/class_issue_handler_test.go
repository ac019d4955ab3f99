package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/handler"
	"github.com/noah-isme/campus-appeals-api/internal/service"
)

type stubClassIssueService struct {
	err       error
	submitted dto.ClassIssueSubmitRequest
	tracked   uint
}

func (s *stubClassIssueService) Types(context.Context) ([]dto.IssueTypeResponse, error) {
	return []dto.IssueTypeResponse{{ID: 1, Name: "Noise"}}, s.err
}

func (s *stubClassIssueService) MyClasses(context.Context, service.Actor) ([]dto.ClassroomResponse, error) {
	return []dto.ClassroomResponse{{ID: 1}}, s.err
}

func (s *stubClassIssueService) Submit(_ context.Context, _ service.Actor, req dto.ClassIssueSubmitRequest) (dto.ClassIssueResponse, error) {
	s.submitted = req
	return dto.ClassIssueResponse{ID: 8, Status: "Pending"}, s.err
}

func (s *stubClassIssueService) List(context.Context, service.Actor, dto.ListQuery) ([]dto.ClassIssueResponse, error) {
	return []dto.ClassIssueResponse{{ID: 8}, {ID: 9}}, s.err
}

func (s *stubClassIssueService) Track(_ context.Context, _ service.Actor, id uint) (dto.ClassIssueTrackingResponse, error) {
	s.tracked = id
	return dto.ClassIssueTrackingResponse{}, s.err
}

func (s *stubClassIssueService) UpdateStatus(context.Context, service.Actor, dto.StatusUpdateRequest) (dto.StatusEntryResponse, error) {
	return dto.StatusEntryResponse{ID: 1}, s.err
}

func classIssueApp(svc service.ClassIssueService, role string) *fiber.App {
	app := fiber.New()
	handler.NewClassIssueHandler(svc, discardLogger).Register(app.Group("/api/v1/class-issues", identity(2, role)))
	return app
}

func TestClassIssueHandler_Submit(t *testing.T) {
	svc := &stubClassIssueService{}
	resp := doJSON(t, classIssueApp(svc, "student"), http.MethodPost, "/api/v1/class-issues/submit", map[string]interface{}{
		"issue_type_id": 1, "description": "Fan broken", "class_id": 4,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(1), svc.submitted.IssueTypeID)
	require.NotNil(t, svc.submitted.ClassID)
	require.Equal(t, uint(4), *svc.submitted.ClassID)

	resp = doJSON(t, classIssueApp(&stubClassIssueService{err: service.ErrNotClassLeader}, "student"), http.MethodPost, "/api/v1/class-issues/submit", map[string]interface{}{"issue_type_id": 1})
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestClassIssueHandler_ListIncludesCount(t *testing.T) {
	resp := doJSON(t, classIssueApp(&stubClassIssueService{}, "teacher"), http.MethodGet, "/api/v1/class-issues/my-issues", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []dto.ClassIssueResponse `json:"data"`
		Meta map[string]int           `json:"meta"`
	}
	decodeResponse(t, resp, &body)
	require.Len(t, body.Data, 2)
	require.Equal(t, 2, body.Meta["count"])
}

func TestClassIssueHandler_Tracking(t *testing.T) {
	svc := &stubClassIssueService{}
	resp := doJSON(t, classIssueApp(svc, "student"), http.MethodGet, "/api/v1/class-issues/tracking/8", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(8), svc.tracked)

	resp = doJSON(t, classIssueApp(svc, "student"), http.MethodGet, "/api/v1/class-issues/tracking/abc", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, classIssueApp(&stubClassIssueService{err: service.ErrOutsideScope}, "student"), http.MethodGet, "/api/v1/class-issues/tracking/8", nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
