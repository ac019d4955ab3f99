package handler_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/handler"
	"github.com/noah-isme/campus-appeals-api/internal/service"
)

type stubCampusService struct {
	err        error
	submitted  dto.CampusSubmitRequest
	imageCount int
	query      dto.ListQuery
	supported  dto.SupportRequest
	image      string
}

func (s *stubCampusService) Types(context.Context) ([]dto.IssueTypeResponse, error) {
	return []dto.IssueTypeResponse{{ID: 1, Name: "Other"}}, s.err
}

func (s *stubCampusService) Submit(_ context.Context, _ service.Actor, req dto.CampusSubmitRequest, images []*multipart.FileHeader) (dto.CampusIssueResponse, error) {
	s.submitted = req
	s.imageCount = len(images)
	if s.err != nil {
		return dto.CampusIssueResponse{}, s.err
	}
	return dto.CampusIssueResponse{ID: 4, Title: req.Title, Status: "Pending"}, nil
}

func (s *stubCampusService) List(_ context.Context, _ service.Actor, query dto.ListQuery) ([]dto.CampusIssueResponse, error) {
	s.query = query
	return []dto.CampusIssueResponse{{ID: 4}}, s.err
}

func (s *stubCampusService) Track(_ context.Context, _ service.Actor, id uint) (dto.CampusTrackingResponse, error) {
	return dto.CampusTrackingResponse{}, s.err
}

func (s *stubCampusService) ToggleSupport(_ context.Context, _ service.Actor, req dto.SupportRequest) (dto.SupportResponse, error) {
	s.supported = req
	return dto.SupportResponse{ComplaintID: req.ComplaintID, Supported: true}, s.err
}

func (s *stubCampusService) UpdateStatus(_ context.Context, actor service.Actor, req dto.StatusUpdateRequest) (dto.StatusEntryResponse, error) {
	return dto.StatusEntryResponse{ID: 1, NewStatus: req.Status, ChangedBy: actor.ID}, s.err
}

func (s *stubCampusService) OpenImage(_ context.Context, filename string) (io.ReadCloser, string, error) {
	s.image = filename
	if s.err != nil {
		return nil, "", s.err
	}
	return io.NopCloser(strings.NewReader("png-bytes")), "image/png", nil
}

func campusApp(svc service.CampusService, role string) *fiber.App {
	app := fiber.New()
	handler.NewCampusHandler(svc, discardLogger).Register(app.Group("/api/v1/campus-env", identity(3, role)))
	return app
}

func TestCampusHandler_SubmitMultipart(t *testing.T) {
	svc := &stubCampusService{}
	body, contentType := multipartBody(t, map[string]string{
		"issue_type_id": "2",
		"title":         "Broken tap",
		"description":   "Water leaking in block C",
	}, map[string][]byte{"tap.png": []byte("x")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campus-env/submit", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := campusApp(svc, "student").Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	require.Equal(t, uint(2), svc.submitted.IssueTypeID)
	require.Equal(t, "Broken tap", svc.submitted.Title)
	require.Equal(t, 1, svc.imageCount)
}

func TestCampusHandler_SubmitErrors(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		err    error
		status int
	}{
		{name: "duplicate category", role: "student", err: service.ErrActiveComplaintExists, status: fiber.StatusConflict},
		{name: "bad image", role: "student", err: service.ErrImageTypeNotAllowed, status: fiber.StatusUnprocessableEntity},
		{name: "unknown type", role: "student", err: service.ErrIssueTypeNotFound, status: fiber.StatusNotFound},
		{name: "teacher", role: "teacher", status: fiber.StatusForbidden},
		{name: "unexpected", role: "student", err: errors.New("db down"), status: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartBody(t, map[string]string{"issue_type_id": "2", "description": "x"}, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/campus-env/submit", body)
			req.Header.Set("Content-Type", contentType)
			resp, err := campusApp(&stubCampusService{err: tc.err}, tc.role).Test(req, -1)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var env envelope
			decodeResponse(t, resp, &env)
			require.False(t, env.Success)
			require.NotContains(t, env.Message, "db down")
		})
	}
}

func TestCampusHandler_MyIssuesForcesMine(t *testing.T) {
	svc := &stubCampusService{}
	resp := doJSON(t, campusApp(svc, "student"), http.MethodGet, "/api/v1/campus-env/my-issues?limit=5", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.query.Mine)
	require.Equal(t, 5, svc.query.Limit)

	resp = doJSON(t, campusApp(svc, "teacher"), http.MethodGet, "/api/v1/campus-env/complaints?offset=10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.False(t, svc.query.Mine)
	require.Equal(t, 10, svc.query.Offset)
}

func TestCampusHandler_Support(t *testing.T) {
	svc := &stubCampusService{}
	resp := doJSON(t, campusApp(svc, "student"), http.MethodPost, "/api/v1/campus-env/support", map[string]uint{"complaint_id": 4})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(4), svc.supported.ComplaintID)

	var env envelope
	decodeResponse(t, resp, &env)
	require.Equal(t, "complaint supported", env.Message)
}

func TestCampusHandler_UpdateStatusRequiresReviewer(t *testing.T) {
	payload := map[string]interface{}{"id": 4, "status": "Resolved"}

	resp := doJSON(t, campusApp(&stubCampusService{}, "student"), http.MethodPost, "/api/v1/campus-env/update-status", payload)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, campusApp(&stubCampusService{}, "faculty"), http.MethodPost, "/api/v1/campus-env/update-status", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCampusHandler_ImageStreamsContent(t *testing.T) {
	svc := &stubCampusService{}
	resp := doJSON(t, campusApp(svc, "student"), http.MethodGet, "/api/v1/campus-env/image/abc.png", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.Equal(t, "abc.png", svc.image)

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(payload))

	resp = doJSON(t, campusApp(&stubCampusService{err: service.ErrImageNotFound}, "student"), http.MethodGet, "/api/v1/campus-env/image/missing.png", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCampusHandler_MalformedInputIsUnprocessable(t *testing.T) {
	svc := &stubCampusService{}
	app := campusApp(svc, "student")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/campus-env/support", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var env envelope
	decodeResponse(t, resp, &env)
	require.False(t, env.Success)
	require.Zero(t, svc.supported.ComplaintID)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/campus-env/complaints?limit=abc", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/campus-env/tracking/abc", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
