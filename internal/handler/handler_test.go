package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-appeals-api/internal/dto"
	"github.com/noah-isme/campus-appeals-api/internal/middleware"
	"github.com/noah-isme/campus-appeals-api/internal/service"
)

var discardLogger = zerolog.New(io.Discard)

// identity fakes what JWTProtected stores for an authenticated request.
func identity(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, userID)
		c.Locals(middleware.LocalUserRole, role)
		c.Locals(middleware.LocalSessionID, "session-test")
		c.Locals(middleware.LocalChannel, "WEB")
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

type stubAuthService struct {
	login    dto.LoginResponse
	err      error
	loggedIn dto.LoginRequest
	logout   service.Actor
}

func (s *stubAuthService) Login(_ context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	s.loggedIn = req
	return s.login, s.err
}

func (s *stubAuthService) Logout(_ context.Context, actor service.Actor) error {
	s.logout = actor
	return s.err
}

func (s *stubAuthService) Me(_ context.Context, actor service.Actor) (dto.MeResponse, error) {
	return dto.MeResponse{Profile: dto.ProfileResponse{ID: actor.ID, Role: actor.Role}}, s.err
}

func (s *stubAuthService) ValidateSession(_ context.Context, sessionID string, userID uint) (service.Actor, error) {
	return service.NewActor(userID, "student", sessionID, "WEB"), s.err
}
