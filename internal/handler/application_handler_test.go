package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/projectdesk/review-api/internal/dto"
	"github.com/projectdesk/review-api/internal/handler"
	"github.com/projectdesk/review-api/internal/service"
)

type mockApplicationService struct {
	lastActor   service.Actor
	lastID      uint
	lastCreate  dto.ApplicationCreateRequest
	lastUpdate  dto.ApplicationUpdateRequest
	response    dto.ApplicationResponse
	listItems   []dto.ApplicationResponse
	analysis    dto.RiskAnalysisResponse
	err         error
	deleteCalls int
}

func (m *mockApplicationService) Create(_ context.Context, actor service.Actor, payload dto.ApplicationCreateRequest) (dto.ApplicationResponse, error) {
	m.lastActor = actor
	m.lastCreate = payload
	return m.response, m.err
}

func (m *mockApplicationService) Get(_ context.Context, id uint, actor service.Actor) (dto.ApplicationResponse, error) {
	m.lastID = id
	m.lastActor = actor
	return m.response, m.err
}

func (m *mockApplicationService) List(_ context.Context, actor service.Actor, _ dto.ApplicationFilter) (dto.ApplicationListResponse, error) {
	m.lastActor = actor
	return dto.ApplicationListResponse{Items: m.listItems, Pagination: dto.PaginationMeta{TotalItems: int64(len(m.listItems))}}, m.err
}

func (m *mockApplicationService) EditFields(_ context.Context, id uint, actor service.Actor, payload dto.ApplicationUpdateRequest) (dto.ApplicationResponse, error) {
	m.lastID = id
	m.lastActor = actor
	m.lastUpdate = payload
	return m.response, m.err
}

func (m *mockApplicationService) Delete(_ context.Context, id uint, actor service.Actor) error {
	m.lastID = id
	m.lastActor = actor
	m.deleteCalls++
	return m.err
}

func (m *mockApplicationService) RecomputeScore(_ context.Context, id uint, actor service.Actor) (dto.ApplicationResponse, dto.RiskAnalysisResponse, error) {
	m.lastID = id
	m.lastActor = actor
	return m.response, m.analysis, m.err
}

func (m *mockApplicationService) RiskAnalysis(_ context.Context, id uint, actor service.Actor) (dto.RiskAnalysisResponse, error) {
	m.lastID = id
	m.lastActor = actor
	return m.analysis, m.err
}

func (m *mockApplicationService) AttachDocument(_ context.Context, id uint, actor service.Actor, _ *multipart.FileHeader) (dto.ApplicationResponse, error) {
	m.lastID = id
	m.lastActor = actor
	return m.response, m.err
}

type mockAuditService struct {
	trail dto.AuditTrailResponse
	err   error
}

func (m *mockAuditService) Record(_ context.Context, _ service.AuditEntry) (dto.AuditEntryResponse, error) {
	return dto.AuditEntryResponse{}, m.err
}

func (m *mockAuditService) ListForApplication(_ context.Context, applicationID uint) (dto.AuditTrailResponse, error) {
	if m.err != nil {
		return dto.AuditTrailResponse{}, m.err
	}
	m.trail.ApplicationID = applicationID
	return m.trail, nil
}

func newApplicationApp(svc service.ApplicationService, audits service.AuditService) *fiber.App {
	logger := zerolog.New(io.Discard)
	app := fiber.New()
	group := app.Group("/api/v1/applications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "user")
		return c.Next()
	})
	handler.NewApplicationHandler(svc, audits, logger).Register(group)
	return app
}

func TestApplicationHandler_CreateSuccess(t *testing.T) {
	svc := &mockApplicationService{response: dto.ApplicationResponse{ID: 1, Status: "PENDING", RiskScore: 18}}
	app := newApplicationApp(svc, &mockAuditService{})

	payload := dto.ApplicationCreateRequest{
		Title:         "Billing Gateway Rework",
		Description:   "Replace the legacy gateway with a maintained one.",
		TechnicalDesc: "A straightforward rewrite of the billing pages with no unusual moving parts at all.",
		ProjectType:   "WEB_DEVELOPMENT",
		Duration:      10,
		Cost:          3000,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool                    `json:"success"`
		Data    dto.ApplicationResponse `json:"data"`
		Message string                  `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "application submitted", response.Message)
	require.Equal(t, uint(1), response.Data.ID)
	require.Equal(t, uint(7), svc.lastActor.ID)
	require.Equal(t, "user", svc.lastActor.Role)
	require.Equal(t, payload.Title, svc.lastCreate.Title)
}

func TestApplicationHandler_GetInvalidID(t *testing.T) {
	app := newApplicationApp(&mockApplicationService{}, &mockAuditService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestApplicationHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrApplicationNotFound, statusCode: fiber.StatusNotFound},
		{name: "forbidden", err: service.ErrNotAuthorized, statusCode: fiber.StatusForbidden},
		{name: "empty edit", err: service.ErrNoEditableFields, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockApplicationService{err: tc.err}
			app := newApplicationApp(svc, &mockAuditService{})

			body, err := json.Marshal(map[string]string{"title": "Renamed"})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/applications/5", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
			require.Equal(t, uint(5), svc.lastID)
		})
	}
}

func TestApplicationHandler_Delete(t *testing.T) {
	svc := &mockApplicationService{}
	app := newApplicationApp(svc, &mockAuditService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/applications/3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.deleteCalls)
	require.Equal(t, uint(3), svc.lastID)
}

func TestApplicationHandler_RecomputeScore(t *testing.T) {
	oldScore := 18
	svc := &mockApplicationService{
		response: dto.ApplicationResponse{ID: 5, Status: "PENDING"},
		analysis: dto.RiskAnalysisResponse{OldScore: &oldScore, Score: 48},
	}
	app := newApplicationApp(svc, &mockAuditService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications/5/score", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                     `json:"success"`
		Data    dto.RiskAnalysisResponse `json:"data"`
		Meta    map[string]interface{}   `json:"meta"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, 48, response.Data.Score)
	require.NotNil(t, response.Data.OldScore)
	require.Equal(t, 18, *response.Data.OldScore)
	require.Equal(t, float64(5), response.Meta["application_id"])
}

func TestApplicationHandler_AuditTrail(t *testing.T) {
	audits := &mockAuditService{trail: dto.AuditTrailResponse{Total: 2, Entries: []dto.AuditEntryResponse{{Action: "STATUS_CHANGED"}, {Action: "CREATED"}}}}
	app := newApplicationApp(&mockApplicationService{response: dto.ApplicationResponse{ID: 9}}, audits)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/9/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.AuditTrailResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, uint(9), response.Data.ApplicationID)
	require.Equal(t, int64(2), response.Data.Total)
	require.Equal(t, "STATUS_CHANGED", response.Data.Entries[0].Action)
}

func TestApplicationHandler_AuditTrailHonoursOwnership(t *testing.T) {
	app := newApplicationApp(&mockApplicationService{err: service.ErrNotAuthorized}, &mockAuditService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/9/audit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
