package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/povlabs/povguard"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	svc, err := povguard.NewService(povguard.Config{
		DB:                db,
		AutoMigrate:       true,
		SeedDefaultMatrix: true,
	})
	if err != nil {
		t.Fatalf("failed to init service: %v", err)
	}

	app := fiber.New()
	Setup(app, svc)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, userID, role, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
		req.Header.Set("X-User-Role", role)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestRoutesRejectAnonymousRequests(t *testing.T) {
	app := setupTestApp(t)
	resp := doRequest(t, app, http.MethodGet, "/api/v1/permissions/", "", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestListGrantsForbiddenForUsers(t *testing.T) {
	app := setupTestApp(t)
	resp := doRequest(t, app, http.MethodGet, "/api/v1/permissions/", "u1", "USER", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "FORBIDDEN" {
		t.Errorf("expected code FORBIDDEN, got %q", body.Code)
	}
}

func TestListGrantsAllowedForAdmins(t *testing.T) {
	app := setupTestApp(t)
	resp := doRequest(t, app, http.MethodGet, "/api/v1/permissions/", "a1", "ADMIN", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Grants []povguard.PermissionGrant `json:"grants"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Grants) == 0 {
		t.Error("expected seeded grants in response")
	}
}

func TestUpsertGrantBlocksAdminEscalation(t *testing.T) {
	app := setupTestApp(t)
	payload := `{"role":"ADMIN","resourceType":"AUDIT","action":"VIEW","enabled":true}`
	resp := doRequest(t, app, http.MethodPut, "/api/v1/permissions/", "a1", "ADMIN", payload)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}

	resp = doRequest(t, app, http.MethodPut, "/api/v1/permissions/", "root", "SUPER_ADMIN", payload)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for super admin, got %d", resp.StatusCode)
	}
}

func TestUpsertGrantRejectsUnknownEnum(t *testing.T) {
	app := setupTestApp(t)
	payload := `{"role":"WIZARD","resourceType":"AUDIT","action":"VIEW","enabled":true}`
	resp := doRequest(t, app, http.MethodPut, "/api/v1/permissions/", "root", "SUPER_ADMIN", payload)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}
