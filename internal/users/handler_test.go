package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/shared/server/middleware"
)

func TestMeReturnsRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := NewMemoryRepo()
	_ = repo.Upsert(context.Background(), User{ID: "staff-1", Email: "staff@example.edu", FullName: "Staff"})
	_ = repo.SetRole(context.Background(), "staff-1", RoleElevated, true)

	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(NewService(repo)).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Actor-Id", "staff-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["role"] != RoleElevated {
		t.Fatalf("expected elevated role, got %v", body["role"])
	}
}

func TestMeUnknownUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(NewService(NewMemoryRepo())).RegisterRoutes(r.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Actor-Id", "ghost")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChangeRoleRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	repo := NewMemoryRepo()
	_ = repo.Upsert(ctx, User{ID: "staff-1", Email: "staff@example.edu"})
	_ = repo.SetRole(ctx, "staff-1", RoleElevated, true)
	_ = repo.Upsert(ctx, User{ID: "student-1", Email: "s1@example.edu"})
	_ = repo.Upsert(ctx, User{ID: "student-2", Email: "s2@example.edu"})

	r := gin.New()
	r.Use(middleware.Auth("dev"))
	NewHandler(NewService(repo)).RegisterRoutes(r.Group("/api/v1"))

	patch := func(actor, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/"+target+"/role", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-Id", actor)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := patch("student-1", "student-2", `{"role":"elevated","active":true}`); rec.Code != http.StatusForbidden {
		t.Fatalf("standard caller: expected 403, got %d", rec.Code)
	}
	if rec := patch("staff-1", "student-2", `{"role":"elevated"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing active: expected 400, got %d", rec.Code)
	}
	if rec := patch("staff-1", "staff-1", `{"role":"standard","active":true}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("self demotion: expected 400, got %d", rec.Code)
	}
	if rec := patch("staff-1", "ghost", `{"role":"elevated","active":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown target: expected 404, got %d", rec.Code)
	}

	rec := patch("staff-1", "student-2", `{"role":"elevated","active":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["role"] != RoleElevated || body["isActive"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	got, _ := repo.GetByID(ctx, "student-2")
	if got.Role != RoleElevated {
		t.Fatalf("role not persisted: %+v", got)
	}
}
