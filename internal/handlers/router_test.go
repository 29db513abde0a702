package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assetcatalog/backend/internal/config"
	"github.com/assetcatalog/backend/internal/models"
	"github.com/assetcatalog/backend/internal/services"
	"github.com/assetcatalog/backend/pkg/validation"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterGinValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.Migrate(db))

	cfg := config.New()
	cfg.Env = "test"
	cfg.BcryptCost = 4
	cfg.JWTSecret = "test-secret"
	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "admin12345"
	cfg.StatusTransitions = services.TransitionModePermissive
	cfg.APIUrl = "http://catalog.test"
	cfg.UploadMaxBytes = 1024

	require.NoError(t, services.NewAdminService(db, cfg).Seed(context.Background()))

	store, err := services.NewLocalStore(t.TempDir(), cfg.APIUrl+"/uploads")
	require.NoError(t, err)

	return &testServer{t: t, router: NewRouter(cfg, db, nil, store), db: db, cfg: cfg}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func fieldNames(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	var resp struct {
		Error  string                   `json:"error"`
		Fields []validation.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	names := make([]string, len(resp.Fields))
	for i, f := range resp.Fields {
		names[i] = f.Field
	}
	return names
}

func assetPayload() gin.H {
	return gin.H{
		"title":           "Payments SDK",
		"category":        "library",
		"overview":        "Client library for the internal payments API.",
		"features":        "Retries",
		"prerequisites":   "Go 1.22",
		"usage_guideline": "Import and call Charge.",
		"contact_point":   "owner@example.com",
		"github_url":      "https://github.com/example/payments-sdk",
	}
}

func updatePayload(version string) gin.H {
	p := assetPayload()
	p["version"] = version
	p["changes"] = "Added SSO"
	return p
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "asset_catalog_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "new@example.com", "name": "New Hire", "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "new@example.com", "name": "New Hire", "password": "password1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "bad", "name": "X", "password": "p"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.ElementsMatch(t, []string{"email", "name", "password"}, fieldNames(t, w))

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "new@example.com", "password": "wrong-pass1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "new@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode(t, w)
	access := tokens["access_token"].(string)
	refresh := tokens["refresh_token"].(string)
	assert.NotContains(t, w.Body.String(), `"password"`)

	w = s.do(http.MethodGet, "/api/v1/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EMPLOYEE", decode(t, w)["role"])

	w = s.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["access_token"])

	w = s.do(http.MethodPost, "/api/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssetLifecycleOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login("admin@example.com", "admin12345")
	owner := s.login("owner@example.com", services.SeedPassword)
	employee := s.login("employee@example.com", services.SeedPassword)

	w := s.do(http.MethodPost, "/api/v1/assets", "", assetPayload())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/assets", owner, assetPayload())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "DRAFT", created["status"])
	assert.Equal(t, "1.0.0", created["version"])
	assert.Contains(t, created["description"], "## Features\nRetries")

	// Drafts are invisible to anonymous callers.
	w = s.do(http.MethodGet, "/api/v1/assets/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodGet, "/api/v1/assets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"])

	w = s.do(http.MethodPatch, "/api/v1/assets/"+id, employee, updatePayload("1.1.0"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, "/api/v1/assets/"+id, owner, updatePayload("1.1"))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"version"}, fieldNames(t, w))

	w = s.do(http.MethodPatch, "/api/v1/assets/"+id, owner, updatePayload("1.1.0"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1.1.0", decode(t, w)["version"])

	w = s.do(http.MethodGet, "/api/v1/assets/"+id+"/versions", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Versions []models.AssetVersion `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Versions, 1)
	assert.Equal(t, "1.0.0", history.Versions[0].Version)
	assert.Equal(t, "Added SSO", history.Versions[0].Changes)

	w = s.do(http.MethodPatch, "/api/v1/admin/assets/"+id+"/status", owner, gin.H{"status": "PUBLISHED"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/admin/assets/"+id+"/status", "", gin.H{"status": "PUBLISHED"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/admin/assets/"+id+"/status", admin, gin.H{"status": "ARCHIVED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	w = s.do(http.MethodPatch, "/api/v1/admin/assets/"+id+"/status", admin, gin.H{"status": "PUBLISHED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PUBLISHED", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/api/v1/assets/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/assets?q=payments&category=all", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 20, list["limit"])

	w = s.do(http.MethodPost, "/api/v1/assets/"+id+"/request", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, "/api/v1/assets/"+id+"/request", employee, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "APPROVED", decode(t, w)["status"])

	w = s.do(http.MethodGet, "/api/v1/assets/"+id, employee, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["usage_count"])

	w = s.do(http.MethodDelete, "/api/v1/assets/"+id, employee, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/assets/"+id, owner, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodGet, "/api/v1/assets/"+id, owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssetValidationOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	owner := s.login("owner@example.com", services.SeedPassword)

	payload := assetPayload()
	payload["title"] = "x"
	payload["contact_point"] = "nobody"
	w := s.do(http.MethodPost, "/api/v1/assets", owner, payload)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.ElementsMatch(t, []string{"title", "contact_point"}, fieldNames(t, w))

	w = s.do(http.MethodPost, "/api/v1/assets", owner, `{"title":`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"body"}, fieldNames(t, w))

	w = s.do(http.MethodGet, "/api/v1/assets/not-a-uuid", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewsOverHTTP(t *testing.T) {
	s := setupTestServer(t)
	employee := s.login("employee@example.com", services.SeedPassword)

	var seed models.Asset
	require.NoError(t, s.db.Where("title = ?", services.SeedAssetTitle).First(&seed).Error)
	path := "/api/v1/assets/" + seed.ID.String() + "/reviews"

	for _, rating := range []int{0, 6} {
		w := s.do(http.MethodPost, path, employee, gin.H{"rating": rating})
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, []string{"rating"}, fieldNames(t, w))
	}
	w := s.do(http.MethodPost, path, employee, `{"rating":"five"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	for _, rating := range []int{1, 5} {
		w := s.do(http.MethodPost, path, employee, gin.H{"rating": rating, "comment": "solid"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = s.do(http.MethodPost, path, "", gin.H{"rating": 3})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, path, employee, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.EqualValues(t, 2, summary["count"])
	assert.EqualValues(t, 3, summary["average"])

	w = s.do(http.MethodPost, "/api/v1/assets/00000000-0000-0000-0000-000000000001/reviews", employee, gin.H{"rating": 3})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminEndpoints(t *testing.T) {
	s := setupTestServer(t)
	admin := s.login("admin@example.com", "admin12345")
	owner := s.login("owner@example.com", services.SeedPassword)

	w := s.do(http.MethodGet, "/api/v1/admin/assets?status=draft", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(http.MethodGet, "/api/v1/admin/assets?status=bogus", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/admin/assets", owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["assets_by_status"].(map[string]interface{})
	assert.EqualValues(t, 1, stats["DRAFT"])

	var employee models.User
	require.NoError(t, s.db.Where("email = ?", "employee@example.com").First(&employee).Error)

	w = s.do(http.MethodPut, "/api/v1/admin/users/"+employee.ID.String()+"/role", admin, gin.H{"role": "OWNER"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "OWNER", decode(t, w)["role"])

	w = s.do(http.MethodPut, "/api/v1/admin/users/"+employee.ID.String()+"/role", admin, gin.H{"role": "ROOT"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []string{"role"}, fieldNames(t, w))

	w = s.do(http.MethodPut, "/api/v1/admin/users/"+employee.ID.String()+"/role", owner, gin.H{"role": "ADMIN"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["total"])
}

func TestUploadAndAttach(t *testing.T) {
	s := setupTestServer(t)
	owner := s.login("owner@example.com", services.SeedPassword)

	upload := func(name string, content []byte, token string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("notes.txt", []byte("release notes"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = upload("too-big.bin", bytes.Repeat([]byte("x"), 2048), owner)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = upload("notes.txt", []byte("release notes"), owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var att services.AttachmentInput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &att))
	assert.Equal(t, "notes.txt", att.Name)
	assert.EqualValues(t, 13, att.Size)
	assert.True(t, strings.HasPrefix(att.Type, "text/plain"))

	u, err := url.Parse(att.URL)
	require.NoError(t, err)
	w = s.do(http.MethodGet, u.Path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "release notes", w.Body.String())

	payload := assetPayload()
	payload["attachments"] = []services.AttachmentInput{att}
	w = s.do(http.MethodPost, "/api/v1/assets", owner, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	attachments := decode(t, w)["attachments"].([]interface{})
	require.Len(t, attachments, 1)
	assert.Equal(t, att.URL, attachments[0].(map[string]interface{})["url"])
}
