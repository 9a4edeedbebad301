package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "campusportal/docs"
	"campusportal/internal/auth"
	"campusportal/internal/cache"
	"campusportal/internal/config"
	"campusportal/internal/handler"
	"campusportal/internal/repository"
	"campusportal/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, rps float64) (*echo.Echo, *auth.JWTService) {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		CORSOrigins:  []string{"*"},
		RateLimitRPS: rps,
	}
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	var profiles *cache.Client
	authService, err := service.NewAuthService(repository.NewMemoryUserRepository(), jwtService, profiles, logger, bcrypt.MinCost)
	require.NoError(t, err)

	e := echo.New()
	Register(e, cfg, logger, jwtService, handler.NewAuthHandler(authService, logger))
	return e, jwtService
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_AuthScenario(t *testing.T) {
	e, jwtService := newTestServer(t, 0)

	rec := do(e, http.MethodPost, "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$")
	assert.NotContains(t, rec.Body.String(), "password")

	body := decode(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "a@x.com", user["email"])
	userID := user["id"].(string)

	claims, err := jwtService.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)

	rec = do(e, http.MethodPost, "/api/auth/register", `{"username":"bob","email":"a@x.com","password":"other"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists","code":"DUPLICATE_USER"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	token := body["token"].(string)
	assert.NotEmpty(t, token)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	wrong := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials","code":"INVALID_CREDENTIALS"}`, wrong.Body.String())

	unknown := do(e, http.MethodPost, "/api/auth/login", `{"email":"nobody@x.com","password":"secret123"}`, "")
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	rec = do(e, http.MethodGet, "/api/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"`+userID+`","username":"alice","email":"a@x.com"}}`, rec.Body.String())
}

func TestRouter_MeRejectsBadTokens(t *testing.T) {
	e, _ := newTestServer(t, 0)

	ghost, err := auth.NewJWTService(testSecret, time.Hour).GenerateToken("ghost")
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{"missing", "", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"garbage", "abc.def.ghi", http.StatusUnauthorized, "INVALID_TOKEN"},
		{"unknown user", ghost, http.StatusNotFound, "USER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodGet, "/api/auth/me", "", tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec)["code"])
		})
	}
}

func TestRouter_RequestValidation(t *testing.T) {
	e, _ := newTestServer(t, 0)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
	}{
		{"malformed json", "/api/auth/register", `{"username":`, "INVALID_REQUEST"},
		{"missing fields", "/api/auth/register", `{"username":"alice"}`, "VALIDATION_FAILED"},
		{"bad email", "/api/auth/register", `{"username":"alice","email":"nope","password":"pw"}`, "VALIDATION_FAILED"},
		{"password too long", "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"` + strings.Repeat("p", 73) + `"}`, "VALIDATION_FAILED"},
		{"multibyte password too long", "/api/auth/register", `{"username":"alice","email":"a@x.com","password":"` + strings.Repeat("é", 40) + `"}`, "VALIDATION_FAILED"},
		{"login missing email", "/api/auth/login", `{"password":"secret123"}`, "VALIDATION_FAILED"},
		{"login empty password", "/api/auth/login", `{"email":"a@x.com","password":""}`, "INVALID_CREDENTIALS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec)["code"])
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	e, _ := newTestServer(t, 0)

	rec := do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_RateLimit(t *testing.T) {
	e, _ := newTestServer(t, 1)

	first := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", decode(t, second)["code"])
}

func TestRouter_RateLimitBelowOnePerSecond(t *testing.T) {
	e, _ := newTestServer(t, 0.5)

	first := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := do(e, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRouter_SwaggerDoc(t *testing.T) {
	e, _ := newTestServer(t, 0)

	rec := do(e, http.MethodGet, "/swagger/doc.json", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/auth/register")
	assert.Contains(t, rec.Body.String(), "/auth/login")
}
