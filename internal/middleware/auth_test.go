package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyplan/internal/authz"
)

var secret = []byte("test-secret")

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(secret), ReadOnlyGuard())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"owner": OwnerID(c), "role": c.GetString(RoleKey)})
	})
	r.POST("/tasks", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/session", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/admin", RequireRoles(authz.RoleStudent), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	token, err := IssueToken(secret, "owner-1", "", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", "garbage").Code)

	w := do(r, http.MethodGet, "/tasks", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"owner":"owner-1","role":"student"}`, w.Body.String())

	w = do(r, http.MethodGet, "/tasks?access_token="+token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddlewareRejectsExpiredAndForeignTokens(t *testing.T) {
	r := newRouter()
	expired, err := IssueToken(secret, "owner-1", authz.RoleStudent, -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", expired).Code)

	foreign, err := IssueToken([]byte("other"), "owner-1", authz.RoleStudent, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", foreign).Code)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", noSubject).Code)
}

func TestViewerIsReadOnly(t *testing.T) {
	r := newRouter()
	viewer, err := IssueToken(secret, "owner-1", authz.RoleViewer, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/tasks", viewer).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/tasks", viewer).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/session", viewer).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", viewer).Code)
}

func TestIssueTokenValidation(t *testing.T) {
	_, err := IssueToken(secret, "", authz.RoleStudent, time.Hour)
	assert.Error(t, err)
	_, err = IssueToken(secret, "owner-1", "admin", time.Hour)
	assert.Error(t, err)
}
