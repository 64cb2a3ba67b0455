package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/domain"
	"reviewhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "middleware-test-secret"

func setupAuthTest(t *testing.T) (*gorm.DB, *domain.User, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	user := &domain.User{Username: "alice", Email: "alice@x.com", Role: domain.RoleUser}
	require.NoError(t, db.Create(user).Error)
	token, err := utils.GenerateJWT(user.ID, testSecret, time.Hour)
	require.NoError(t, err)
	return db, user, token
}

// whoami responds with the username seen in context, or "anonymous"
func whoami(c *gin.Context) {
	if u := CurrentUser(c); u != nil {
		c.String(http.StatusOK, u.Username)
		return
	}
	c.String(http.StatusOK, "anonymous")
}

func get(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	db, _, token := setupAuthTest(t)
	r := gin.New()
	r.GET("/whoami", RequireAuth(db, testSecret), whoami)

	// Valid token resolves the caller
	w := get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	// Missing and malformed credentials are rejected
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)

	// A token signed with another secret is rejected
	other, err := utils.GenerateJWT(1, "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, other).Code)
}

func TestRequireAuth_DeletedSubject(t *testing.T) {
	db, user, token := setupAuthTest(t)
	r := gin.New()
	r.GET("/whoami", RequireAuth(db, testSecret), whoami)

	require.NoError(t, db.Delete(user).Error)

	// The token is valid but its subject is gone
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
}

func TestOptionalAuth(t *testing.T) {
	db, _, token := setupAuthTest(t)
	r := gin.New()
	r.GET("/whoami", OptionalAuth(db, testSecret), whoami)

	// No credentials at all stays anonymous
	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	// Valid credentials resolve the caller
	w = get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	// Present but invalid credentials are still rejected
	assert.Equal(t, http.StatusUnauthorized, get(r, "garbage").Code)
}

func TestRoleReadFromDatabaseNotToken(t *testing.T) {
	db, user, token := setupAuthTest(t)
	r := gin.New()
	r.GET("/whoami", RequireAuth(db, testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Role)
	})

	// Promote the user after the token was issued
	require.NoError(t, db.Model(user).Update("role", domain.RoleModerator).Error)

	// The old token immediately reflects the new role
	w := get(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.RoleModerator, w.Body.String())
}
