package api

import (
	"net/http"
	"testing"
	"time"

	"reviewhub/internal/domain"

	"github.com/gin-gonic/gin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUserAndSendsCode(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	decode(t, w, &resp)
	assert.Equal(t, "bob", resp["username"])
	assert.Equal(t, "bob@x.com", resp["email"])

	// The user row exists with the default role
	var user domain.User
	require.NoError(t, app.db.Where("username = ?", "bob").First(&user).Error)
	assert.Equal(t, domain.RoleUser, user.Role)

	// A confirmation code went to the right address
	require.Len(t, app.mail.sent, 1)
	assert.Equal(t, "bob@x.com", app.mail.sent[0].To)
	assert.NotEmpty(t, app.mail.lastCode(t))
}

func TestSignup_IdenticalPairIsIdempotent(t *testing.T) {
	app := newTestApp(t)

	first := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})
	second := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)

	// No duplicate row, but a fresh code each time
	var count int64
	app.db.Model(&domain.User{}).Where("username = ?", "bob").Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Len(t, app.mail.sent, 2)
}

func TestSignup_UsernameCollision(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})

	w := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "other@x.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errs map[string][]string
	decode(t, w, &errs)
	assert.Contains(t, errs, "username")
	assert.NotContains(t, errs, "email")
}

func TestSignup_EmailCollision(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})

	w := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "alice", "email": "bob@x.com"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var errs map[string][]string
	decode(t, w, &errs)
	assert.Contains(t, errs, "email")
	assert.NotContains(t, errs, "username")
}

func TestSignup_InvalidInput(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"reserved username", gin.H{"username": "me", "email": "me@x.com"}},
		{"bad username characters", gin.H{"username": "bo b!", "email": "bob@x.com"}},
		{"bad email", gin.H{"username": "bob", "email": "not-an-email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.request(t, http.MethodPost, "/v1/auth/signup/", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestToken_FullFlow(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})
	code := app.mail.lastCode(t)

	w := app.request(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": code})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)

	// The issued token authenticates requests
	me := app.request(t, http.MethodGet, "/v1/users/me/", resp.Token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestToken_CodeSurvivesStorageTimestampPrecision(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})
	code := app.mail.lastCode(t)

	// Stores with coarse timestamp columns return fewer fractional digits
	// than the in-memory row the code was issued against
	var user domain.User
	require.NoError(t, app.db.Where("username = ?", "bob").First(&user).Error)
	trunc := user.UpdatedAt.Truncate(time.Second)
	require.NoError(t, app.db.Model(&user).Update("updated_at", trunc).Error)

	w := app.request(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": code})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignup_StoreFaultIsNotACollision(t *testing.T) {
	app := newTestApp(t)
	require.NoError(t, app.db.Exec("DROP TABLE users").Error)

	// A failing existence probe must surface as a server error, never as
	// an already-exists field error
	w := app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestToken_WrongCode(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})

	w := app.request(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": "1a2b3c-deadbeef"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToken_UnknownUsername(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "ghost", "confirmation_code": "whatever"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToken_CodeInvalidatedByProfileChange(t *testing.T) {
	app := newTestApp(t)
	app.request(t, http.MethodPost, "/v1/auth/signup/", "", gin.H{"username": "bob", "email": "bob@x.com"})
	code := app.mail.lastCode(t)

	// Mutating the user record revokes the outstanding code
	var user domain.User
	require.NoError(t, app.db.Where("username = ?", "bob").First(&user).Error)
	require.NoError(t, app.db.Model(&user).Update("bio", "changed").Error)

	w := app.request(t, http.MethodPost, "/v1/auth/token/", "", gin.H{"username": "bob", "confirmation_code": code})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
