package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/domain"
	"reviewhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testJWTSecret          = "test-jwt-secret"
	testConfirmationSecret = "test-confirmation-secret"
)

// stubMailer records outgoing mail instead of delivering it
type stubMailer struct {
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *stubMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// lastCode extracts the confirmation code from the most recent mail
func (m *stubMailer) lastCode(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.sent)
	body := m.sent[len(m.sent)-1].Body
	return strings.TrimPrefix(body, "Your confirmation code: ")
}

// testApp is a fully wired router over an in-memory database
type testApp struct {
	db     *gorm.DB
	router *gin.Engine
	mail   *stubMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	// A uniquely named shared in-memory database per test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Category{},
		&domain.Genre{},
		&domain.Title{},
		&domain.Review{},
		&domain.Comment{},
	))
	mail := &stubMailer{}
	cfg := &config.Config{
		JWTSecret:            testJWTSecret,
		TokenTTLHours:        24,
		ConfirmationSecret:   testConfirmationSecret,
		ConfirmationTTLHours: 72,
	}
	router := gin.New()
	RegisterRoutes(router, db, nil, mail, cfg)
	return &testApp{db: db, router: router, mail: mail}
}

// request performs an HTTP request against the test router
func (a *testApp) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a JSON response body
func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

// createUser inserts a user row and returns it with a valid access token
func (a *testApp) createUser(t *testing.T, username, role string, superuser bool) (*domain.User, string) {
	t.Helper()
	u := &domain.User{
		Username:    username,
		Email:       username + "@example.com",
		Role:        role,
		IsSuperuser: superuser,
	}
	require.NoError(t, a.db.Create(u).Error)
	token, err := utils.GenerateJWT(u.ID, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return u, token
}

// createCategory inserts a category row
func (a *testApp) createCategory(t *testing.T, name, slug string) *domain.Category {
	t.Helper()
	cat := &domain.Category{Name: name, Slug: slug}
	require.NoError(t, a.db.Create(cat).Error)
	return cat
}

// createGenre inserts a genre row
func (a *testApp) createGenre(t *testing.T, name, slug string) *domain.Genre {
	t.Helper()
	g := &domain.Genre{Name: name, Slug: slug}
	require.NoError(t, a.db.Create(g).Error)
	return g
}

// createTitle inserts a title row linked to the given genres and category
func (a *testApp) createTitle(t *testing.T, name string, year int, category *domain.Category, genres ...domain.Genre) *domain.Title {
	t.Helper()
	title := &domain.Title{Name: name, Year: year, Genres: genres}
	if category != nil {
		title.CategoryID = &category.ID
	}
	require.NoError(t, a.db.Create(title).Error)
	return title
}

// createReview inserts a review row
func (a *testApp) createReview(t *testing.T, author *domain.User, title *domain.Title, score int) *domain.Review {
	t.Helper()
	r := &domain.Review{AuthorID: author.ID, TitleID: title.ID, Text: "review text", Score: score}
	require.NoError(t, a.db.Create(r).Error)
	return r
}

// createComment inserts a comment row
func (a *testApp) createComment(t *testing.T, author *domain.User, review *domain.Review) *domain.Comment {
	t.Helper()
	cm := &domain.Comment{AuthorID: author.ID, ReviewID: review.ID, Text: "comment text"}
	require.NoError(t, a.db.Create(cm).Error)
	return cm
}
