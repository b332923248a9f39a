package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/acadocs/backend/internal/config"
	"github.com/acadocs/backend/internal/database"
	"github.com/acadocs/backend/internal/identity"
	"github.com/acadocs/backend/internal/middleware"
	"github.com/acadocs/backend/internal/models"
	"github.com/acadocs/backend/internal/services"
	"github.com/acadocs/backend/pkg/logger"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app        *fiber.App
	db         *gorm.DB
	provider   identity.Provider
	mailer     *fakeMailer
	dispatcher *fakeDispatcher
	uploader   *fakeUploader
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed migrating models: %v", err)
	}

	provider := identity.NewGormProvider(db, config.JWTConfig{Secret: "test-secret", ExpirationHours: 24})
	mailer := &fakeMailer{}
	dispatcher := &fakeDispatcher{}
	uploader := &fakeUploader{}

	notifier := services.NewNotifier(db, dispatcher)
	requestService := services.NewRequestService(db, uploader, notifier)

	authHandler := NewAuthHandler(db, provider, mailer, "http://localhost:3001")
	usersHandler := NewUsersHandler(db, provider, mailer)
	requestsHandler := NewRequestsHandler(requestService)
	statisticsHandler := NewStatisticsHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(provider, db)

	app := fiber.New(fiber.Config{BodyLimit: 50 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/login/admin", authHandler.LoginAdmin)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/notification-token", authMiddleware.RequireAuth, authHandler.UpdateNotificationToken)
	authRoutes.Post("/password-reset", authHandler.RequestPasswordReset)
	authRoutes.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth, middleware.AdminOnly)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Post("/", usersHandler.Create)
	userRoutes.Get("/:id", usersHandler.Get)
	userRoutes.Put("/:id", usersHandler.Update)
	userRoutes.Delete("/:id", usersHandler.Delete)

	requestRoutes := api.Group("/requests", authMiddleware.RequireAuth)
	requestRoutes.Post("/", requestsHandler.Submit)
	requestRoutes.Get("/", requestsHandler.List)
	requestRoutes.Get("/mine", requestsHandler.Mine)
	requestRoutes.Get("/search", requestsHandler.Search)
	requestRoutes.Post("/:id/file", requestsHandler.Upload)
	requestRoutes.Put("/:id/status", requestsHandler.UpdateStatus)

	api.Get("/statistics", authMiddleware.RequireAuth, middleware.StaffOnly, statisticsHandler.Get)

	return &testEnv{
		app:        app,
		db:         db,
		provider:   provider,
		mailer:     mailer,
		dispatcher: dispatcher,
		uploader:   uploader,
	}
}

type fakeMailer struct {
	mu          sync.Mutex
	credentials []credentialMail
	resets      []resetMail
	failNext    bool
}

type credentialMail struct {
	email    string
	password string
}

type resetMail struct {
	email string
	link  string
}

func (m *fakeMailer) SendCredentials(email, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.credentials = append(m.credentials, credentialMail{email: email, password: password})
	return nil
}

func (m *fakeMailer) SendPasswordReset(email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext {
		m.failNext = false
		return fmt.Errorf("smtp unavailable")
	}
	m.resets = append(m.resets, resetMail{email: email, link: link})
	return nil
}

func (m *fakeMailer) lastReset(t *testing.T) resetMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resets) == 0 {
		t.Fatalf("expected at least one password reset email")
	}
	return m.resets[len(m.resets)-1]
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sends []dispatchedPush
}

type dispatchedPush struct {
	tokens []string
	title  string
	body   string
}

func (d *fakeDispatcher) SendToOne(ctx context.Context, token, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sends = append(d.sends, dispatchedPush{tokens: []string{token}, title: title, body: body})
	return nil
}

func (d *fakeDispatcher) SendToMany(ctx context.Context, tokens []string, title, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copied := append([]string(nil), tokens...)
	d.sends = append(d.sends, dispatchedPush{tokens: copied, title: title, body: body})
	return nil
}

func (d *fakeDispatcher) sendCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sends)
}

type fakeUploader struct {
	mu      sync.Mutex
	objects []string
}

func (u *fakeUploader) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects = append(u.objects, objectName)
	return nil
}

func (u *fakeUploader) PublicURL(objectName string) string {
	return "https://files.test/" + objectName
}

func createTestUser(t *testing.T, env *testEnv, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	uid, err := env.provider.CreateAccount(context.Background(), email, password)
	if err != nil {
		t.Fatalf("failed creating test account: %v", err)
	}

	// Test accounts are verified so admin login checks pass.
	err = env.db.Model(&models.Account{}).Where("id = ?", uid).Update("email_verified", true).Error
	if err != nil {
		t.Fatalf("failed verifying test account: %v", err)
	}

	user := &models.User{
		BaseModel: models.BaseModel{ID: uid},
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		Status:    models.UserStatusActive,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, _, err := env.provider.Authenticate(context.Background(), email, password)
	if err != nil {
		t.Fatalf("failed authenticating test user: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

// waitFor polls until the condition holds or the deadline passes. Used for
// effects behind the async notification queue.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
