package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"aimarket/internal/config"
	"aimarket/internal/database"
	"aimarket/internal/models"
	"aimarket/internal/repository"
	"aimarket/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestServer wires a Server over an in-memory sqlite database with the
// full route surface mounted. Prometheus middleware is left nil so repeated
// construction across tests does not re-register collectors.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, redisClient *redis.Client) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	s := &Server{
		config: &config.Config{
			JWTSecret:      "test_secret",
			JWTExpiryHours: 1,
			Env:            "test",
		},
		db:    db,
		redis: redisClient,

		userRepo:         repository.NewUserRepository(db),
		projectRepo:      repository.NewProjectRepository(db),
		replicationRepo:  repository.NewReplicationRepository(db),
		demandRepo:       repository.NewDemandRepository(db),
		toolRepo:         repository.NewToolRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}
	s.notificationService = service.NewNotificationService(s.notificationRepo)
	s.authService = service.NewAuthService(s.userRepo)
	s.userService = service.NewUserService(s.userRepo)
	s.projectService = service.NewProjectService(s.projectRepo, s.userRepo, s.notificationService)
	s.replicationService = service.NewReplicationService(s.replicationRepo, s.projectRepo, s.userRepo, s.notificationService)
	s.demandService = service.NewDemandService(s.demandRepo, s.userRepo, s.notificationService)
	s.toolService = service.NewToolService(s.toolRepo, s.userRepo, s.notificationService)

	app := fiber.New()
	s.SetupRoutes(app)

	return s, app, db
}

func createTestUser(t *testing.T, db *gorm.DB, email, name, role string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Email:     email,
		Password:  string(hashed),
		Name:      name,
		Role:      role,
		Status:    models.UserStatusActive,
		Level:     1,
		LevelName: "新手",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// tokenFor issues a real signed token so requests exercise AuthRequired.
func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// doJSON performs a request against the app, optionally with a JSON body and
// a Bearer token, and decodes the response body into a generic map.
func doJSON(t *testing.T, app *fiber.App, method, target, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	_ = resp.Body.Close()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %q: %v", raw, err)
		}
	}
	return resp, decoded
}
