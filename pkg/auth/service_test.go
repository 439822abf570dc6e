package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// fakeUserRepo is an in-memory UserRepository for auth tests.
type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperrors.ErrConflict
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, skip, limit int) ([]*models.User, int, error) {
	var out []*models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, id uuid.UUID, patch models.UserPatch) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	return u, nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.HashedPassword = hashedPassword
	return nil
}

func newTestAuthService(t *testing.T) (AuthService, *fakeUserRepo, *TokenService) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens := NewTokenService("test-secret", 30*time.Minute)
	svc := NewAuthService(repo, tokens, tokens, nil, zap.NewNop())
	return svc, repo, tokens
}

func TestAuthService_Register(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    " Dana@Example.com ",
		Password: "sw0rdfish",
		FullName: "Dana Reyes",
		Role:     models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Email != "dana@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if !user.IsActive {
		t.Error("new accounts should be active")
	}
	if user.IsSuperuser {
		t.Error("registration must not grant superuser")
	}
	if user.HashedPassword == "sw0rdfish" {
		t.Error("password stored as plaintext")
	}
	if err := CheckPassword(user.HashedPassword, "sw0rdfish"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	input := RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	}

	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := svc.Register(context.Background(), input)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate email, got %v", err)
	}
}

func TestAuthService_Register_UnknownRole(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: "astronaut",
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown role, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, token, err := svc.Login(context.Background(), "dana@example.com", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %s, got %s", registered.ID, user.ID)
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != registered.ID.String() {
		t.Errorf("expected subject %s, got %s", registered.ID, claims.Subject)
	}
}

func TestAuthService_Login_Failures(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		setup    func()
		email    string
		password string
	}{
		{"unknown email", nil, "nobody@example.com", "sw0rdfish"},
		{"wrong password", nil, "dana@example.com", "guess"},
		{"inactive account", func() { repo.users[registered.ID].IsActive = false }, "dana@example.com", "sw0rdfish"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			_, _, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, apperrors.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthService_VerifyRequest_BearerHeader(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, token, err := svc.Login(context.Background(), "dana@example.com", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	user, gotToken, err := svc.VerifyRequest(req)
	if err != nil {
		t.Fatalf("VerifyRequest failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %s, got %s", registered.ID, user.ID)
	}
	if gotToken != token {
		t.Error("expected raw token to round-trip")
	}
}

func TestAuthService_VerifyRequest_SessionCookieFirst(t *testing.T) {
	repo := newFakeUserRepo()
	tokens := NewTokenService("test-secret", 30*time.Minute)
	sessions := NewSessionManager("test-secret", 30*time.Minute, CookieSettings{})
	svc := NewAuthService(repo, tokens, tokens, sessions, zap.NewNop())

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, token, err := svc.Login(context.Background(), "dana@example.com", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// Capture the session cookie a browser would hold after login.
	rec := httptest.NewRecorder()
	if err := sessions.SetToken(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), token); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	// A stale header must lose to the cookie.
	req.Header.Set("Authorization", "Bearer bogus")

	user, _, err := svc.VerifyRequest(req)
	if err != nil {
		t.Fatalf("VerifyRequest failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("expected user %s, got %s", registered.ID, user.ID)
	}
}

func TestAuthService_VerifyRequest_FailsClosed(t *testing.T) {
	svc, repo, tokens := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email: "dana@example.com", Password: "sw0rdfish",
		FullName: "Dana Reyes", Role: models.RoleSales,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, token, err := svc.Login(context.Background(), "dana@example.com", "sw0rdfish")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	orphanToken, err := tokens.Issue(&models.User{ID: uuid.New(), Email: "ghost@example.com", Role: models.RoleSales})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }},
		{"deleted user", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+orphanToken) }},
		{"deactivated user", func(r *http.Request) {
			repo.users[registered.ID].IsActive = false
			r.Header.Set("Authorization", "Bearer "+token)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			tt.setup(req)

			_, _, err := svc.VerifyRequest(req)
			if !errors.Is(err, apperrors.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}
