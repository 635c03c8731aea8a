package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jewelry/jewelry-api/internal/domain/user"
	"github.com/jewelry/jewelry-api/internal/pkg/jwt"
	"github.com/jewelry/jewelry-api/internal/pkg/password"
)

func init() {
	password.Cost = 4
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*user.User
	lastLogin map[uuid.UUID]bool
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[uuid.UUID]*user.User{}, lastLogin: map[uuid.UUID]bool{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *user.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return user.ErrEmailAlreadyExists
		}
	}
	u.CreatedAt = time.Now()
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin[id] = true
	if u, ok := f.users[id]; ok {
		u.LastLoginAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*user.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func newAdmin(t *testing.T, email, plain string) *user.User {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &user.User{ID: uuid.New(), Email: email, PasswordHash: hash, Role: user.RoleAdmin, CreatedAt: time.Now()}
}

func newTestService(repo user.Repository) *Service {
	jwtService := jwt.NewService("secret", time.Minute, time.Hour)
	return NewService(repo, jwtService, NewRefreshStore(nil), NewSessionState(false))
}

func TestSignInIssuesTokensAndSetsSession(t *testing.T) {
	admin := newAdmin(t, "admin@example.com", "password123")
	repo := newFakeUserRepo(admin)
	svc := newTestService(repo)

	result, err := svc.SignIn(context.Background(), &LoginRequest{Email: "Admin@Example.com ", Password: "password123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if result.Tokens.AccessToken == "" || result.Tokens.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if result.Tokens.TokenType != "Bearer" || result.Tokens.ExpiresIn != 60 {
		t.Fatalf("unexpected token meta: %+v", result.Tokens)
	}
	if !svc.Session().LoggedIn() {
		t.Fatal("expected session flag to be set")
	}
	if !repo.lastLogin[admin.ID] {
		t.Fatal("expected last login to be recorded")
	}
}

func TestSignInRejectsBadPassword(t *testing.T) {
	svc := newTestService(newFakeUserRepo(newAdmin(t, "admin@example.com", "password123")))

	_, err := svc.SignIn(context.Background(), &LoginRequest{Email: "admin@example.com", Password: "wrong-password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if svc.Session().LoggedIn() {
		t.Fatal("session flag must stay false")
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.SignIn(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInRejectsNonAdmin(t *testing.T) {
	u := newAdmin(t, "staff@example.com", "password123")
	u.Role = "viewer"
	svc := newTestService(newFakeUserRepo(u))

	_, err := svc.SignIn(context.Background(), &LoginRequest{Email: "staff@example.com", Password: "password123"})
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newTestService(newFakeUserRepo(newAdmin(t, "admin@example.com", "password123")))
	ctx := context.Background()

	first, err := svc.SignIn(ctx, &LoginRequest{Email: "admin@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	second, err := svc.Refresh(ctx, first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	if _, err := svc.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("reused refresh token must fail, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshTokenRequired) {
		t.Fatalf("expected ErrRefreshTokenRequired, got %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
}

func TestSignOutRevokesAndClearsSession(t *testing.T) {
	svc := newTestService(newFakeUserRepo(newAdmin(t, "admin@example.com", "password123")))
	ctx := context.Background()

	result, err := svc.SignIn(ctx, &LoginRequest{Email: "admin@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}

	if err := svc.SignOut(ctx, result.Tokens.RefreshToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if svc.Session().LoggedIn() {
		t.Fatal("expected session flag to be cleared")
	}
	if _, err := svc.Refresh(ctx, result.Tokens.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("revoked token must not refresh, got %v", err)
	}
}

func TestEnsureAdminCreatesThenResets(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "Owner@Example.com", "first-password")
	if err != nil || !created {
		t.Fatalf("expected account to be created, created=%v err=%v", created, err)
	}

	created, err = svc.EnsureAdmin(ctx, "owner@example.com", "second-password")
	if err != nil || created {
		t.Fatalf("expected password reset, created=%v err=%v", created, err)
	}

	if _, err := svc.SignIn(ctx, &LoginRequest{Email: "owner@example.com", Password: "second-password"}); err != nil {
		t.Fatalf("sign in with new password: %v", err)
	}

	if _, err := svc.EnsureAdmin(ctx, "owner@example.com", "short"); !errors.Is(err, password.ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}
