package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/xela07ax/polis-console/internal/domain"
	"github.com/xela07ax/polis-console/internal/infra/auth"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return errors.New("email already registered")
	}
	cp := *u
	f.byEmail[u.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

func TestSignup(t *testing.T) {
	key := testKey(t)
	svc := NewAuthService(newFakeUserRepo(), key, time.Hour, bcrypt.MinCost)

	u, err := svc.Signup(context.Background(), &domain.SignupRequest{
		Email:       "  Ivan@Example.com ",
		DisplayName: "Ivan Petrov",
		Password:    "correct-horse",
		Role:        domain.RoleCreator,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated user id")
	}
	if u.Email != "ivan@example.com" {
		t.Fatalf("expected normalized email, got %q", u.Email)
	}
	if u.PasswordHash == "correct-horse" || u.PasswordHash == "" {
		t.Fatal("password must be stored as bcrypt hash")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testKey(t), time.Hour, bcrypt.MinCost)

	tests := []struct {
		name string
		req  domain.SignupRequest
	}{
		{"no email", domain.SignupRequest{DisplayName: "Ivan", Password: "correct-horse", Role: domain.RoleCreator}},
		{"bad email", domain.SignupRequest{Email: "not-an-email", DisplayName: "Ivan", Password: "correct-horse", Role: domain.RoleCreator}},
		{"short password", domain.SignupRequest{Email: "a@b.io", DisplayName: "Ivan", Password: "short", Role: domain.RoleCreator}},
		{"no display name", domain.SignupRequest{Email: "a@b.io", Password: "correct-horse", Role: domain.RoleCreator}},
		{"unknown role", domain.SignupRequest{Email: "a@b.io", DisplayName: "Ivan", Password: "correct-horse", Role: "admin"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Signup(context.Background(), &tc.req); !errors.Is(err, domain.ErrBadSignup) {
				t.Fatalf("expected ErrBadSignup, got %v", err)
			}
		})
	}
}

func TestGenerateTokenRoundtrip(t *testing.T) {
	key := testKey(t)
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, key, time.Hour, bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Signup(ctx, &domain.SignupRequest{
		Email:       "uw@example.com",
		DisplayName: "Anna Petrova",
		Password:    "correct-horse",
		Role:        domain.RoleUnderwriter,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	resp, err := svc.GenerateToken(ctx, "uw@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("expected Bearer, got %q", resp.TokenType)
	}
	if resp.ExpiresIn <= 0 || resp.ExpiresIn > int64(time.Hour.Seconds()) {
		t.Fatalf("unexpected expires_in: %d", resp.ExpiresIn)
	}

	// Токен проверяется тем же публичным ключом, что отдается middleware
	claims, err := auth.NewBaseValidator(&key.PublicKey).VerifyToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.UserID != u.ID {
		t.Fatalf("expected user_id %q, got %q", u.ID, claims.UserID)
	}
	if claims.Role != domain.RoleUnderwriter {
		t.Fatalf("expected role underwriter, got %q", claims.Role)
	}
}

func TestMe(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testKey(t), time.Hour, bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Signup(ctx, &domain.SignupRequest{
		Email: "mgr@example.com", DisplayName: "Pavel", Password: "correct-horse", Role: domain.RoleManager,
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	got, err := svc.Me(ctx, u.ID)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if got.ID != u.ID || got.Role != domain.RoleManager {
		t.Fatalf("unexpected profile: %+v", got)
	}

	if _, err := svc.Me(ctx, "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateTokenRejectsBadCredentials(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testKey(t), time.Hour, bcrypt.MinCost)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, &domain.SignupRequest{
		Email: "uw@example.com", DisplayName: "Anna", Password: "correct-horse", Role: domain.RoleUnderwriter,
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	// Неверный пароль и несуществующий email дают одинаково
	// неинформативную ошибку
	_, errPass := svc.GenerateToken(ctx, "uw@example.com", "wrong-password")
	_, errUser := svc.GenerateToken(ctx, "ghost@example.com", "correct-horse")

	if errPass == nil || errUser == nil {
		t.Fatal("expected authentication errors")
	}
	if errPass.Error() != errUser.Error() {
		t.Fatalf("error messages must not leak which part failed: %q vs %q", errPass, errUser)
	}
}
