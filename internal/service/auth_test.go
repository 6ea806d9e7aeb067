package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codecache/codecache/internal/apperror"
	"github.com/codecache/codecache/internal/auth"
)

type authFixture struct {
	svc   *AuthService
	users *mockUserRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-32-bytes-long!!")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	users := newMockUserRepo()
	svc := NewAuthService(users, tokens, auth.NewPasswordServiceForTest(4), testLogger())
	return &authFixture{svc: svc, users: users}
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Register(context.Background(), "Alice", " ALICE@Example.COM ", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, want trimmed and lowercased", result.User.Email)
	}
	if result.User.PasswordHash == "" || result.User.PasswordHash == "hunter2hunter2" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", result.User.PasswordHash)
	}
	if result.Token == "" {
		t.Error("Register() issued no session token")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "hunter2hunter2"},
		{"name too long", strings.Repeat("x", MaxNameLength+1), "a@example.com", "hunter2hunter2"},
		{"bad email", "Alice", "not-an-email", "hunter2hunter2"},
		{"empty email", "Alice", "", "hunter2hunter2"},
		{"short password", "Alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := f.svc.Register(ctx, "Impostor", "Alice@Example.com", "hunter2hunter2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Register() error = %v, want ErrConflict", err)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := f.svc.Login(ctx, "ALICE@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.Name != "Alice" {
		t.Errorf("Name = %q", result.User.Name)
	}
	if result.Token == "" {
		t.Error("Login() issued no session token")
	}
}

// Wrong password, unknown email and a GitHub-only account all report
// the same error so responses do not reveal which emails exist.
func TestLogin_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Register(ctx, "Alice", "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	// GitHub-only account with no password hash.
	f.users.add("Bob", "bob@example.com")

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "alice@example.com", "wrongwrong"},
		{"unknown email", "nobody@example.com", "hunter2hunter2"},
		{"github only account", "bob@example.com", "hunter2hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Message != "invalid email or password" {
				t.Errorf("Login() message = %q, want the generic rejection", appErr.Message)
			}
		})
	}
}

func TestLoginOrRegisterGitHub(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	gh := &auth.GitHubUser{
		ID:        42,
		Login:     "octoalice",
		Email:     "Alice@Example.com",
		AvatarURL: "https://example.com/a.png",
	}

	result, err := f.svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.Name != "octoalice" {
		t.Errorf("Name = %q, want fallback to the GitHub login", result.User.Name)
	}
	if result.User.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased", result.User.Email)
	}
	if result.Token == "" {
		t.Error("no session token issued")
	}

	// A second login with the same GitHub ID reuses the account.
	gh.Name = "Alice Liddell"
	again, err := f.svc.LoginOrRegisterGitHub(ctx, gh)
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}
	if again.User.ID != result.User.ID {
		t.Errorf("user ID changed across logins: %q then %q", result.User.ID, again.User.ID)
	}
}

func TestLoginOrRegisterGitHub_NoEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "ghost"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("LoginOrRegisterGitHub() error = %v, want ErrValidation", err)
	}
}
