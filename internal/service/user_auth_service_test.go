package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sketezo-next/internal/config"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupUserAuthTest(t *testing.T) (*UserAuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.UserJWT.SecretKey = "unit-test-secret-key-0123456789abcdef"
	cfg.UserJWT.ExpireHours = 1
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     8,
		RequireLower:  true,
		RequireNumber: true,
	}

	return NewUserAuthService(cfg, repository.NewUserRepository(db)), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserAuthTest(t)

	user, err := svc.Register(RegisterInput{
		Email:       " Asha@Example.com ",
		Password:    "supersecret1",
		DisplayName: " Asha ",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "asha@example.com" {
		t.Fatalf("email should be normalized, got %s", user.Email)
	}
	if user.DisplayName != "Asha" {
		t.Fatalf("display name should be trimmed, got %q", user.DisplayName)
	}
	if user.PasswordHash == "supersecret1" || user.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	result, err := svc.Login("asha@example.com", "supersecret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("login should issue a token")
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Fatalf("token expiry should be in the future")
	}
	if result.User.LastLoginAt == nil {
		t.Fatalf("last login timestamp should be set")
	}

	claims, err := svc.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupUserAuthTest(t)

	if _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "A@Example.com", Password: "supersecret1"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email want ErrEmailExists got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _ := setupUserAuthTest(t)

	if _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "short1"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password want ErrWeakPassword got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "nodigitshere"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("password without number want ErrWeakPassword got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "supersecret1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad email want ErrValidation got %v", err)
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	svc, db := setupUserAuthTest(t)

	if _, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "supersecret1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login("a@example.com", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, err := svc.Login("missing@example.com", "supersecret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}

	if err := db.Model(&models.User{}).Where("email = ?", "a@example.com").
		Update("status", "disabled").Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, err := svc.Login("a@example.com", "supersecret1"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
}

func TestLogoutInvalidatesEarlierTokens(t *testing.T) {
	svc, db := setupUserAuthTest(t)

	user, err := svc.Register(RegisterInput{Email: "a@example.com", Password: "supersecret1"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.Logout(user.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if got.TokenInvalidBefore == nil {
		t.Fatalf("logout should stamp token_invalid_before")
	}

	if err := svc.Logout(9999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user want ErrUserNotFound got %v", err)
	}
}

func TestValidatePasswordPolicy(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	if err := validatePassword(policy, "Aa1!aaaa"); err != nil {
		t.Fatalf("compliant password should pass, got %v", err)
	}
	for _, weak := range []string{"Aa1!a", "aa1!aaaa", "AA1!AAAA", "Aab!aaaa", "Aa1aaaaa"} {
		if err := validatePassword(policy, weak); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("password %q want ErrWeakPassword got %v", weak, err)
		}
	}

	// 空策略不做校验
	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("empty policy should accept anything, got %v", err)
	}
}
