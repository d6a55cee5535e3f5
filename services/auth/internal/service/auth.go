package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Skotchmaster/restaurant_orders/pkg/events"
	pkghash "github.com/Skotchmaster/restaurant_orders/pkg/hash"
	jwthelp "github.com/Skotchmaster/restaurant_orders/pkg/jwt"
	"github.com/Skotchmaster/restaurant_orders/pkg/logging"
	"github.com/Skotchmaster/restaurant_orders/pkg/tokens"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/repo"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	minPasswordLen = 8
	maxUsernameLen = 150

	TopicUsers = "users"
)

type AuthService struct {
	Repo          *repo.GormRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Events        events.Publisher
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func validateCredentials(username, password string) error {
	switch {
	case username == "":
		return &FieldError{Field: "username", Reason: "required"}
	case utf8.RuneCountInString(username) > maxUsernameLen:
		return &FieldError{Field: "username", Reason: fmt.Sprintf("at most %d characters", maxUsernameLen)}
	case utf8.RuneCountInString(password) < minPasswordLen:
		return &FieldError{Field: "password", Reason: fmt.Sprintf("at least %d characters", minPasswordLen)}
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, strings.TrimSpace(username), password, models.RoleUser)
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, ErrUserAlreadyExist
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, user.ID.String(), "user_registered", user)
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

// EnsureAdmin creates the admin account, or promotes an existing user with
// that name. The password of an existing account is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	existing, err := s.Repo.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		return s.Repo.SetRole(ctx, existing.ID, models.RoleAdmin)
	case !repo.IsNotFound(err):
		return err
	}
	_, err = s.createUser(ctx, username, password, models.RoleAdmin)
	return err
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "error", err)
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, next, err := s.issue(user)
	if err != nil {
		l.Error("login_error", "reason", "cannot sign tokens", "error", err)
		return nil, err
	}
	if err := s.Repo.SaveRefreshToken(ctx, next); err != nil {
		l.Error("login_error", "reason", "cannot store refresh token", "error", err)
		return nil, err
	}
	return res, nil
}

// Refresh exchanges a refresh token for a new token pair. The presented
// token is revoked; presenting it again fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefresh, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return nil, ErrInvalidRefresh
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	res, next, err := s.issue(user)
	if err != nil {
		l.Error("refresh_error", "reason", "cannot sign tokens", "error", err)
		return nil, err
	}

	err = s.Repo.RotateRefreshToken(ctx, claims.ID, jwthelp.Sha256Hex(refreshToken), time.Now(), next)
	if err != nil {
		if errors.Is(err, repo.ErrRefreshRejected) {
			l.Warn("refresh_rejected", "user_id", userID, "jti", claims.ID)
			return nil, ErrInvalidRefresh
		}
		l.Error("refresh_error", "error", err)
		return nil, err
	}
	return res, nil
}

// Logout revokes the refresh token. Unknown or malformed tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefreshToken(ctx, jwthelp.Sha256Hex(refreshToken))
}

func (s *AuthService) issue(user *models.User) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(s.accessTTL())
	refreshExp := now.Add(s.refreshTTL())

	access, err := tokens.SignAccessToken(user.ID.String(), user.Role, accessExp, s.AccessSecret)
	if err != nil {
		return nil, nil, err
	}
	refresh, jti, err := tokens.SignRefreshToken(user.ID.String(), refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	row := &models.RefreshToken{
		TokenHash: jwthelp.Sha256Hex(refresh),
		JTI:       jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      user.IsAdmin(),
	}, row, nil
}
