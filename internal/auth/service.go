package auth

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/palengkeplus/palengke/internal/domain"
	"github.com/palengkeplus/palengke/internal/store"
	"github.com/palengkeplus/palengke/pkg/common"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrAccountDisabled    = errors.New("auth: account disabled")
	ErrDuplicateUser      = errors.New("auth: username or email already exists")
)

// UserStore is the slice of the user repository the access gate needs.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.SysUser, error)
	GetByUsername(ctx context.Context, username string) (*domain.SysUser, error)
	Create(ctx context.Context, u *domain.SysUser) error
	TouchLastLogin(ctx context.Context, id int64) error
	Permissions(ctx context.Context, userID int64) ([]string, error)
}

var _ UserStore = (*store.UserRepository)(nil)

// Service is the access gate: it authenticates users and resolves their
// permission sets. Identity is always passed explicitly per request; there
// is no ambient current-user state.
type Service struct {
	users  UserStore
	tokens *TokenStore
	secret string
}

func NewService(users UserStore, tokens *TokenStore, secret string) *Service {
	return &Service{users: users, tokens: tokens, secret: secret}
}

// Authenticate verifies the username/password pair. All failure modes
// collapse into ErrInvalidCredentials so callers cannot probe which part
// was wrong; the distinction goes to the log only.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.SysUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		zap.L().Error("authentication lookup failed", zap.String("username", username), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if u.Status != common.ENABLED {
		return nil, ErrAccountDisabled
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		zap.L().Warn("failed to record last login", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

// PermissionsFor resolves the permission set for a user. Admin-role users
// hold every permission through the role, not a username comparison; any
// other user gets exactly their grant rows. No rows means no permissions.
func (s *Service) PermissionsFor(ctx context.Context, userID int64) ([]string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	if u.Role == domain.RoleAdmin {
		out := make([]string, len(domain.AllPermissions))
		copy(out, domain.AllPermissions)
		return out, nil
	}
	return s.users.Permissions(ctx, userID)
}

// HasPermission is a convenience over PermissionsFor.
func (s *Service) HasPermission(ctx context.Context, userID int64, name string) (bool, error) {
	perms, err := s.PermissionsFor(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == name {
			return true, nil
		}
	}
	return false, nil
}

// Register creates a cashier account. Only the admin surface calls this.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.SysUser, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || len(password) < 6 {
		return nil, errors.New("auth: username, email and a password of at least 6 characters are required")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &domain.SysUser{
		ID:        common.UUIDint64(),
		Username:  username,
		Email:     email,
		Password:  string(hash),
		Role:      domain.RoleCashier,
		Status:    common.ENABLED,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, ErrDuplicateUser
	}
	return u, nil
}

// Logout revokes the token id until its natural expiry.
func (s *Service) Logout(jti string, expiresAt time.Time) error {
	return s.tokens.Revoke(jti, expiresAt)
}
