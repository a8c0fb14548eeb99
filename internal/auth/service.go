// Package auth is the local identity provider: accounts, short-lived ID
// tokens and the longer session tokens stored in the session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/sunik/internal/apperrors"
	"github.com/example/sunik/internal/models"
	"github.com/example/sunik/internal/utils"
	"github.com/example/sunik/internal/validation"
)

// Options configure token lifetimes and secrets.
type Options struct {
	IdentitySecret string
	SessionSecret  string
	IDTokenTTL     time.Duration
	SessionTTL     time.Duration
	AdminEmails    []string
}

// Identity is the verified caller behind a token.
type Identity struct {
	UserID uuid.UUID
	Role   models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

type Service struct {
	db     *gorm.DB
	opts   Options
	admins map[string]struct{}
	now    func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	admins := make(map[string]struct{}, len(opts.AdminEmails))
	for _, email := range opts.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	if opts.IDTokenTTL <= 0 {
		opts.IDTokenTTL = time.Hour
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 5 * 24 * time.Hour
	}
	return &Service{db: db, opts: opts, admins: admins, now: time.Now}
}

func (s *Service) SessionTTL() time.Duration {
	return s.opts.SessionTTL
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=2"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// Register creates an account and returns it with a fresh ID token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(&in); err != nil {
		return nil, "", err
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, "", apperrors.New(apperrors.CodeConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, "", apperrors.Validation("invalid password", map[string]string{"password": err.Error()})
	}

	user := models.User{
		Email:        in.Email,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PhotoURL:     in.PhotoURL,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
	}
	if _, ok := s.admins[in.Email]; ok {
		user.Role = models.RoleAdmin
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issue(utils.TokenUseID, &user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// Login checks credentials and returns a fresh ID token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", errInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, "", errInvalidCredentials
	}

	token, err := s.issue(utils.TokenUseID, &user)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

// CreateSession exchanges a valid ID token for a session token.
func (s *Service) CreateSession(ctx context.Context, idToken string) (string, Identity, error) {
	claims, err := utils.ParseToken(s.opts.IdentitySecret, utils.TokenUseID, strings.TrimSpace(idToken))
	if err != nil {
		return "", Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid id token")
	}
	user, err := s.User(ctx, claims.UserUUID())
	if err != nil {
		return "", Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid id token")
	}

	token, err := s.issue(utils.TokenUseSession, user)
	if err != nil {
		return "", Identity{}, err
	}
	return token, Identity{UserID: user.ID, Role: user.Role}, nil
}

// VerifySession validates a session cookie value.
func (s *Service) VerifySession(token string) (Identity, error) {
	claims, err := utils.ParseToken(s.opts.SessionSecret, utils.TokenUseSession, token)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid session")
	}
	return Identity{UserID: claims.UserUUID(), Role: models.Role(claims.Role)}, nil
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

type ProfileInput struct {
	DisplayName string `json:"display_name" validate:"required,min=2"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// UpdateProfile changes the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.User, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	user, err := s.User(ctx, id)
	if err != nil {
		return nil, err
	}
	user.DisplayName = strings.TrimSpace(in.DisplayName)
	user.PhotoURL = in.PhotoURL
	if err := s.db.WithContext(ctx).Model(user).
		Updates(map[string]any{"display_name": user.DisplayName, "photo_url": user.PhotoURL}).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.User(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(user.PasswordHash, current) {
		return apperrors.Validation("current password is incorrect", map[string]string{"current_password": "is incorrect"})
	}
	hash, err := utils.HashPassword(next)
	if err != nil {
		return apperrors.Validation("invalid password", map[string]string{"new_password": err.Error()})
	}
	return s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
}

// DeleteAccount removes the user together with their cart and addresses.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.SavedAddress{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("user not found")
		}
		return nil
	})
}

func (s *Service) issue(use utils.TokenUse, user *models.User) (string, error) {
	secret, ttl := s.opts.IdentitySecret, s.opts.IDTokenTTL
	if use == utils.TokenUseSession {
		secret, ttl = s.opts.SessionSecret, s.opts.SessionTTL
	}
	token, err := utils.GenerateToken(secret, use, user.ID, string(user.Role), ttl, s.now())
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", use, err)
	}
	return token, nil
}

var errInvalidCredentials = apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
