package marketplace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/ids"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/security"
	"wastemarket/mobile/internal/validate"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserExists         = "User already exists"
	MsgNotAuthorized      = "Not authorized"
)

type AuthService struct {
	users    repository.Users
	sessions repository.Sessions
	cfg      config.SecurityConfig
	log      zerolog.Logger
	now      func() time.Time
	hash     func(string) ([]byte, error)
}

func NewAuthService(store repository.Store, cfg config.SecurityConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    store.Users,
		sessions: store.Sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		hash:     security.HashPassword,
	}
}

// ClientInfo describes the device a session is opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, data models.RegisterData, client ClientInfo) (AuthResult, error) {
	data.Username = strings.TrimSpace(data.Username)
	data.Email = strings.ToLower(strings.TrimSpace(data.Email))
	if err := validate.Register(data); err != nil {
		return AuthResult{}, invalid(err)
	}

	passwordHash, err := s.hash(data.Password)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now().UTC()
	account := models.Account{
		User: models.User{
			ID:        ids.New(),
			Username:  data.Username,
			Email:     data.Email,
			CreatedAt: now,
		},
		PasswordHash: passwordHash,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return AuthResult{}, badRequest(MsgUserExists)
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("user_id", account.ID).Msg("user registered")
	return s.openSession(ctx, account, client)
}

func (s *AuthService) Login(ctx context.Context, data models.LoginData, client ClientInfo) (AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(data.Email))
	if email == "" || data.Password == "" {
		return AuthResult{}, badRequest(validate.MsgCredentialsRequired)
	}

	account, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, unauthorized(MsgInvalidCredentials)
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := security.VerifyPassword(data.Password, account.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", account.ID).Msg("verify password failed")
	}
	if !ok {
		return AuthResult{}, unauthorized(MsgInvalidCredentials)
	}

	return s.openSession(ctx, account, client)
}

func (s *AuthService) openSession(ctx context.Context, account models.Account, client ClientInfo) (AuthResult, error) {
	now := s.now().UTC()
	session := models.Session{
		ID:        ids.New(),
		UserID:    account.ID,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	token, err := security.IssueSessionToken(s.cfg.SessionSecret, account.ID, session.ID, s.cfg.SessionTTL)
	if err != nil {
		return AuthResult{}, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return AuthResult{}, fmt.Errorf("create session: %w", err)
	}

	return AuthResult{User: account.User, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Logout ends the session behind token. Unknown or expired tokens are
// not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := security.ParseSessionToken(token, s.cfg.SessionSecret)
	if err != nil {
		return nil
	}
	if err := s.sessions.DeleteByID(ctx, claims.SessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session cookie to its account.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, unauthorized(MsgNotAuthorized)
	}
	claims, err := security.ParseSessionToken(token, s.cfg.SessionSecret)
	if err != nil {
		return models.Account{}, &Error{Status: http.StatusUnauthorized, Message: MsgNotAuthorized, Err: err}
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.Account{}, unauthorized(MsgNotAuthorized)
		}
		return models.Account{}, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != claims.UserID || session.Expired(s.now()) {
		return models.Account{}, unauthorized(MsgNotAuthorized)
	}

	account, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.Account{}, unauthorized(MsgNotAuthorized)
		}
		return models.Account{}, fmt.Errorf("get user: %w", err)
	}
	return account, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, account models.Account, data models.UpdateProfileData) (models.User, error) {
	if data.Username != nil {
		name := strings.TrimSpace(*data.Username)
		if name == "" {
			return models.User{}, &Error{
				Status:  http.StatusBadRequest,
				Message: validate.MsgValidationFailed,
				Errors:  []models.FieldError{{Field: "username", Message: "Required"}},
			}
		}
		account.Username = name
	}
	if data.Avatar != nil {
		account.Avatar = strings.TrimSpace(*data.Avatar)
	}
	account.UpdatedAt = s.now().UTC()

	if err := s.users.Update(ctx, account); err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return account.User, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, account models.Account, data models.ChangePasswordData) error {
	if err := validate.Struct(data); err != nil {
		return invalid(err)
	}

	ok, err := security.VerifyPassword(data.CurrentPassword, account.PasswordHash)
	if err != nil || !ok {
		return badRequest("Current password is incorrect")
	}

	account.PasswordHash, err = s.hash(data.NewPassword)
	if err != nil {
		return err
	}
	account.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, account); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
