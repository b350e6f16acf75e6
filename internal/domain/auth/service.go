package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
	"github.com/CompilationErrror/library-auth/internal/domain/auth/repository"
	"github.com/CompilationErrror/library-auth/internal/domain/auth/store"
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

const refreshTokenBytes = 32

// Options encapsulates the dependencies required to construct a Service.
type Options struct {
	Credentials repository.CredentialRepository
	Tokens      store.Store
	Codec       *TokenCodec
	Logger      model.Logger
	RefreshTTL  time.Duration
	Clock       func() time.Time
}

// Service orchestrates the session lifecycle: registration, login, access
// token validation, refresh rotation and logout.
type Service struct {
	credentials repository.CredentialRepository
	tokens      store.Store
	codec       *TokenCodec
	logger      model.Logger
	refreshTTL  time.Duration
	now         func() time.Time
}

// RegisterRequest carries the identity fields for a new account.
type RegisterRequest struct {
	Name     string
	Surname  string
	Email    string
	Username string
	Password string
}

// NewService wires a Service using the supplied options.
func NewService(opts Options) (*Service, error) {
	if opts.Credentials == nil {
		return nil, errors.New("session service requires a credential repository")
	}
	if opts.Tokens == nil {
		return nil, errors.New("session service requires a token store")
	}
	if opts.Codec == nil {
		return nil, errors.New("session service requires a token codec")
	}
	if opts.Logger == nil {
		return nil, errors.New("session service requires a logger")
	}
	refreshTTL := opts.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		credentials: opts.Credentials,
		tokens:      opts.Tokens,
		codec:       opts.Codec,
		logger:      opts.Logger,
		refreshTTL:  refreshTTL,
		now:         clock,
	}, nil
}

// Register creates a credential and issues the first token pair. If the
// credential cannot be persisted no tokens are issued.
func (s *Service) Register(ctx context.Context, req RegisterRequest, metadata map[string]string) (*model.TokenPair, error) {
	if req.Username == "" || req.Password == "" {
		return nil, perrors.New(perrors.KindDomain, "auth.register", "username and password are required")
	}

	existing, err := s.credentials.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	existing, err = s.credentials.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindDomain, "auth.register", "failed to hash password", err)
	}

	credential := &repository.Credential{
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
	}
	if err := s.credentials.Create(ctx, credential); err != nil {
		return nil, err
	}

	s.logger.Info("registered user %s", credential.Username)
	return s.issuePair(ctx, credential, metadata)
}

// Login verifies credentials and issues a fresh token pair. Unknown
// username and wrong password produce the same failure.
func (s *Service) Login(ctx context.Context, username, password string, metadata map[string]string) (*model.TokenPair, error) {
	credential, err := s.credentials.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := VerifyPassword(password, credential.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash for %s is unreadable: %v", username, err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s.logger.Debug("login succeeded for %s", username)
	return s.issuePair(ctx, credential, metadata)
}

// VerifyAccess checks an access token with expiry enforced and confirms
// its subject still resolves to an existing credential.
func (s *Service) VerifyAccess(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, ErrNotAuthorized
	}
	claims, err := s.codec.Verify(accessToken, true)
	if err != nil {
		return nil, err
	}
	credential, err := s.credentials.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, ErrNotAuthorized
	}
	return claims, nil
}

// ValidateAccess is the boolean gate over VerifyAccess. All internal
// failures, token or infrastructure alike, resolve to false.
func (s *Service) ValidateAccess(ctx context.Context, accessToken string) bool {
	_, err := s.VerifyAccess(ctx, accessToken)
	return err == nil
}

// Refresh rotates the presented refresh token: the old record is revoked
// atomically before a replacement is stored, so a replayed token fails and
// a crash mid-rotation terminates the session instead of duplicating it.
func (s *Service) Refresh(ctx context.Context, refreshToken string, metadata map[string]string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	record, err := s.tokens.Claim(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, perrors.Wrap(perrors.KindStorage, "auth.refresh", "token store unavailable", err)
	}

	if record.Expired(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	credential, err := s.credentials.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, credential, metadata)
}

// Logout revokes the refresh token after confirming it belongs to the
// subject named by the access token. The access token may be expired but
// must be well formed and correctly signed.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return ErrNotAuthorized
	}

	claims, err := s.codec.Verify(accessToken, false)
	if err != nil {
		return ErrNotAuthorized
	}

	record, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return ErrNotAuthorized
		}
		return perrors.Wrap(perrors.KindStorage, "auth.logout", "token store unavailable", err)
	}
	if record.UserID != claims.Subject {
		return ErrNotAuthorized
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return perrors.Wrap(perrors.KindStorage, "auth.logout", "failed to revoke refresh token", err)
	}
	s.logger.Debug("session terminated for user %s", claims.Subject)
	return nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return perrors.New(perrors.KindDomain, "auth.change_password", "new password is required")
	}

	credential, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if credential == nil {
		return ErrInvalidCredentials
	}

	ok, err := VerifyPassword(currentPassword, credential.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return perrors.Wrap(perrors.KindDomain, "auth.change_password", "failed to hash password", err)
	}
	return s.credentials.UpdatePassword(ctx, userID, hash)
}

func (s *Service) issuePair(ctx context.Context, credential *repository.Credential, metadata map[string]string) (*model.TokenPair, error) {
	accessToken, _, err := s.codec.Issue(credential)
	if err != nil {
		return nil, err
	}

	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, perrors.Wrap(perrors.KindDomain, "auth.issue", "failed to generate refresh token", err)
	}

	now := s.now()
	expiresAt := now.Add(s.refreshTTL)
	record := model.TokenRecord{
		Token:     refreshToken,
		UserID:    credential.ID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		Metadata:  metadata,
	}
	if err := s.tokens.Store(ctx, record); err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, "auth.issue", "failed to store refresh token", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
