package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/dto"
	appErrors "github.com/ndtutor/tutor-api/pkg/errors"
	"github.com/ndtutor/tutor-api/pkg/gemini"
)

const (
	maxTokenLifetime     = 30 * time.Minute
	newSessionWindow     = 2 * time.Minute
	tokenUses            = 10
	defaultExpireMinutes = 30
)

// TokenMinter creates ephemeral Live-API tokens.
type TokenMinter interface {
	CreateAuthToken(ctx context.Context, req gemini.AuthTokenRequest) (gemini.AuthToken, error)
}

// TokenService issues short-lived tokens that let clients talk to the Live
// API directly, without the server proxying audio.
type TokenService struct {
	minter TokenMinter
	logger *zap.Logger
	model  string

	now func() time.Time
}

// NewTokenService constructs the token service.
func NewTokenService(minter TokenMinter, logger *zap.Logger, model string) *TokenService {
	return &TokenService{
		minter: minter,
		logger: logger,
		model:  model,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source. Test hook.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue mints an ephemeral token. The lifetime is capped at 30 minutes and
// tokens allow several uses so session resumption can reconnect. Config
// locking defaults on; the voice-session constraints then travel inside the
// token and the client cannot change them.
func (s *TokenService) Issue(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	now := s.now()

	minutes := req.ExpireMinutes
	if minutes <= 0 {
		minutes = defaultExpireMinutes
	}
	lifetime := time.Duration(minutes) * time.Minute
	if lifetime > maxTokenLifetime {
		lifetime = maxTokenLifetime
	}

	lock := true
	if req.LockConfig != nil {
		lock = *req.LockConfig
	}

	expireAt := now.Add(lifetime)
	newSessionExpireAt := now.Add(newSessionWindow)

	token, err := s.minter.CreateAuthToken(ctx, gemini.AuthTokenRequest{
		Model:            s.model,
		Uses:             tokenUses,
		ExpireTime:       expireAt,
		NewSessionExpire: newSessionExpireAt,
		SystemPrompt:     req.SystemPrompt,
		LockConfig:       lock,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("ephemeral token mint failed", zap.String("user", req.UserID), zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to create ephemeral token")
	}

	if s.logger != nil {
		s.logger.Info("ephemeral token issued",
			zap.String("user", req.UserID),
			zap.Time("expires_at", expireAt),
			zap.Bool("locked", lock))
	}

	return &dto.TokenResponse{
		Token:               token.Name,
		ExpiresAt:           expireAt.Format(time.RFC3339),
		NewSessionExpiresAt: newSessionExpireAt.Format(time.RFC3339),
		Model:               s.model,
	}, nil
}
