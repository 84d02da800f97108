package mailbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// TokenSaver persists refreshed credentials for a stored mailbox
type TokenSaver interface {
	UpdateEmailAccountTokens(ctx context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error
}

// persistingSource writes a token back to the store whenever the access
// token changes. Save failures are logged and the token is still returned.
type persistingSource struct {
	ctx       context.Context
	base      oauth2.TokenSource
	saver     TokenSaver
	accountId string

	mu   sync.Mutex
	last string
}

func newPersistingSource(ctx context.Context, base oauth2.TokenSource, saver TokenSaver, accountId, current string) oauth2.TokenSource {
	if saver == nil || accountId == "" {
		return base
	}
	return &persistingSource{
		ctx:       ctx,
		base:      base,
		saver:     saver,
		accountId: accountId,
		last:      current,
	}
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}

	if err := s.saver.UpdateEmailAccountTokens(s.ctx, s.accountId, tok.AccessToken, tok.RefreshToken, tok.Expiry); err != nil {
		zap.L().Warn("Failed to persist refreshed token", zap.String("account_id", s.accountId), zap.Error(err))
		return tok, nil
	}
	s.last = tok.AccessToken
	zap.L().Debug("Persisted refreshed token", zap.String("account_id", s.accountId))
	return tok, nil
}
