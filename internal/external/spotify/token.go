package spotify

import (
	"context"
	"fmt"
	"net/http"

	"pulsedj/internal/config"

	"golang.org/x/oauth2"
	spotifyoauth "golang.org/x/oauth2/spotify"
)

// RefreshTokenProvider выдает bearer токен через refresh token flow
type RefreshTokenProvider struct {
	source oauth2.TokenSource
}

var _ TokenProvider = (*RefreshTokenProvider)(nil)

// NewRefreshTokenProvider создает поставщика токенов на основе refresh токена
func NewRefreshTokenProvider(cfg config.SpotifyConfig) *RefreshTokenProvider {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     spotifyoauth.Endpoint,
	}

	source := oauthConfig.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	})

	return &RefreshTokenProvider{
		// ReuseTokenSource кэширует access токен до истечения срока
		source: oauth2.ReuseTokenSource(nil, source),
	}
}

// Token возвращает действующий access токен, обновляя его при необходимости
func (p *RefreshTokenProvider) Token(_ context.Context) (string, error) {
	token, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return token.AccessToken, nil
}

// tokenTransport добавляет токен к каждому запросу
type tokenTransport struct {
	base     http.RoundTripper
	provider TokenProvider
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.provider.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to get bearer token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}
