package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/leduongnhattt/Food-Delivery-App-sub002/internal/config"
)

// OAuthIdentity is what the login flow needs from the provider: a stable
// identity plus profile fields.
type OAuthIdentity struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// OAuthService exchanges authorization codes with the external OAuth
// provider. Only the request/response contract is modeled; provider
// internals stay opaque.
type OAuthService struct {
	cfg    *config.OAuthConfig
	client *http.Client
	retry  RetryPolicy
}

func NewOAuthService(cfg *config.OAuthConfig) *OAuthService {
	return &OAuthService{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry:  ProviderRetryPolicy(),
	}
}

func (s *OAuthService) IsEnabled() bool {
	return s.cfg.Enabled
}

// Exchange trades an authorization code for tokens, then fetches the user
// profile. Timeout-class failures are retried; everything else fails the
// login immediately.
func (s *OAuthService) Exchange(code string) (*OAuthIdentity, error) {
	if !s.cfg.Enabled {
		return nil, errors.New("oauth login is disabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accessToken, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return s.fetchUserInfo(ctx, accessToken)
}

func (s *OAuthService) exchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("redirect_uri", s.cfg.RedirectURL)

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}

	err := s.retry.Do(ctx, "oauth token exchange", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("oauth token endpoint returned %d", resp.StatusCode)
		}
		return json.Unmarshal(body, &tokenResp)
	})
	if err != nil {
		return "", err
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("oauth provider returned no access token")
	}
	return tokenResp.AccessToken, nil
}

func (s *OAuthService) fetchUserInfo(ctx context.Context, accessToken string) (*OAuthIdentity, error) {
	var identity OAuthIdentity

	err := s.retry.Do(ctx, "oauth userinfo", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.UserInfoURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("oauth userinfo endpoint returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&identity)
	})
	if err != nil {
		return nil, err
	}
	if identity.Email == "" {
		return nil, errors.New("oauth provider returned no email")
	}
	return &identity, nil
}
