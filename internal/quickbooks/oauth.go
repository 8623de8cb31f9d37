package quickbooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finlens/ledgersync/internal/models"
)

// OAuthConfig holds the client credentials and Intuit OAuth endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       string
	AuthURL      string
	TokenURL     string
}

// TokenSet is the token endpoint response plus the realm the tokens
// belong to.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	RealmID      string `json:"-"`
}

// ExpiresAt converts the relative expiry into an absolute deadline.
func (t *TokenSet) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// OAuthClient drives the authorization-code and refresh-token flows
// against Intuit's token endpoint.
type OAuthClient struct {
	config     OAuthConfig
	httpClient *http.Client
}

func NewOAuthClient(config OAuthConfig) *OAuthClient {
	return &OAuthClient{
		config:     config,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizationURL builds the browser redirect URL. The caller encodes
// the company id into state so the callback can resolve the tenant
// without a session.
func (c *OAuthClient) AuthorizationURL(state string) string {
	u, _ := url.Parse(c.config.AuthURL)
	q := u.Query()

	q.Set("client_id", c.config.ClientID)
	q.Set("scope", c.config.Scopes)
	q.Set("redirect_uri", c.config.RedirectURI)
	q.Set("response_type", "code")
	q.Set("state", state)

	u.RawQuery = q.Encode()
	return u.String()
}

// ExchangeCode trades an authorization code for the initial token set.
func (c *OAuthClient) ExchangeCode(ctx context.Context, code, realmID string) (*TokenSet, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", c.config.RedirectURI)

	tokens, err := c.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	tokens.RealmID = realmID
	return tokens, nil
}

// Refresh trades the connection's refresh token for a new token set.
// Intuit may omit the refresh token from the response; the prior value
// is retained in that case.
func (c *OAuthClient) Refresh(ctx context.Context, conn *models.Connection) (*TokenSet, error) {
	if conn == nil {
		return nil, ErrNoConnection
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", conn.RefreshToken)

	tokens, err := c.tokenRequest(ctx, data)
	if err != nil {
		return nil, err
	}

	if tokens.RefreshToken == "" {
		tokens.RefreshToken = conn.RefreshToken
	}
	tokens.RealmID = conn.RealmID
	return tokens, nil
}

func (c *OAuthClient) tokenRequest(ctx context.Context, data url.Values) (*TokenSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.config.ClientID, c.config.ClientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &AuthError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokens TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	return &tokens, nil
}
