// Package spotify is a thin client for the parts of the Spotify Web API the
// application consumes: the OAuth authorization-code flow, refresh-token
// exchange, and the two read-only "top items" endpoints.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	spotifyoauth "golang.org/x/oauth2/spotify"
)

// Scopes requested when linking an account. user-top-read covers the top
// artists/tracks endpoints; user-read-private is what the original app asked
// for alongside it.
const Scopes = "user-top-read user-read-private"

// TokenSet is the result of an authorization-code or refresh exchange,
// mirroring the provider's token response fields that get persisted.
type TokenSet struct {
	AccessToken  string
	TokenType    string
	Scope        string
	ExpiresIn    int64
	RefreshToken string
}

// Client performs outbound calls to accounts.spotify.com and api.spotify.com.
type Client struct {
	oauth *oauth2.Config

	// APIBaseURL is overridable so tests can point the client at a fake
	// provider. Defaults to the real Web API.
	APIBaseURL string

	httpClient *http.Client
}

// NewClient constructs a Client from the application's OAuth credentials.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"user-top-read", "user-read-private"},
			Endpoint:     spotifyoauth.Endpoint,
		},
		APIBaseURL: "https://api.spotify.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// OverrideAuthEndpoint redirects the OAuth endpoints, for tests.
func (c *Client) OverrideAuthEndpoint(authURL, tokenURL string) {
	c.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

// AuthCodeURL builds the consent-page URL the user is redirected to.
// show_dialog forces the consent screen even for previously linked accounts,
// matching the original flow.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange swaps an authorization code for a token set.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("spotify code exchange failed: %w", err)
	}
	return tokenSetFromOAuth(token), nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("spotify token refresh failed: %w", err)
	}
	set := tokenSetFromOAuth(token)
	if set.RefreshToken == "" {
		// Spotify does not rotate refresh tokens; keep the one we had.
		set.RefreshToken = refreshToken
	}
	return set, nil
}

// tokenSetFromOAuth flattens an oauth2.Token into the fields we persist.
// scope and expires_in live in the raw response extras.
func tokenSetFromOAuth(token *oauth2.Token) *TokenSet {
	set := &TokenSet{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		set.Scope = scope
	}
	switch v := token.Extra("expires_in").(type) {
	case float64:
		set.ExpiresIn = int64(v)
	case int64:
		set.ExpiresIn = v
	default:
		// Fall back to the parsed expiry the oauth2 package computed.
		if !token.Expiry.IsZero() {
			set.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
		}
	}
	return set
}

// topItemsResponse matches the slice of the provider's (very large) top-items
// payload this application actually reads: the item names.
type topItemsResponse struct {
	Items []struct {
		Name string `json:"name"`
	} `json:"items"`
}

// TopArtists returns the names of the user's top artists, using the
// caller-supplied provider access token.
func (c *Client) TopArtists(ctx context.Context, accessToken string) ([]string, error) {
	return c.topItems(ctx, accessToken, "/me/top/artists")
}

// TopTracks returns the names of the user's top tracks.
func (c *Client) TopTracks(ctx context.Context, accessToken string) ([]string, error) {
	return c.topItems(ctx, accessToken, "/me/top/tracks")
}

func (c *Client) topItems(ctx context.Context, accessToken, path string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify API returned status %d for %s", resp.StatusCode, path)
	}

	var payload topItemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("could not decode spotify response: %w", err)
	}

	names := make([]string, len(payload.Items))
	for i, item := range payload.Items {
		names[i] = item.Name
	}
	return names, nil
}
