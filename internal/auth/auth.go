// Package auth implements the Spotify authorization code flow with PKCE
// for browser clients.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

var (
	// ErrMissingCredentials is returned when the Spotify client ID is not set.
	ErrMissingCredentials = errors.New("missing spotify client credentials")

	// ErrStateMismatch is returned when a token exchange references an
	// unknown or expired authorization state.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// Authorization is the payload a browser client needs to start the flow.
type Authorization struct {
	URL   string `json:"authorizeUrl"`
	State string `json:"state"`
}

// Authenticator drives the PKCE flow against the Spotify accounts service.
type Authenticator struct {
	config  *oauth2.Config
	pending *pendingStore
}

// New creates an Authenticator. The client secret may be empty; PKCE public
// clients authenticate with the code verifier alone.
func New(clientID, clientSecret, redirectURI string) (*Authenticator, error) {
	if clientID == "" {
		return nil, ErrMissingCredentials
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyauth.AuthURL,
			TokenURL: spotifyauth.TokenURL,
		},
		Scopes: []string{
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopeUserLibraryRead,
			spotifyauth.ScopeUserTopRead,
		},
	}

	return &Authenticator{
		config:  config,
		pending: newPendingStore(),
	}, nil
}

// BeginAuthorization generates a state and PKCE verifier, remembers the
// verifier, and returns the authorize URL for the browser to open.
func (a *Authenticator) BeginAuthorization() (*Authorization, error) {
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state: %w", err)
	}

	verifier := oauth2.GenerateVerifier()
	a.pending.put(state, verifier)

	url := a.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return &Authorization{URL: url, State: state}, nil
}

// Exchange trades an authorization code for a token. The state must match a
// pending authorization; each state is usable once.
func (a *Authenticator) Exchange(ctx context.Context, state, code string) (*oauth2.Token, error) {
	verifier, ok := a.pending.take(state)
	if !ok {
		return nil, ErrStateMismatch
	}

	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}
	return token, nil
}

// Refresh obtains a fresh access token from a refresh token.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	source := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	return token, nil
}

// Client returns an HTTP client that authenticates requests with the token,
// refreshing it as needed.
func (a *Authenticator) Client(ctx context.Context, token *oauth2.Token) *http.Client {
	return a.config.Client(ctx, token)
}

// generateState creates a random state string for OAuth.
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
