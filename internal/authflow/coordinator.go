package authflow

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultPollTimeout = 2 * time.Minute

// Exchanger swaps an authorization code for a provider access token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// OAuthExchanger implements Exchanger over an oauth2 client configuration.
type OAuthExchanger struct {
	Config *oauth2.Config
}

// Exchange performs the code exchange against the provider token endpoint.
// Single attempt; the human restarts the flow on failure.
func (e *OAuthExchanger) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := e.Config.Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// CoordinatorConfig wires the collaborators a Coordinator needs.
type CoordinatorConfig struct {
	Registry     *Registry
	Exchanger    Exchanger
	AuthorizeURL func(state string) string
	PollTimeout  time.Duration
}

// Coordinator orchestrates the out-of-band handshake: issue a session, accept
// the provider redirect, and hand the token to the waiting client. All
// cross-request communication goes through the Registry.
type Coordinator struct {
	registry     *Registry
	exchanger    Exchanger
	authorizeURL func(state string) string
	pollTimeout  time.Duration
}

// NewCoordinator validates the configuration and returns a Coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Exchanger == nil {
		return nil, errors.New("exchanger is required")
	}
	if cfg.AuthorizeURL == nil {
		return nil, errors.New("authorize URL builder is required")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}

	return &Coordinator{
		registry:     cfg.Registry,
		exchanger:    cfg.Exchanger,
		authorizeURL: cfg.AuthorizeURL,
		pollTimeout:  cfg.PollTimeout,
	}, nil
}

// StartSession allocates a pending session the client polls with.
func (c *Coordinator) StartSession() string {
	return c.registry.Create()
}

// AuthorizeURL binds a fresh CSRF state to the session and returns the
// provider authorize URL embedding it.
func (c *Coordinator) AuthorizeURL(sessionID string) (string, error) {
	state, err := c.registry.BindState(sessionID)
	if err != nil {
		return "", err
	}
	return c.authorizeURL(state), nil
}

// CompleteRedirect handles the provider redirect: verifies the state against
// the handshake it was issued for, exchanges the code, and delivers the token
// into the matching session. Fails closed before the exchange on any state
// mismatch.
func (c *Coordinator) CompleteRedirect(ctx context.Context, code, returnedState string) (token, sessionID string, err error) {
	sessionID, expected, ok := c.registry.ResolveState(returnedState)
	if !ok || subtle.ConstantTimeCompare([]byte(returnedState), []byte(expected)) != 1 {
		log.Warn().Msg("redirect with unknown or mismatched state")
		return "", "", ErrStateMismatch
	}

	token, err = c.exchanger.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if err := c.registry.Deliver(sessionID, token); err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// DeliverToken completes the browser-posted leg used when only the page
// knows the session id.
func (c *Coordinator) DeliverToken(sessionID, token string) error {
	return c.registry.Deliver(sessionID, token)
}

// PollToken waits up to the configured bound for the session token.
// Unknown sessions are reported distinctly from waits that time out.
func (c *Coordinator) PollToken(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pollTimeout)
	defer cancel()
	return c.registry.Take(ctx, sessionID)
}
