// Package auth signs the local account in against the chat backend and
// keeps its tokens in the secure store.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bashchat/bashchatd/internal/bus"
	"github.com/bashchat/bashchatd/internal/secure"
	"github.com/bashchat/bashchatd/internal/state"
	"github.com/bashchat/bashchatd/internal/wire"
)

const (
	keyCredentials = "credentials"
	keyTokens      = "tokens"
)

// Tokens is the access/refresh pair the backend issues on sign-in.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Credentials is the username/password pair kept for silent re-auth.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// authResponse is the body of both signin and signup responses.
type authResponse struct {
	User   wire.User `json:"user"`
	Tokens Tokens    `json:"tokens"`
}

// Client authenticates against the backend over HTTP and implements the
// socket's token source.
type Client struct {
	addr   string
	http   *http.Client
	secure *secure.Store
	store  *state.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewClient creates an auth client. addr is host:port of the backend.
func NewClient(addr string, sec *secure.Store, st *state.Store, b *bus.Bus, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		addr:   addr,
		http:   &http.Client{Timeout: 15 * time.Second},
		secure: sec,
		store:  st,
		bus:    b,
		logger: logger,
	}
}

// SignIn authenticates with the backend and persists credentials, tokens
// and the account profile.
func (c *Client) SignIn(ctx context.Context, username, password string) (*wire.User, error) {
	resp, err := c.post(ctx, "/chat/signin/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return c.adopt(resp, Credentials{Username: username, Password: password})
}

// SignUp creates a new account and signs it in.
func (c *Client) SignUp(ctx context.Context, username, firstName, lastName, password string) (*wire.User, error) {
	resp, err := c.post(ctx, "/chat/signup/", map[string]string{
		"username":   username,
		"first_name": firstName,
		"last_name":  lastName,
		"password":   password,
	})
	if err != nil {
		return nil, err
	}
	return c.adopt(resp, Credentials{Username: username, Password: password})
}

// Resume re-authenticates silently with stored credentials. Tokens expire
// between runs, so a fresh sign-in is the only reliable way back in.
// Returns false with nil error when no credentials are stored.
func (c *Client) Resume(ctx context.Context) (bool, error) {
	var creds Credentials
	found, err := c.secure.Get(keyCredentials, &creds)
	if err != nil {
		return false, err
	}
	if !found || creds.Username == "" {
		return false, nil
	}

	if _, err := c.SignIn(ctx, creds.Username, creds.Password); err != nil {
		return false, err
	}
	c.logger.Info("session resumed", zap.String("username", creds.Username))
	return true, nil
}

// AccessToken returns the stored access token, or "" when the account is
// signed out. Satisfies the socket manager's token source.
func (c *Client) AccessToken() (string, error) {
	var tokens Tokens
	found, err := c.secure.Get(keyTokens, &tokens)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return tokens.Access, nil
}

// Logout wipes stored credentials and tokens, clears in-memory state and
// announces the sign-out.
func (c *Client) Logout() error {
	if err := c.secure.Wipe(); err != nil {
		return fmt.Errorf("wipe secure store: %w", err)
	}
	c.store.Reset()
	if c.bus != nil {
		c.bus.Publish(bus.Event{Kind: bus.KindSessionLoggedOut, Timestamp: time.Now()})
	}
	c.logger.Info("logged out")
	return nil
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (*authResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.addr+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var parsed authResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", path, err)
	}
	return &parsed, nil
}

func (c *Client) adopt(resp *authResponse, creds Credentials) (*wire.User, error) {
	if err := c.secure.Set(keyCredentials, creds); err != nil {
		return nil, err
	}
	if err := c.secure.Set(keyTokens, resp.Tokens); err != nil {
		return nil, err
	}
	c.store.SetUser(resp.User)
	c.logger.Info("signed in", zap.String("username", resp.User.Username))
	return &resp.User, nil
}
