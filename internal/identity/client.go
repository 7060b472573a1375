// Package identity is a client for the hosted identity provider
// (a GoTrue/Supabase auth API) built on auth-go. Passwords are verified by
// the provider; this service only relays them and keeps the returned identity.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/types"
	auth "github.com/supabase-community/auth-go"
	authtypes "github.com/supabase-community/auth-go/types"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 15 * time.Second

var (
	// ErrInvalidCredentials is returned when the provider rejects an email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoIdentity is returned when the provider answers without a user.
	ErrNoIdentity = errors.New("provider returned no user")
)

// Error represents an unexpected provider response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("identity %s failed", e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Session is the result of a successful sign-in or sign-up. AccessToken is
// empty when the provider requires email confirmation before issuing one.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Identity     types.Identity
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (r errorResponse) text() string {
	for _, s := range []string{r.ErrorDescription, r.Msg, r.Message, r.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// exchange is the transport of a single provider call. auth-go takes no
// context and folds failures into plain errors, so the transport binds the
// caller's context and keeps the status and error body.
type exchange struct {
	ctx    context.Context
	base   http.RoundTripper
	status int
	body   []byte
}

func (x *exchange) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := x.base.RoundTrip(req.WithContext(x.ctx))
	if err != nil {
		return nil, err
	}
	x.status = resp.StatusCode
	if resp.StatusCode >= 300 {
		x.body, _ = io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(x.body))
	}
	return resp, nil
}

// Client talks to the identity provider.
type Client struct {
	api       auth.Client
	timeout   time.Duration
	transport http.RoundTripper
}

// NewClient creates a client for the provider at baseURL. The auth API is
// expected under baseURL + "/auth/v1".
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	api := auth.New("", apiKey).
		WithCustomAuthURL(strings.TrimRight(baseURL, "/") + "/auth/v1")
	return &Client{
		api:       api,
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
}

// SignIn exchanges an email/password pair for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp *authtypes.TokenResponse
	status, err := c.call(ctx, "sign-in", "", func(api auth.Client) error {
		var err error
		resp, err = api.Token(authtypes.TokenRequest{
			GrantType: "password",
			Email:     email,
			Password:  password,
		})
		return err
	})
	if err != nil {
		return nil, credentialsError(status, err)
	}
	return newSession(resp.Session, resp.User)
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var resp *authtypes.SignupResponse
	status, err := c.call(ctx, "sign-up", "", func(api auth.Client) error {
		var err error
		resp, err = api.Signup(authtypes.SignupRequest{
			Email:    email,
			Password: password,
		})
		return err
	})
	if err != nil {
		return nil, credentialsError(status, err)
	}

	// While confirmation is pending the provider answers with the bare user.
	user := resp.User
	if user.ID == uuid.Nil {
		user = resp.Session.User
	}
	return newSession(resp.Session, user)
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.call(ctx, "sign-out", accessToken, func(api auth.Client) error {
		return api.Logout()
	})
	return err
}

func (c *Client) call(ctx context.Context, op, token string, fn func(auth.Client) error) (int, error) {
	x := &exchange{ctx: ctx, base: c.transport}
	api := c.api.WithClient(http.Client{Timeout: c.timeout, Transport: x})
	if token != "" {
		api = api.WithToken(token)
	}

	err := fn(api)
	if x.status >= 300 {
		var body errorResponse
		_ = json.Unmarshal(x.body, &body)
		return x.status, &Error{Op: op, StatusCode: x.status, Message: body.text()}
	}
	if err != nil {
		return x.status, &Error{Op: op, StatusCode: x.status, Message: "request failed", Cause: err}
	}
	return x.status, nil
}

func credentialsError(status int, err error) error {
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return err
}

func newSession(s authtypes.Session, user authtypes.User) (*Session, error) {
	if user.ID == uuid.Nil {
		return nil, ErrNoIdentity
	}
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		Identity: types.Identity{
			ExternalID: user.ID.String(),
			Email:      user.Email,
		},
	}, nil
}
