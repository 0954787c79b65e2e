package authsdk

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// ErrNoRefreshToken is returned when the server did not set the refresh
// token cookie.
var ErrNoRefreshToken = errors.New("authsdk: response carried no refresh token")

// SDKClient is a client for the schmeconomics authentication service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// ForwardedFor, when set, is sent as X-Forwarded-For on sign-in and
	// refresh. Only useful against a server that trusts proxy headers.
	ForwardedFor string
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignIn authenticates with name and password and returns a Session.
func (c *SDKClient) SignIn(ctx context.Context, name, password string) (*Session, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/signin", SignInRequest{
		Name:     name,
		Password: password,
	})
	if err != nil {
		return nil, err
	}
	c.forward(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, err
	}
	refresh := refreshCookie(resp)
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}
	return newSession(c, tok, refresh), nil
}

// Refresh exchanges refreshToken for a new token pair. The returned string
// is the rotated refresh token.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/refresh", nil)
	if err != nil {
		return nil, "", err
	}
	if refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refreshToken})
	}
	c.forward(req)

	resp, err := c.do(req)
	if err != nil {
		return nil, "", err
	}

	var tok TokenResponse
	if err := decodeJSON(resp, &tok, http.StatusOK); err != nil {
		return nil, "", err
	}
	rotated := refreshCookie(resp)
	if rotated == "" {
		return nil, "", ErrNoRefreshToken
	}
	return &tok, rotated, nil
}

// SignOut revokes the session family of refreshToken.
func (c *SDKClient) SignOut(ctx context.Context, refreshToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/v1/auth/signout", nil)
	if err != nil {
		return err
	}
	if refreshToken != "" {
		req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: refreshToken})
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

func (c *SDKClient) forward(req *http.Request) {
	if c.ForwardedFor != "" {
		req.Header.Set("X-Forwarded-For", c.ForwardedFor)
	}
}
