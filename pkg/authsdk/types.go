package authsdk

import "time"

// RefreshTokenCookie is the cookie carrying the refresh token.
const RefreshTokenCookie = "refreshToken"

// SignInRequest is the body of POST /v1/auth/signin.
type SignInRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// TokenResponse is returned by sign-in and refresh. The refresh token
// travels in the refreshToken cookie, not in the body.
type TokenResponse struct {
	// AccessToken is the JWT used as a bearer token.
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	ExpiresIn int `json:"expires_in"`
}

// UserResponse describes a user. The password hash is never exposed.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the body of PUT /v1/users. Nil fields are left
// unchanged and a nil UserID targets the caller.
type UpdateUserRequest struct {
	UserID   *string `json:"user_id,omitempty"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the dependencies checked by /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Secrets  string `json:"secrets"`
}
