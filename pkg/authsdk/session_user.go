package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Me returns the signed-in user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	return s.user(ctx, http.MethodGet, "/v1/users/me", nil, http.StatusOK)
}

// GetUser returns the user with the given id.
func (s *Session) GetUser(ctx context.Context, id string) (*UserResponse, error) {
	return s.user(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id), nil, http.StatusOK)
}

// GetUserByName returns the user with the given name.
func (s *Session) GetUserByName(ctx context.Context, name string) (*UserResponse, error) {
	return s.user(ctx, http.MethodGet, "/v1/users/by-name/"+url.PathEscape(name), nil, http.StatusOK)
}

// CreateUser adds a user. Requires the Admin role.
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	return s.user(ctx, http.MethodPost, "/v1/users", req, http.StatusCreated)
}

// UpdateUser changes the caller, or with the Admin role any user.
func (s *Session) UpdateUser(ctx context.Context, req UpdateUserRequest) (*UserResponse, error) {
	return s.user(ctx, http.MethodPut, "/v1/users", req, http.StatusOK)
}

// DeleteUser removes a user. Requires the Admin role.
func (s *Session) DeleteUser(ctx context.Context, id string) (*UserResponse, error) {
	return s.user(ctx, http.MethodDelete, "/v1/users/"+url.PathEscape(id), nil, http.StatusOK)
}

func (s *Session) user(ctx context.Context, method, path string, body any, expected int) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var u UserResponse
	if err := decodeJSON(resp, &u, expected); err != nil {
		return nil, err
	}
	return &u, nil
}
