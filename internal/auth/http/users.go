package http

import (
	"net/http"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
	"github.com/schmeconomics/schmeconomics/pkg/httpx"
)

// UserHandler serves the /v1/users endpoints. Every route runs behind
// AuthnMiddleware and RequireRole.
type UserHandler struct {
	Users *service.UserService
}

// HandleMe godoc
//
//	@Summary	Current user
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	authsdk.UserResponse
//	@Failure	401	{object}	httpx.APIError
//	@Router		/v1/users/me [get]
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := httpx.UserFromContext[domain.User](r.Context())
	if !ok {
		httpx.ErrUnauthorized.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleGetByID godoc
//
//	@Summary	User by id
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User id"
//	@Success	200	{object}	authsdk.UserResponse
//	@Failure	404	{object}	httpx.APIError
//	@Router		/v1/users/{id} [get]
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleGetByName godoc
//
//	@Summary	User by name
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		name	path		string	true	"User name"
//	@Success	200		{object}	authsdk.UserResponse
//	@Failure	404		{object}	httpx.APIError
//	@Router		/v1/users/by-name/{name} [get]
func (h *UserHandler) HandleGetByName(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUserByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleCreate godoc
//
//	@Summary	Create user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		authsdk.CreateUserRequest	true	"New user"
//	@Success	201		{object}	authsdk.UserResponse
//	@Failure	400		{object}	httpx.APIError
//	@Failure	403		{object}	httpx.APIError
//	@Failure	409		{object}	httpx.APIError
//	@Router		/v1/users [post]
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateUserRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	role := domain.RoleUser
	if req.Role != "" {
		parsed, err := domain.ParseRole(req.Role)
		if err != nil {
			httpx.ErrBadRequest.WithDescription(err.Error()).WriteError(w)
			return
		}
		role = parsed
	}

	user, err := h.Users.CreateUser(r.Context(), req.Name, req.Password, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// HandleUpdate godoc
//
//	@Summary		Update user
//	@Description	Updates the caller. Admins may set user_id to update another user.
//	@Description	Changing the password signs the user out everywhere.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.UpdateUserRequest	true	"Changes"
//	@Success		200		{object}	authsdk.UserResponse
//	@Failure		400		{object}	httpx.APIError
//	@Failure		403		{object}	httpx.APIError
//	@Failure		404		{object}	httpx.APIError
//	@Failure		409		{object}	httpx.APIError
//	@Router			/v1/users [put]
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpx.UserFromContext[domain.User](r.Context())
	if !ok {
		httpx.ErrUnauthorized.WriteError(w)
		return
	}

	var req authsdk.UpdateUserRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.ErrBadRequest.WithDescription("invalid JSON body").WriteError(w)
		return
	}

	user, err := h.Users.UpdateUser(r.Context(), actor, service.UpdateUserRequest{
		UserID:   req.UserID,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// HandleDelete godoc
//
//	@Summary	Delete user
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"User id"
//	@Success	200	{object}	authsdk.UserResponse
//	@Failure	403	{object}	httpx.APIError
//	@Failure	404	{object}	httpx.APIError
//	@Router		/v1/users/{id} [delete]
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.DeleteUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
