package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gallery/internal/api"
	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/dmitrijs2005/gallery/internal/server/models"
	"github.com/gorilla/mux"
)

func (s *HTTPServer) login(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.users.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, api.LoginResponse{
		Success:   true,
		User:      toAPIUser(&res.User),
		Token:     res.Token.Token,
		ExpiresAt: res.Token.ExpiresAt,
	})
}

func (s *HTTPServer) register(w http.ResponseWriter, r *http.Request) {
	var req api.Credentials
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.users.Register(r.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, api.RegisterResponse{Message: "user registered", UserID: u.ID})
}

func (s *HTTPServer) me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	writeJSON(w, http.StatusOK, api.Identity{
		UserID:    id.UserID,
		UserName:  id.UserName,
		IssuedAt:  id.IssuedAt,
		ExpiresAt: id.ExpiresAt,
	})
}

func (s *HTTPServer) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]api.User, 0, len(list))
	for i := range list {
		out = append(out, toAPIUser(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIUser(u))
}

func (s *HTTPServer) updateUser(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller, _ := auth.IdentityFromContext(r.Context())
	u, err := s.users.UpdateUser(r.Context(), caller, mux.Vars(r)["id"], req.UserName, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAPIUser(u))
}

func (s *HTTPServer) deleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())
	if err := s.users.DeleteUser(r.Context(), caller, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "user deleted")
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Ping(r.Context()); err != nil {
		s.logger.Error(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

// writeError maps a service error to a status code. Infrastructure failures
// are logged with detail and answered with a generic message. They are
// matched first so their text is never echoed, whatever else they wrap.
func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, common.ErrHashingFailure),
		errors.Is(err, context.DeadlineExceeded):
		s.logger.Error(r.Context(), "request failed", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "service unavailable")
	case errors.Is(err, common.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrForbidden):
		writeMessage(w, http.StatusForbidden, common.ErrForbidden.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "user not found")
	case errors.Is(err, common.ErrDuplicateUserName):
		writeMessage(w, http.StatusConflict, common.ErrDuplicateUserName.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func toAPIUser(u *models.User) api.User {
	return api.User{UserID: u.ID, UserName: u.UserName}
}
