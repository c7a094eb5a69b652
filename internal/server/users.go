package server

import (
	"net/http"

	"stayhub/pkg/domain"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type roleUpdateRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, pair, err := s.app.Register(req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	_, pair, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowAuthAttempt(r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	refresh := cookieValue(r, refreshTokenCookie)
	if refresh == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	_, pair, err := s.app.Refresh(refresh)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	access := cookieValue(r, accessTokenCookie)
	refresh := cookieValue(r, refreshTokenCookie)
	if err := s.app.Logout(access, refresh); err != nil {
		s.writeAppError(w, err)
		return
	}
	s.clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if err := s.app.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, offset := pageParams(r)
	users, err := s.app.ListUsers(limit, offset)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
	})
}

// handleUserByID covers /users/{id} and /users/{id}/role.
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, actor domain.User) {
	if id, ok := pathID(r, "/users/"); ok {
		switch r.Method {
		case http.MethodGet:
			if actor.Role != domain.RoleAdmin && actor.ID != id {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			user, err := s.app.GetUser(id)
			if err != nil {
				s.writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, user)
		case http.MethodDelete:
			if actor.Role != domain.RoleAdmin {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			if err := s.app.DeleteUser(actor, id); err != nil {
				s.writeAppError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if id, ok := pathSubresource(r, "/users/", "/role"); ok {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		if actor.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		var req roleUpdateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		updated, err := s.app.UpdateRole(actor, id, domain.UserRole(req.Role))
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
		return
	}

	http.NotFound(w, r)
}
