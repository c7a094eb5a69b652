package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stayhub/internal/app"
	"stayhub/internal/metrics"
	"stayhub/internal/ratelimit"
	"stayhub/internal/util"
	"stayhub/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	AuthLimiter    *ratelimit.FixedWindowLimiter
	BookingLimiter *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	AllowedOrigins []string
	CookieSecure   bool
}

// Server exposes the HTTP API.
type Server struct {
	app            *app.App
	authLimiter    *ratelimit.FixedWindowLimiter
	bookingLimiter *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	cookieSecure   bool
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		authLimiter:    cfg.AuthLimiter,
		bookingLimiter: cfg.BookingLimiter,
		trustedProxies: cfg.TrustedProxies,
		allowedOrigins: cfg.AllowedOrigins,
		cookieSecure:   cfg.CookieSecure,
		mux:            http.NewServeMux(),
	}
	metrics.Register()
	s.routes()
	return s
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = withMetrics(h)
	h = util.WithSecurityHeaders(h)
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithRequestLog(h)
	h = util.WithRequestID(h)
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())

	// users and auth
	s.mux.HandleFunc("/users/register", s.handleRegister)
	s.mux.HandleFunc("/users/login", s.handleLogin)
	s.mux.HandleFunc("/users/refresh", s.handleRefresh)
	s.mux.HandleFunc("/users/logout", s.handleLogout)
	s.mux.Handle("/users/change-password", s.authenticated(s.handleChangePassword))
	s.mux.Handle("/users", s.adminOnly(s.handleListUsers))
	s.mux.Handle("/users/", s.authenticated(s.handleUserByID))

	// catalog: reads are public, writes check roles per method
	s.mux.HandleFunc("/hotels", s.handleHotels)
	s.mux.HandleFunc("/hotels/", s.handleHotelByID)
	s.mux.HandleFunc("/rooms", s.handleRooms)
	s.mux.HandleFunc("/rooms/", s.handleRoomByID)
	s.mux.HandleFunc("/facilities", s.handleFacilities)

	// bookings
	s.mux.Handle("/bookings", s.authenticated(s.handleBookings))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		next(w, r, user)
	})
}

// requireUser resolves the access cookie to a live user, writing the
// rejection itself when that fails.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	cookie, err := r.Cookie(accessTokenCookie)
	if err != nil || cookie.Value == "" {
		metrics.IncAuthFailure()
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	user, err := s.app.UserFromAccessToken(cookie.Value)
	if err != nil {
		metrics.IncAuthFailure()
		s.writeAppError(w, err)
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return domain.User{}, false
	}
	if user.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return domain.User{}, false
	}
	return user, true
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

// writeAppError maps application sentinel errors onto HTTP statuses. This
// is the only place that knows the mapping.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrUserNotFound),
		errors.Is(err, app.ErrHotelNotFound),
		errors.Is(err, app.ErrRoomNotFound),
		errors.Is(err, app.ErrFacilityNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists),
		errors.Is(err, app.ErrAlreadyExists),
		errors.Is(err, app.ErrBookingConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidRange):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) allowAuthAttempt(r *http.Request) bool {
	if s.authLimiter == nil {
		return true
	}
	return s.authLimiter.Allow(util.ClientIP(r, s.trustedProxies))
}

// helpers

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return limit, offset
}

func pathID(r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// pathSubresource extracts {id} from prefix + {id} + suffix paths.
func pathSubresource(r *http.Request, prefix, suffix string) (string, bool) {
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	if !strings.HasSuffix(rest, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(rest, suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (r *metricsRecorder) WriteHeader(statusCode int) {
	r.status = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &metricsRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.IncHTTP(r.Method, strconv.Itoa(rec.status))
	})
}
