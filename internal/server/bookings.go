package server

import (
	"net/http"
	"time"

	"stayhub/pkg/domain"
)

const dateLayout = "2006-01-02"

type bookingRequest struct {
	RoomID   string `json:"roomId"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

func (s *Server) handleBookings(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pageParams(r)
		bookings, err := s.app.ListBookings(user, limit, offset)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": bookings,
			"count": len(bookings),
		})
	case http.MethodPost:
		if s.bookingLimiter != nil && !s.bookingLimiter.Allow(user.ID) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		var req bookingRequest
		if !decodeBody(w, r, &req) {
			return
		}
		dateFrom, err := time.Parse(dateLayout, req.DateFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dateFrom must be YYYY-MM-DD")
			return
		}
		dateTo, err := time.Parse(dateLayout, req.DateTo)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dateTo must be YYYY-MM-DD")
			return
		}
		booking, err := s.app.Reserve(user, req.RoomID, dateFrom, dateTo)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, booking)
	default:
		methodNotAllowed(w)
	}
}
