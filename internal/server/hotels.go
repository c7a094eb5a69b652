package server

import (
	"net/http"
)

type hotelRequest struct {
	Title    string            `json:"title"`
	Location string            `json:"location"`
	Details  map[string]string `json:"details"`
}

type roomRequest struct {
	HotelID     string   `json:"hotelId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Quantity    int      `json:"quantity"`
	FacilityIDs []string `json:"facilityIds"`
}

// roomUpdateRequest uses pointers so an absent field and a zero value can
// be told apart.
type roomUpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
	FacilityIDs []string `json:"facilityIds"`
}

type facilityRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleHotels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pageParams(r)
		hotels, err := s.app.ListHotels(limit, offset)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": hotels,
			"count": len(hotels),
		})
	case http.MethodPost:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		var req hotelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		hotel, err := s.app.CreateHotel(req.Title, req.Location, req.Details)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, hotel)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHotelByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/hotels/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		hotel, err := s.app.GetHotel(id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hotel)
	case http.MethodDelete:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		if err := s.app.DeleteHotel(id); err != nil {
			s.writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pageParams(r)
		rooms, err := s.app.ListRooms(limit, offset)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": rooms,
			"count": len(rooms),
		})
	case http.MethodPost:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		var req roomRequest
		if !decodeBody(w, r, &req) {
			return
		}
		room, err := s.app.CreateRoom(req.HotelID, req.Title, req.Description, req.Price, req.Quantity, req.FacilityIDs)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, room)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRoomByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "/rooms/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		room, err := s.app.GetRoom(id)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
	case http.MethodPatch:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		var req roomUpdateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		room, err := s.app.UpdateRoom(id, req.Title, req.Description, req.Price, req.Quantity, req.FacilityIDs)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, room)
	case http.MethodDelete:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		if err := s.app.DeleteRoom(id); err != nil {
			s.writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := pageParams(r)
		facilities, err := s.app.ListFacilities(limit, offset)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": facilities,
			"count": len(facilities),
		})
	case http.MethodPost:
		if _, ok := s.requireAdmin(w, r); !ok {
			return
		}
		var req facilityRequest
		if !decodeBody(w, r, &req) {
			return
		}
		facility, err := s.app.CreateFacility(req.Title)
		if err != nil {
			s.writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, facility)
	default:
		methodNotAllowed(w)
	}
}
