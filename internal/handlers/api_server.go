// internal/handlers/api_server.go
package handlers

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/jason-s-yu/cricket-auction/internal/auth"
	"github.com/jason-s-yu/cricket-auction/internal/game"
	"github.com/jason-s-yu/cricket-auction/internal/middleware"
	"github.com/sirupsen/logrus"
)

// Server holds what the HTTP and WebSocket handlers share.
type Server struct {
	Store    *game.RoomStore
	Sessions *auth.SessionIssuer
	Logger   *logrus.Logger
}

func NewServer(store *game.RoomStore, sessions *auth.SessionIssuer, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{Store: store, Sessions: sessions, Logger: logger}
}

// Router wires every endpoint behind the request logger.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.LogMiddleware(s.Logger))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.RoomWSHandler())
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// RoomSummary is one row of the room listing.
type RoomSummary struct {
	Code    string      `json:"code"`
	Status  game.Status `json:"status"`
	Players int         `json:"players"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.Store.Rooms()
	out := make([]RoomSummary, 0, len(rooms))
	for code, room := range rooms {
		out = append(out, RoomSummary{Code: code, Status: room.Status(), Players: room.PlayerCount()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := normalizeRoomCode(mux.Vars(r)["code"])
	room, ok := s.Store.GetRoom(code)
	if !ok {
		writeJSONError(w, http.StatusNotFound, game.ErrRoomNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, room.Snapshot())
}
