// internal/game/room_store.go
package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	roomCodeLength   = 5
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeAttempts = 16
)

// StoreConfig is shared by every room a RoomStore creates.
type StoreConfig struct {
	Rules     AuctionRules
	Catalog   CatalogSource
	Publisher ActionPublisher
	// Scheduler defaults to RealScheduler.
	Scheduler Scheduler
	// Seed feeds each room's random source; defaults to the wall clock.
	Seed   func() int64
	Logger *log.Logger
}

// RoomStore is the registry of live rooms keyed by room code. Lock order is store then room.
type RoomStore struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	cfg     StoreConfig
	newCode func() (string, error)
}

// NewRoomStore initializes an empty registry.
func NewRoomStore(cfg StoreConfig) *RoomStore {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	return &RoomStore{
		rooms:   make(map[string]*Room),
		cfg:     cfg,
		newCode: generateRoomCode,
	}
}

func generateRoomCode() (string, error) {
	out := make([]byte, roomCodeLength)
	for i := range out {
		x, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			return "", err
		}
		out[i] = roomCodeAlphabet[x.Int64()]
	}
	return string(out), nil
}

// CreateRoom opens a new room with sessionID as host.
func (s *RoomStore) CreateRoom(sessionID, name string, sink Sink) (*Room, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt == roomCodeAttempts {
			return nil, fmt.Errorf("could not allocate a free room code after %d attempts", roomCodeAttempts)
		}
		c, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := s.rooms[c]; !taken {
			code = c
			break
		}
	}

	room := newRoom(code, s.cfg)
	room.mu.Lock()
	err := room.addPlayerUnsafe(sessionID, name, sink)
	room.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.rooms[code] = room
	s.cfg.Logger.WithFields(log.Fields{"room": code, "host": sessionID}).Info("room created")
	return room, nil
}

// JoinRoom attaches sessionID to an existing room, or re-attaches it if already a member.
func (s *RoomStore) JoinRoom(code, sessionID, name string, sink Sink) (*Room, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if err := room.addPlayerUnsafe(sessionID, name, sink); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave detaches sessionID when sink is still its current connection. The room is destroyed,
// along with its timer, once the last player leaves.
func (s *RoomStore) Leave(code, sessionID string, sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	if !room.removePlayerUnsafe(sessionID, sink) {
		return
	}
	if len(room.players) == 0 {
		room.closeUnsafe()
		delete(s.rooms, code)
		s.cfg.Logger.WithField("room", code).Info("room destroyed")
	}
}

// GetRoom looks up a room by code.
func (s *RoomStore) GetRoom(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

// Rooms returns a copy of the room table.
func (s *RoomStore) Rooms() map[string]*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Room, len(s.rooms))
	for k, v := range s.rooms {
		out[k] = v
	}
	return out
}
