// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/cricket-auction/internal/game"
	"github.com/jason-s-yu/cricket-auction/internal/middleware"
	"github.com/jason-s-yu/cricket-auction/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	roomSubprotocol = "auction"

	msgCreateRoom = "create_room"
	msgJoinRoom   = "join_room"
	msgLeaveRoom  = "leave_room"

	handshakeTimeout = 30 * time.Second
	outboundBuffer   = 32

	errSessionMismatch = "sessionId does not match the session cookie"
)

// ClientMessage is one inbound frame.
type ClientMessage struct {
	Type      string                 `json:"type"`
	RoomCode  string                 `json:"roomCode,omitempty"`
	SessionID string                 `json:"sessionId,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// RoomConnection is the game.Sink for one socket. Envelopes are queued on OutChan and written
// by the connection's write pump.
type RoomConnection struct {
	SessionID string
	OutChan   chan game.Envelope
	logger    *logrus.Entry
}

func newRoomConnection(logger *logrus.Logger, remote string) *RoomConnection {
	return &RoomConnection{
		OutChan: make(chan game.Envelope, outboundBuffer),
		logger:  logger.WithField("remote", remote),
	}
}

// Send queues env without blocking. A full buffer means the client is not keeping up; the
// envelope is dropped since the next snapshot supersedes it.
func (rc *RoomConnection) Send(env game.Envelope) {
	select {
	case rc.OutChan <- env:
	default:
		rc.logger.WithField("session", rc.SessionID).Warnf("outbound buffer full, dropping %s", env.Type)
	}
}

func normalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RoomWSHandler upgrades /ws. The first message must create or join a room; everything after
// that is forwarded to the room as an action.
func (s *Server) RoomWSHandler() http.HandlerFunc {
	logger := s.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		// The session cookie has to be set before the upgrade writes the response headers.
		sessionID, sessionErr := s.EnsureSession(w, r)

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{roomSubprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != roomSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the auction subprotocol")
			return
		}
		if sessionErr != nil {
			logger.Warnf("session setup failed for %s: %v", r.RemoteAddr, sessionErr)
			c.Close(InvalidAuthTokenError, "could not establish a session")
			return
		}
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := newRoomConnection(logger, r.RemoteAddr)
		room, code, reason := s.attach(ctx, c, conn, sessionID)
		if room == nil {
			c.Close(code, reason)
			middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, errors.New(reason))
			return
		}

		go writePump(ctx, c, conn, logger)
		err = readPump(ctx, c, room, conn, logger)

		s.Store.Leave(room.Code, conn.SessionID, conn)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "left room")
	}
}

// attach reads the handshake message and creates or joins a room. On failure it has already
// sent a fatal error notice and returns the close code to use.
func (s *Server) attach(ctx context.Context, c *websocket.Conn, conn *RoomConnection, cookieSession string) (*game.Room, websocket.StatusCode, string) {
	hctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	typ, data, err := c.Read(hctx)
	if err != nil {
		return nil, websocket.StatusNormalClosure, "no handshake"
	}
	var msg ClientMessage
	if typ != websocket.MessageText || json.Unmarshal(data, &msg) != nil {
		sendWsError(ctx, c, "invalid JSON format", true)
		return nil, InvalidHandshakeError, "invalid handshake"
	}

	// Session ids are public inside a room, so a claimed id must match the signed cookie.
	if msg.SessionID != "" && msg.SessionID != cookieSession {
		conn.logger.WithField("claimed", msg.SessionID).Warn("handshake sessionId does not match session cookie")
		sendWsError(ctx, c, errSessionMismatch, true)
		return nil, InvalidAuthTokenError, errSessionMismatch
	}
	conn.SessionID = cookieSession
	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = "Guest"
	}

	var room *game.Room
	switch msg.Type {
	case msgCreateRoom:
		room, err = s.Store.CreateRoom(conn.SessionID, name, conn)
	case msgJoinRoom:
		room, err = s.Store.JoinRoom(normalizeRoomCode(msg.RoomCode), conn.SessionID, name, conn)
	default:
		sendWsError(ctx, c, "first message must be create_room or join_room", true)
		return nil, InvalidHandshakeError, "invalid handshake"
	}
	if err != nil {
		s.Logger.WithFields(logrus.Fields{"session": conn.SessionID, "room": msg.RoomCode}).Infof("%s rejected: %v", msg.Type, err)
		sendWsError(ctx, c, err.Error(), true)
		return nil, closeCodeFor(err), err.Error()
	}

	sendWsMessage(ctx, c, game.Envelope{Type: game.EnvelopeRoomJoined, RoomCode: room.Code, SessionID: conn.SessionID})
	return room, 0, ""
}

func closeCodeFor(err error) websocket.StatusCode {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return RoomNotFoundError
	case errors.Is(err, game.ErrRoomFull):
		return RoomFullError
	case errors.Is(err, game.ErrAuctionInProgress):
		return AuctionInProgressError
	case errors.Is(err, game.ErrInvalidSession):
		return InvalidAuthTokenError
	}
	return websocket.StatusInternalError
}

// readPump forwards actions to the room until the socket closes, the client leaves or the
// connection is superseded by a reconnect.
func readPump(ctx context.Context, c *websocket.Conn, room *game.Room, conn *RoomConnection, logger *logrus.Logger) error {
	entry := logger.WithFields(logrus.Fields{"room": room.Code, "session": conn.SessionID})
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			entry.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			entry.Warnf("invalid json: %v", err)
			conn.Send(game.ErrorEnvelope("invalid JSON format", false))
			continue
		}

		switch msg.Type {
		case msgLeaveRoom:
			return nil
		case msgCreateRoom, msgJoinRoom:
			conn.Send(game.ErrorEnvelope("already in a room", false))
			continue
		}

		if !room.IsAttached(conn.SessionID, conn) {
			entry.Info("connection superseded or room closed, stopping read pump")
			return nil
		}
		err = room.HandleAction(ctx, conn.SessionID, models.AuctionAction{ActionType: msg.Type, Payload: msg.Payload})
		if errors.Is(err, game.ErrRoomClosed) || errors.Is(err, game.ErrNotInRoom) {
			return nil
		}
		// Other rejections are dropped silently; the room logs them.
	}
}

// writePump drains OutChan onto the socket and keeps the connection alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *RoomConnection, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case env := <-conn.OutChan:
			data, err := json.Marshal(env)
			if err != nil {
				logger.Warnf("failed to marshal outgoing %s for %s: %v", env.Type, conn.SessionID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket for %s: %v", conn.SessionID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping to %s failed: %v. Assuming disconnect.", conn.SessionID, err)
				return
			}
		}
	}
}

// sendWsMessage writes a message directly. Only used before the write pump starts.
func sendWsMessage(ctx context.Context, c *websocket.Conn, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		logrus.Warnf("error marshaling websocket message: %v", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Write(writeCtx, websocket.MessageText, data); err != nil {
		logrus.Debugf("error writing websocket message: %v", err)
	}
}

func sendWsError(ctx context.Context, c *websocket.Conn, msg string, fatal bool) {
	sendWsMessage(ctx, c, game.ErrorEnvelope(msg, fatal))
}
