// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError    websocket.StatusCode = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError  websocket.StatusCode = 3001 // Session could not be established.
	InvalidHandshakeError  websocket.StatusCode = 3002 // First message was not create_room or join_room.
	RoomNotFoundError      websocket.StatusCode = 3003 // Room code in join_room does not exist.
	RoomFullError          websocket.StatusCode = 3004 // Room already holds the maximum number of players.
	AuctionInProgressError websocket.StatusCode = 3005 // Room has left the lobby and takes no new players.
)
