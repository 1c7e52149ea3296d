// internal/game/events.go
package game

import "errors"

// Inbound action types accepted by Room.HandleAction.
const (
	ActionToggleReady           = "toggle_ready"
	ActionToggleReadyForAuction = "toggle_ready_for_auction"
	ActionUpdateRules           = "update_rules"
	ActionDrawPools             = "draw_pools"
	ActionStartAuction          = "start_auction"
	ActionPlaceBid              = "place_bid"
	ActionPassTurn              = "pass_turn"
	ActionDropFromRound         = "drop_from_round"
	ActionContinueToNextPool    = "continue_to_next_pool"
)

// Outbound envelope types.
const (
	EnvelopeRoomState  = "room_state"
	EnvelopeRoomJoined = "room_joined"
	EnvelopeError      = "error"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomFull           = errors.New("room is full")
	ErrAuctionInProgress  = errors.New("auction already in progress")
	ErrRoomClosed         = errors.New("room closed")
	ErrInvalidSession     = errors.New("missing session id")
	ErrNotInRoom          = errors.New("player not in room")
	ErrWrongStatus        = errors.New("action not allowed in current status")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrPlayersNotReady    = errors.New("not every player is ready")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrUnknownAction      = errors.New("unknown action")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// ErrorNotice is the body of an "error" envelope.
type ErrorNotice struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Envelope is every message the core sends out. ErrorNotice fields are flattened into the
// envelope when present.
type Envelope struct {
	Type      string    `json:"type"`
	RoomCode  string    `json:"roomCode,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	State     *Snapshot `json:"state,omitempty"`
	*ErrorNotice
}

// Sink receives envelopes for one attached session. Send must not block and must not call
// back into the room.
type Sink interface {
	Send(Envelope)
}

// ErrorEnvelope builds an error envelope.
func ErrorEnvelope(msg string, fatal bool) Envelope {
	return Envelope{Type: EnvelopeError, ErrorNotice: &ErrorNotice{Message: msg, Fatal: fatal}}
}
