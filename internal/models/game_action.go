package models

// AuctionAction captures a player's move inside a room
type AuctionAction struct {
	ActionType string                 `json:"action_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}
