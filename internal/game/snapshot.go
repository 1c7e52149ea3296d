// internal/game/snapshot.go
package game

import (
	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// PlayerState is the public view of one player.
type PlayerState struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Budget          int                 `json:"budget"`
	Squad           []*models.Cricketer `json:"squad"`
	IsHost          bool                `json:"isHost"`
	IsReady         bool                `json:"isReady"`
	ReadyForAuction bool                `json:"readyForAuction"`
}

// PoolState is the public view of one sub-pool and the items it still holds.
type PoolState struct {
	Name  string              `json:"name"`
	Role  models.Role         `json:"role"`
	Items []*models.Cricketer `json:"items"`
}

// RulesState is the part of the rules clients need to render timers and budgets.
type RulesState struct {
	StartingBudget int                `json:"startingBudget"`
	MaxPlayers     int                `json:"maxPlayers"`
	TurnTimerSec   int                `json:"turnTimerSec"`
	PreRoundSec    int                `json:"preRoundSec"`
	RoundOverSec   int                `json:"roundOverSec"`
	SoleSurvivor   SoleSurvivorPolicy `json:"soleSurvivor"`
}

// Snapshot is the full room state sent after every accepted mutation. It shares no mutable
// memory with the room.
type Snapshot struct {
	RoomCode     string                `json:"roomCode"`
	Status       Status                `json:"status"`
	Players      []PlayerState         `json:"players"`
	Departed     []PlayerState         `json:"departed,omitempty"`
	MasterOrder  []string              `json:"masterOrder,omitempty"`
	Round        *Round                `json:"round,omitempty"`
	CurrentPool  string                `json:"currentPool,omitempty"`
	Pools        []PoolState           `json:"pools,omitempty"`
	Unsold       []*models.Cricketer   `json:"unsold"`
	SecondRound  bool                  `json:"secondRound"`
	History      []models.HistoryEntry `json:"history"`
	FinishedPool string                `json:"finishedPool,omitempty"`
	UpcomingPool string                `json:"upcomingPool,omitempty"`
	Deadline     int64                 `json:"deadline,omitempty"` // unix millis; turn, pre-round or round-over timer
	Rules        RulesState            `json:"rules"`
}

// Snapshot returns the current state of the room.
func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotUnsafe()
}

// snapshotUnsafe copies the room state. Assumes lock is held.
func (r *Room) snapshotUnsafe() Snapshot {
	snap := Snapshot{
		RoomCode:     r.Code,
		Status:       r.status,
		Players:      make([]PlayerState, 0, len(r.players)),
		MasterOrder:  append([]string(nil), r.masterOrder...),
		Unsold:       append([]*models.Cricketer{}, r.unsold...),
		SecondRound:  r.secondRound,
		History:      append([]models.HistoryEntry{}, r.history...),
		FinishedPool: r.finishedPool,
		UpcomingPool: r.upcomingPool,
		Rules: RulesState{
			StartingBudget: r.rules.StartingBudget,
			MaxPlayers:     r.rules.MaxPlayers,
			TurnTimerSec:   int(r.rules.TurnTimeout.Seconds()),
			PreRoundSec:    int(r.rules.PreRoundDelay.Seconds()),
			RoundOverSec:   int(r.rules.RoundOverDelay.Seconds()),
			SoleSurvivor:   r.rules.SoleSurvivor,
		},
	}
	for _, pl := range r.players {
		snap.Players = append(snap.Players, pl.state())
	}
	for _, pl := range r.departed {
		snap.Departed = append(snap.Departed, pl.state())
	}
	for _, p := range r.pools {
		snap.Pools = append(snap.Pools, PoolState{
			Name:  p.Name,
			Role:  p.Role,
			Items: append([]*models.Cricketer{}, p.Items...),
		})
	}
	if r.status != StatusLobby && r.status != StatusGameOver {
		snap.CurrentPool = r.currentPoolName()
	}
	if r.round != nil {
		rc := *r.round
		rc.BiddingOrder = append([]string{}, r.round.BiddingOrder...)
		rc.PlayersInRound = append([]string{}, r.round.PlayersInRound...)
		snap.Round = &rc
	}
	if !r.deadline.IsZero() {
		snap.Deadline = r.deadline.UnixMilli()
	}
	return snap
}

func (pl *Player) state() PlayerState {
	return PlayerState{
		ID:              pl.ID,
		Name:            pl.Name,
		Budget:          pl.Budget,
		Squad:           append([]*models.Cricketer{}, pl.Squad...),
		IsHost:          pl.IsHost,
		IsReady:         pl.IsReady,
		ReadyForAuction: pl.ReadyForAuction,
	}
}
