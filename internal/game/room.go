// internal/game/room.go
package game

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/cache"
	"github.com/jason-s-yu/cricket-auction/internal/models"
	log "github.com/sirupsen/logrus"
)

// Status is the room's state-machine tag.
type Status string

const (
	StatusLobby           Status = "LOBBY"
	StatusAuctionPoolView Status = "AUCTION_POOL_VIEW"
	StatusPreRoundTimer   Status = "PRE_ROUND_TIMER"
	StatusAuction         Status = "AUCTION"
	StatusRoundOver       Status = "ROUND_OVER"
	StatusSubPoolBreak    Status = "SUBPOOL_BREAK"
	StatusGameOver        Status = "GAME_OVER"
)

// catalogLoadTimeout bounds the catalog fetch triggered by draw_pools.
const catalogLoadTimeout = 5 * time.Second

// CatalogSource supplies the full list of auctionable cricketers.
type CatalogSource interface {
	Load(ctx context.Context) ([]*models.Cricketer, error)
}

// ActionPublisher receives an audit record for every accepted action.
type ActionPublisher interface {
	PublishAuctionAction(ctx context.Context, record cache.AuctionActionRecord) error
}

// Player is one participant in a room, keyed by session id.
type Player struct {
	ID              string
	Name            string
	Budget          int
	Squad           []*models.Cricketer
	IsHost          bool
	IsReady         bool
	ReadyForAuction bool

	sink Sink
}

// Room owns the full state of one auction. All state is guarded by mu; timers and inbound
// actions take the same lock, so a room advances one event at a time.
type Room struct {
	Code string

	rules       AuctionRules
	players     []*Player
	masterOrder []string
	startIdx    int

	// departed holds players who left after the lobby. Their budget and squad stay part of the
	// room and are restored if the same session joins again.
	departed []*Player

	pools       []*SubPool
	poolIdx     int
	unsold      []*models.Cricketer
	secondRound bool
	history     []models.HistoryEntry
	round       *Round

	status       Status
	finishedPool string
	upcomingPool string

	timer     Timer
	timerGen  uint64
	deadline  time.Time
	scheduler Scheduler

	closed      bool
	actionIndex int

	rng       *rand.Rand
	catalog   CatalogSource
	publisher ActionPublisher
	logger    *log.Entry

	mu sync.Mutex
}

func newRoom(code string, cfg StoreConfig) *Room {
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = RealScheduler
	}
	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = cfg.Seed()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	rules := cfg.Rules
	rules.Tiers = append([]TierSpec(nil), cfg.Rules.Tiers...)
	return &Room{
		Code:      code,
		rules:     rules,
		status:    StatusLobby,
		scheduler: scheduler,
		rng:       rand.New(rand.NewSource(seed)),
		catalog:   cfg.Catalog,
		publisher: cfg.Publisher,
		logger:    logger.WithField("room", code),
	}
}

// Status returns the current state-machine tag.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// PlayerCount returns the number of players attached to the room.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// IsAttached reports whether sink is the current connection of sessionID.
func (r *Room) IsAttached(sessionID string, sink Sink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.getPlayerByID(sessionID)
	return p != nil && p.sink == sink && !r.closed
}

// HandleAction validates and applies one inbound action. A non-nil error means the action was
// rejected and nothing changed; callers log it and carry on.
func (r *Room) HandleAction(ctx context.Context, actorID string, action models.AuctionAction) error {
	if action.ActionType == ActionDrawPools {
		return r.drawPools(ctx, actorID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	p := r.getPlayerByID(actorID)
	if p == nil {
		return ErrNotInRoom
	}

	// The action takes its index before anything it causes, so the audit log replays in order.
	index := r.nextActionIndex()

	var err error
	switch action.ActionType {
	case ActionToggleReady:
		err = r.toggleReady(p)
	case ActionToggleReadyForAuction:
		err = r.toggleReadyForAuction(p)
	case ActionUpdateRules:
		err = r.updateRules(p, action.Payload)
	case ActionStartAuction:
		err = r.startAuction(p)
	case ActionPlaceBid:
		err = r.placeBid(p)
	case ActionPassTurn:
		err = r.passTurn(p)
	case ActionDropFromRound:
		err = r.dropFromRound(p)
	case ActionContinueToNextPool:
		err = r.continueToNextPool(p)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		r.releaseActionIndex(index)
		r.logger.WithFields(log.Fields{"actor": actorID, "action": action.ActionType}).Debugf("rejected: %v", err)
		return err
	}
	r.publishAction(index, actorID, action.ActionType, action.Payload)
	return nil
}

func (r *Room) toggleReady(p *Player) error {
	if r.status != StatusLobby && r.status != StatusSubPoolBreak {
		return ErrWrongStatus
	}
	p.IsReady = !p.IsReady
	r.broadcastState()
	return nil
}

func (r *Room) toggleReadyForAuction(p *Player) error {
	if r.status != StatusAuctionPoolView {
		return ErrWrongStatus
	}
	p.ReadyForAuction = !p.ReadyForAuction
	r.broadcastState()
	return nil
}

func (r *Room) updateRules(p *Player, payload map[string]interface{}) error {
	if r.status != StatusLobby {
		return ErrWrongStatus
	}
	if !p.IsHost {
		return ErrNotHost
	}
	updated, err := ParseRules(payload, r.rules)
	if err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	r.rules = updated
	r.broadcastState()
	return nil
}

// checkDrawPools validates a draw_pools request. Assumes lock is held.
func (r *Room) checkDrawPools(actorID string) error {
	if r.closed {
		return ErrRoomClosed
	}
	p := r.getPlayerByID(actorID)
	if p == nil {
		return ErrNotInRoom
	}
	if r.status != StatusLobby {
		return ErrWrongStatus
	}
	if !p.IsHost {
		return ErrNotHost
	}
	if !r.nonHostsReady(func(pl *Player) bool { return pl.IsReady }) {
		return ErrPlayersNotReady
	}
	return nil
}

// drawPools loads the catalog without holding the room lock, then re-validates before
// building pools so a concurrent leave or host change is respected.
func (r *Room) drawPools(ctx context.Context, actorID string) error {
	r.mu.Lock()
	err := r.checkDrawPools(actorID)
	source := r.catalog
	r.mu.Unlock()
	if err != nil {
		r.logger.WithField("actor", actorID).Debugf("rejected draw_pools: %v", err)
		return err
	}

	var items []*models.Cricketer
	var loadErr error
	if source == nil {
		loadErr = ErrCatalogUnavailable
	} else {
		loadCtx, cancel := context.WithTimeout(ctx, catalogLoadTimeout)
		items, loadErr = source.Load(loadCtx)
		cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkDrawPools(actorID); err != nil {
		r.logger.WithField("actor", actorID).Debugf("draw_pools superseded: %v", err)
		return err
	}
	if loadErr != nil {
		r.logger.Warnf("catalog load failed: %v", loadErr)
		r.broadcastError(ErrCatalogUnavailable.Error())
		return ErrCatalogUnavailable
	}

	pools, err := BuildPools(items, r.rules.Tiers, r.rng)
	if err != nil {
		r.logger.Warnf("draw_pools failed: %v", err)
		r.broadcastError(err.Error())
		return err
	}

	r.pools = pools
	r.poolIdx = 0
	r.unsold = nil
	r.secondRound = false
	for _, pl := range r.players {
		pl.ReadyForAuction = false
	}
	r.status = StatusAuctionPoolView
	r.logAction(actorID, ActionDrawPools, map[string]interface{}{"pools": len(pools), "catalogSize": len(items)})
	r.broadcastState()
	return nil
}

func (r *Room) startAuction(p *Player) error {
	if r.status != StatusAuctionPoolView {
		return ErrWrongStatus
	}
	if !p.IsHost {
		return ErrNotHost
	}
	if len(r.players) < r.rules.MinPlayers {
		return ErrNotEnoughPlayers
	}
	if !r.nonHostsReady(func(pl *Player) bool { return pl.ReadyForAuction }) {
		return ErrPlayersNotReady
	}

	r.masterOrder = make([]string, len(r.players))
	for i, pl := range r.players {
		r.masterOrder[i] = pl.ID
	}
	r.rng.Shuffle(len(r.masterOrder), func(i, j int) {
		r.masterOrder[i], r.masterOrder[j] = r.masterOrder[j], r.masterOrder[i]
	})
	r.startIdx = 0
	r.poolIdx = 0
	r.enterPreRound()
	return nil
}

func (r *Room) placeBid(p *Player) error {
	if r.status != StatusAuction || r.round == nil {
		return ErrWrongStatus
	}
	if err := r.round.applyBid(p.ID, p.Budget); err != nil {
		return err
	}
	r.afterTurn("")
	return nil
}

func (r *Room) passTurn(p *Player) error {
	if r.status != StatusAuction || r.round == nil {
		return ErrWrongStatus
	}
	if err := r.round.applyPass(p.ID); err != nil {
		return err
	}
	r.afterTurn("")
	return nil
}

func (r *Room) dropFromRound(p *Player) error {
	if r.status != StatusAuction || r.round == nil {
		return ErrWrongStatus
	}
	if err := r.round.applyDrop(p.ID); err != nil {
		return err
	}
	r.afterTurn("")
	return nil
}

func (r *Room) continueToNextPool(p *Player) error {
	if r.status != StatusSubPoolBreak {
		return ErrWrongStatus
	}
	if !p.IsHost {
		return ErrNotHost
	}
	if !r.nonHostsReady(func(pl *Player) bool { return pl.IsReady }) {
		return ErrPlayersNotReady
	}
	r.enterPreRound()
	return nil
}

// enterPreRound starts the countdown before the next item. Assumes lock is held.
func (r *Room) enterPreRound() {
	r.status = StatusPreRoundTimer
	r.round = nil
	r.schedule(r.rules.PreRoundDelay, StatusPreRoundTimer, "", r.startRound)
	r.deadline = time.Now().Add(r.rules.PreRoundDelay)
	r.broadcastState()
}

// startRound puts the next item of the current pool up for auction. Assumes lock is held.
func (r *Room) startRound() {
	if r.poolIdx >= len(r.pools) {
		r.finish()
		return
	}
	item := r.pools[r.poolIdx].pop()
	if item == nil {
		r.advanceAfterRound()
		return
	}

	budgets := make(map[string]int, len(r.players))
	for _, pl := range r.players {
		budgets[pl.ID] = pl.Budget
	}
	r.round = newRound(item, r.masterOrder, r.startIdx, budgets)
	if len(r.masterOrder) > 0 {
		r.startIdx = (r.startIdx + 1) % len(r.masterOrder)
	}
	r.status = StatusAuction
	r.finishedPool, r.upcomingPool = "", ""
	r.logAction("", "round_start", map[string]interface{}{
		"itemId":       item.ID,
		"subPool":      r.pools[r.poolIdx].Name,
		"biddingOrder": r.round.BiddingOrder,
	})
	r.afterTurn("")
}

// afterTurn checks for the end of the round and otherwise re-arms the turn timer. The timer is
// kept when prevActive is still the active player. Assumes lock is held.
func (r *Room) afterTurn(prevActive string) {
	switch outcome := r.round.settle(r.rules.SoleSurvivor); outcome {
	case roundContinues:
		if prevActive == "" || r.round.ActivePlayerID != prevActive || r.timer == nil {
			r.scheduleTurnTimer()
		}
		r.broadcastState()
	default:
		r.resolveRound(outcome)
	}
}

// scheduleTurnTimer arms the per-turn timeout for the active player. Assumes lock is held.
func (r *Room) scheduleTurnTimer() {
	active := r.round.ActivePlayerID
	r.schedule(r.rules.TurnTimeout, StatusAuction, active, func() {
		r.logger.WithField("player", active).Infof("turn timed out")
		if err := r.round.applyTimeout(active); err != nil {
			return
		}
		r.logAction(active, "turn_timeout", nil)
		r.afterTurn("")
	})
	r.deadline = time.Now().Add(r.rules.TurnTimeout)
}

// enterBreak pauses between sub-pools until the host continues. Assumes lock is held.
func (r *Room) enterBreak(finished, upcoming string) {
	r.cancelTimer()
	r.status = StatusSubPoolBreak
	r.round = nil
	r.finishedPool = finished
	r.upcomingPool = upcoming
	for _, pl := range r.players {
		if !pl.IsHost {
			pl.IsReady = false
		}
	}
	r.logAction("", "subpool_break", map[string]interface{}{"finished": finished, "upcoming": upcoming})
	r.broadcastState()
}

// finish moves the room to GAME_OVER. Assumes lock is held.
func (r *Room) finish() {
	r.cancelTimer()
	r.status = StatusGameOver
	r.round = nil
	r.finishedPool, r.upcomingPool = "", ""
	r.logger.Infof("auction finished after %d items", len(r.history))
	r.logAction("", "game_over", map[string]interface{}{"items": len(r.history)})
	r.broadcastState()
}

// nonHostsReady reports whether every non-host player satisfies ready. Assumes lock is held.
func (r *Room) nonHostsReady(ready func(*Player) bool) bool {
	for _, pl := range r.players {
		if !pl.IsHost && !ready(pl) {
			return false
		}
	}
	return true
}

func (r *Room) getPlayerByID(id string) *Player {
	for _, pl := range r.players {
		if pl.ID == id {
			return pl
		}
	}
	return nil
}

// addPlayerUnsafe attaches a session. An existing session only gets its sink replaced.
// Assumes lock is held.
func (r *Room) addPlayerUnsafe(sessionID, name string, sink Sink) error {
	if r.closed {
		return ErrRoomClosed
	}
	if idx := slices.IndexFunc(r.departed, func(pl *Player) bool { return pl.ID == sessionID }); idx >= 0 {
		back := r.departed[idx]
		r.departed = slices.Delete(r.departed, idx, idx+1)
		back.sink = sink
		if name != "" {
			back.Name = name
		}
		r.players = append(r.players, back)
		r.logger.WithField("player", sessionID).Infof("player rejoined with budget %d and %d in squad", back.Budget, len(back.Squad))
		r.logAction(sessionID, "player_rejoin", map[string]interface{}{"budget": back.Budget})
		r.broadcastState()
		return nil
	}
	if existing := r.getPlayerByID(sessionID); existing != nil {
		existing.sink = sink
		if name != "" {
			existing.Name = name
		}
		r.logger.WithField("player", sessionID).Infof("player reconnected")
		r.logAction(sessionID, "player_reconnect", nil)
		r.broadcastState()
		return nil
	}
	if r.status != StatusLobby {
		return ErrAuctionInProgress
	}
	if len(r.players) >= r.rules.MaxPlayers {
		return ErrRoomFull
	}
	r.players = append(r.players, &Player{
		ID:     sessionID,
		Name:   name,
		Budget: r.rules.StartingBudget,
		IsHost: len(r.players) == 0,
		sink:   sink,
	})
	r.logger.WithField("player", sessionID).Infof("player joined (%d/%d)", len(r.players), r.rules.MaxPlayers)
	r.logAction(sessionID, "player_join", map[string]interface{}{"name": name})
	r.broadcastState()
	return nil
}

// removePlayerUnsafe detaches a session whose current sink is sink. It returns false when the
// sink is stale, i.e. the session already re-attached on another connection.
// Assumes lock is held.
func (r *Room) removePlayerUnsafe(sessionID string, sink Sink) bool {
	idx := slices.IndexFunc(r.players, func(pl *Player) bool { return pl.ID == sessionID })
	if idx < 0 {
		return false
	}
	p := r.players[idx]
	if sink != nil && p.sink != sink {
		return false
	}
	r.players = slices.Delete(r.players, idx, idx+1)
	r.logger.WithField("player", sessionID).Infof("player left")
	r.logAction(sessionID, "player_leave", nil)
	wasHost := p.IsHost
	if r.status != StatusLobby {
		p.sink = nil
		p.IsHost, p.IsReady, p.ReadyForAuction = false, false, false
		r.departed = append(r.departed, p)
	}

	if len(r.players) == 0 {
		return true
	}
	if wasHost {
		r.players[0].IsHost = true
		r.logger.WithField("player", r.players[0].ID).Infof("host reassigned")
	}

	if r.status == StatusAuction && r.round != nil {
		prevActive := r.round.ActivePlayerID
		r.round.removePlayer(sessionID)
		if prevActive == sessionID {
			prevActive = ""
		}
		r.afterTurn(prevActive)
		return true
	}
	r.broadcastState()
	return true
}

// closeUnsafe stops every timer and refuses further events. Assumes lock is held.
func (r *Room) closeUnsafe() {
	r.cancelTimer()
	r.closed = true
	r.round = nil
}

// broadcastState sends a full snapshot to every attached player. Assumes lock is held.
func (r *Room) broadcastState() {
	snap := r.snapshotUnsafe()
	env := Envelope{Type: EnvelopeRoomState, RoomCode: r.Code, State: &snap}
	for _, pl := range r.players {
		if pl.sink != nil {
			pl.sink.Send(env)
		}
	}
}

// broadcastError sends a non-fatal notice to every attached player. Assumes lock is held.
func (r *Room) broadcastError(msg string) {
	env := ErrorEnvelope(msg, false)
	env.RoomCode = r.Code
	for _, pl := range r.players {
		if pl.sink != nil {
			pl.sink.Send(env)
		}
	}
}

// logAction publishes an audit record under the next action index. Assumes lock is held.
func (r *Room) logAction(actorID, actionType string, payload map[string]interface{}) {
	r.publishAction(r.nextActionIndex(), actorID, actionType, payload)
}

func (r *Room) nextActionIndex() int {
	r.actionIndex++
	return r.actionIndex
}

// releaseActionIndex hands back an index reserved for an action that was rejected. Rejected
// actions have no effects, so nothing else can have taken a later index.
func (r *Room) releaseActionIndex(index int) {
	if r.actionIndex == index {
		r.actionIndex--
	}
}

// publishAction sends one audit record asynchronously. Assumes lock is held.
func (r *Room) publishAction(index int, actorID, actionType string, payload map[string]interface{}) {
	if r.publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.AuctionActionRecord{
		RoomCode:      r.Code,
		ActionIndex:   index,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(pub ActionPublisher, rec cache.AuctionActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := pub.PublishAuctionAction(ctx, rec); err != nil {
			r.logger.Warnf("error publishing action %d: %v", rec.ActionIndex, err)
		}
	}(r.publisher, record)
}
