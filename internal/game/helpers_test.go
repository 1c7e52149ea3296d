package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/cache"
	"github.com/jason-s-yu/cricket-auction/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeTimer records a scheduled callback instead of arming a real timer.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler lets tests fire room timers by hand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) schedule(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// pending returns the most recent timer that has not been stopped or fired.
func (s *fakeScheduler) pending() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.timers) - 1; i >= 0; i-- {
		if !s.timers[i].stopped {
			return s.timers[i]
		}
	}
	return nil
}

// fire runs the pending timer as if it had expired.
func (s *fakeScheduler) fire(t *testing.T) {
	t.Helper()
	timer := s.pending()
	require.NotNil(t, timer, "expected a pending timer")
	s.mu.Lock()
	timer.stopped = true
	s.mu.Unlock()
	timer.f()
}

// mockSink collects envelopes instead of writing them to a socket.
type mockSink struct {
	mu   sync.Mutex
	envs []Envelope
}

func (m *mockSink) Send(env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.envs = append(m.envs, env)
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.envs)
}

func (m *mockSink) lastError() *ErrorNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.envs) - 1; i >= 0; i-- {
		if m.envs[i].Type == EnvelopeError {
			return m.envs[i].ErrorNotice
		}
	}
	return nil
}

// recordingPublisher keeps every published action record.
type recordingPublisher struct {
	mu   sync.Mutex
	recs []cache.AuctionActionRecord
}

func (p *recordingPublisher) PublishAuctionAction(ctx context.Context, rec cache.AuctionActionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, rec)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.recs)
}

func (p *recordingPublisher) records() []cache.AuctionActionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]cache.AuctionActionRecord(nil), p.recs...)
}

// staticCatalog serves a fixed item list.
type staticCatalog struct {
	items []*models.Cricketer
	err   error
}

func (c staticCatalog) Load(ctx context.Context) ([]*models.Cricketer, error) {
	return c.items, c.err
}

// makeCatalog builds count items per role with distinct ratings and the given base price.
func makeCatalog(counts map[models.Role]int, basePrice int) []*models.Cricketer {
	var items []*models.Cricketer
	for _, role := range models.Roles {
		for i := 0; i < counts[role]; i++ {
			items = append(items, &models.Cricketer{
				ID:        fmt.Sprintf("%s-%d", role, i),
				Name:      fmt.Sprintf("%s %d", role, i),
				Role:      role,
				BasePrice: basePrice,
				Rating:    50 + i,
			})
		}
	}
	return items
}

// minimalRules uses one single-item tier per role.
func minimalRules() AuctionRules {
	rules := DefaultRules()
	rules.Tiers = []TierSpec{
		{Role: models.RoleBatsman, Name: "Batsmen", Size: 1},
		{Role: models.RoleBowler, Name: "Bowlers", Size: 1},
		{Role: models.RoleAllRounder, Name: "AllRounders", Size: 1},
		{Role: models.RoleWicketKeeper, Name: "WicketKeepers", Size: 1},
	}
	return rules
}

type testRoom struct {
	store   *RoomStore
	room    *Room
	sched   *fakeScheduler
	ids     []string
	sinks   map[string]*mockSink
	catalog staticCatalog
}

// newTestRoom creates a room with n players; ids[0] is the host.
func newTestRoom(t *testing.T, n int, rules AuctionRules, catalog staticCatalog) *testRoom {
	t.Helper()
	sched := &fakeScheduler{}
	store := NewRoomStore(StoreConfig{
		Rules:     rules,
		Catalog:   catalog,
		Scheduler: sched.schedule,
		Seed:      func() int64 { return 42 },
	})
	tr := &testRoom{store: store, sched: sched, sinks: map[string]*mockSink{}, catalog: catalog}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i+1)
		sink := &mockSink{}
		tr.ids = append(tr.ids, id)
		tr.sinks[id] = sink
		if i == 0 {
			room, err := store.CreateRoom(id, "Player "+id, sink)
			require.NoError(t, err)
			tr.room = room
			continue
		}
		_, err := store.JoinRoom(tr.room.Code, id, "Player "+id, sink)
		require.NoError(t, err)
	}
	return tr
}

func (tr *testRoom) act(t *testing.T, actor, actionType string) error {
	t.Helper()
	return tr.room.HandleAction(context.Background(), actor, models.AuctionAction{ActionType: actionType})
}

func (tr *testRoom) mustAct(t *testing.T, actor, actionType string) {
	t.Helper()
	require.NoError(t, tr.act(t, actor, actionType), "%s by %s", actionType, actor)
}

func (tr *testRoom) host() string {
	for _, p := range tr.room.Snapshot().Players {
		if p.IsHost {
			return p.ID
		}
	}
	return ""
}

// toPoolView readies everyone and draws pools.
func (tr *testRoom) toPoolView(t *testing.T) {
	t.Helper()
	host := tr.host()
	for _, id := range tr.ids {
		if id != host {
			tr.mustAct(t, id, ActionToggleReady)
		}
	}
	tr.mustAct(t, host, ActionDrawPools)
	require.Equal(t, StatusAuctionPoolView, tr.room.Status())
}

// toPreRound continues from the pool view to the pre-round countdown.
func (tr *testRoom) toPreRound(t *testing.T) {
	t.Helper()
	tr.toPoolView(t)
	host := tr.host()
	for _, id := range tr.ids {
		if id != host {
			tr.mustAct(t, id, ActionToggleReadyForAuction)
		}
	}
	tr.mustAct(t, host, ActionStartAuction)
	require.Equal(t, StatusPreRoundTimer, tr.room.Status())
}

// toAuction runs the room up to the first item being in play.
func (tr *testRoom) toAuction(t *testing.T) {
	t.Helper()
	tr.toPreRound(t)
	tr.sched.fire(t)
	require.Equal(t, StatusAuction, tr.room.Status())
}

// continueBreak readies every attached non-host player and continues to the next pool.
func (tr *testRoom) continueBreak(t *testing.T) {
	t.Helper()
	for _, p := range tr.room.Snapshot().Players {
		if !p.IsHost {
			tr.mustAct(t, p.ID, ActionToggleReady)
		}
	}
	host := tr.host()
	tr.mustAct(t, host, ActionContinueToNextPool)
	require.Equal(t, StatusPreRoundTimer, tr.room.Status())
	tr.sched.fire(t)
}

// setBudget overwrites a player's budget.
func (tr *testRoom) setBudget(id string, budget int) {
	tr.room.mu.Lock()
	defer tr.room.mu.Unlock()
	tr.room.getPlayerByID(id).Budget = budget
}

func (tr *testRoom) round(t *testing.T) *Round {
	t.Helper()
	snap := tr.room.Snapshot()
	require.NotNil(t, snap.Round)
	return snap.Round
}

// playToEnd resolves every remaining item with play until GAME_OVER, returning the number of
// rounds played. play is called while the room is in AUCTION.
func (tr *testRoom) playToEnd(t *testing.T, play func(r *Round)) int {
	t.Helper()
	rounds := 0
	for guard := 0; guard < 500; guard++ {
		switch tr.room.Status() {
		case StatusAuction:
			play(tr.round(t))
		case StatusRoundOver:
			rounds++
			tr.sched.fire(t)
		case StatusSubPoolBreak:
			tr.continueBreak(t)
		case StatusPreRoundTimer:
			tr.sched.fire(t)
		case StatusGameOver:
			return rounds
		default:
			t.Fatalf("unexpected status %s", tr.room.Status())
		}
	}
	t.Fatalf("auction did not finish")
	return rounds
}
