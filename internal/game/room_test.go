package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/cache"
	"github.com/jason-s-yu/cricket-auction/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalCatalog() staticCatalog {
	return staticCatalog{items: makeCatalog(map[models.Role]int{
		models.RoleBatsman:      1,
		models.RoleBowler:       1,
		models.RoleAllRounder:   1,
		models.RoleWicketKeeper: 1,
	}, 50)}
}

func playerState(t *testing.T, snap Snapshot, id string) PlayerState {
	t.Helper()
	for _, p := range snap.Players {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("player %s not in snapshot", id)
	return PlayerState{}
}

func other(ids []string, id string) string {
	for _, x := range ids {
		if x != id {
			return x
		}
	}
	return ""
}

// assertBudgetsBalance checks that money spent equals money won and nobody is in debt.
func assertBudgetsBalance(t *testing.T, snap Snapshot) {
	t.Helper()
	sold := 0
	for _, h := range snap.History {
		if h.Sold() {
			sold += h.WinningBid
		}
	}
	remaining := 0
	members := append(append([]PlayerState{}, snap.Players...), snap.Departed...)
	for _, p := range members {
		assert.GreaterOrEqual(t, p.Budget, 0)
		remaining += p.Budget
	}
	assert.Equal(t, snap.Rules.StartingBudget*len(members)-remaining, sold)
}

func TestTwoPlayerBidAndPass(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	round := tr.round(t)
	first := round.ActivePlayerID
	second := other(tr.ids, first)
	item := round.Item
	require.Equal(t, 50, round.CurrentBid)

	tr.mustAct(t, first, ActionPlaceBid)
	round = tr.round(t)
	assert.Equal(t, 55, round.CurrentBid)
	assert.Equal(t, second, round.ActivePlayerID)

	tr.mustAct(t, second, ActionPassTurn)
	snap := tr.room.Snapshot()
	require.Equal(t, StatusRoundOver, snap.Status)

	winner := playerState(t, snap, first)
	assert.Equal(t, 9945, winner.Budget)
	assert.Equal(t, []*models.Cricketer{item}, winner.Squad)
	assert.Equal(t, 10000, playerState(t, snap, second).Budget)
	require.Len(t, snap.History, 1)
	assert.Equal(t, item, snap.History[0].Item)
	assert.Equal(t, 55, snap.History[0].WinningBid)
	assert.Equal(t, first, snap.History[0].WinnerID)
	assertBudgetsBalance(t, snap)
}

func TestRejectedActionsChangeNothing(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	active := tr.round(t).ActivePlayerID
	waiting := other(tr.ids, active)
	before := tr.room.Snapshot()
	sent := tr.sinks[waiting].count()

	assert.ErrorIs(t, tr.act(t, waiting, ActionPlaceBid), ErrNotYourTurn)
	assert.ErrorIs(t, tr.act(t, waiting, ActionDropFromRound), ErrNotYourTurn)
	assert.ErrorIs(t, tr.act(t, active, ActionContinueToNextPool), ErrWrongStatus)
	assert.ErrorIs(t, tr.act(t, active, "shout"), ErrUnknownAction)
	assert.ErrorIs(t, tr.act(t, "stranger", ActionPlaceBid), ErrNotInRoom)

	tr.setBudget(active, 54)
	assert.ErrorIs(t, tr.act(t, active, ActionPlaceBid), ErrInsufficientBudget)
	tr.setBudget(active, 10000)

	assert.Equal(t, before, tr.room.Snapshot())
	assert.Equal(t, sent, tr.sinks[waiting].count(), "rejections are not broadcast")
}

func TestNoActionsDuringTimedPhases(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toPreRound(t)
	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionPlaceBid), ErrWrongStatus)
	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionToggleReady), ErrWrongStatus)

	tr.sched.fire(t)
	active := tr.round(t).ActivePlayerID
	tr.mustAct(t, active, ActionPlaceBid)
	tr.mustAct(t, other(tr.ids, active), ActionDropFromRound)
	require.Equal(t, StatusRoundOver, tr.room.Status())

	assert.ErrorIs(t, tr.act(t, active, ActionPlaceBid), ErrWrongStatus)
	assert.ErrorIs(t, tr.act(t, active, ActionPassTurn), ErrWrongStatus)
}

func TestLobbyGates(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	host, guest := tr.ids[0], tr.ids[1]

	assert.ErrorIs(t, tr.act(t, host, ActionDrawPools), ErrPlayersNotReady)
	tr.mustAct(t, guest, ActionToggleReady)
	assert.ErrorIs(t, tr.act(t, guest, ActionDrawPools), ErrNotHost)
	assert.ErrorIs(t, tr.act(t, host, ActionStartAuction), ErrWrongStatus)

	tr.mustAct(t, host, ActionDrawPools)
	require.Equal(t, StatusAuctionPoolView, tr.room.Status())
	assert.ErrorIs(t, tr.act(t, host, ActionStartAuction), ErrPlayersNotReady)
	tr.mustAct(t, guest, ActionToggleReadyForAuction)
	assert.ErrorIs(t, tr.act(t, guest, ActionStartAuction), ErrNotHost)
	tr.mustAct(t, host, ActionStartAuction)

	snap := tr.room.Snapshot()
	assert.Equal(t, StatusPreRoundTimer, snap.Status)
	assert.ElementsMatch(t, tr.ids, snap.MasterOrder)
}

func TestStartAuctionNeedsTwoPlayers(t *testing.T) {
	tr := newTestRoom(t, 1, minimalRules(), minimalCatalog())
	tr.toPoolView(t)
	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionStartAuction), ErrNotEnoughPlayers)
	assert.Equal(t, StatusAuctionPoolView, tr.room.Status())
}

func TestUpdateRulesAction(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	host, guest := tr.ids[0], tr.ids[1]
	payload := map[string]interface{}{"turnTimerSec": float64(30), "soleSurvivor": "sell_at_base"}

	err := tr.room.HandleAction(context.Background(), guest, models.AuctionAction{ActionType: ActionUpdateRules, Payload: payload})
	assert.ErrorIs(t, err, ErrNotHost)

	err = tr.room.HandleAction(context.Background(), host, models.AuctionAction{ActionType: ActionUpdateRules, Payload: payload})
	require.NoError(t, err)
	rules := tr.room.Snapshot().Rules
	assert.Equal(t, 30, rules.TurnTimerSec)
	assert.Equal(t, SoleSurvivorSellAtBase, rules.SoleSurvivor)

	err = tr.room.HandleAction(context.Background(), host, models.AuctionAction{
		ActionType: ActionUpdateRules,
		Payload:    map[string]interface{}{"turnTimerSec": float64(0)},
	})
	assert.Error(t, err)
	assert.Equal(t, 30, tr.room.Snapshot().Rules.TurnTimerSec)
}

func TestDrawPoolsInsufficientCatalog(t *testing.T) {
	catalog := staticCatalog{items: makeCatalog(map[models.Role]int{
		models.RoleBatsman:      10,
		models.RoleBowler:       15,
		models.RoleAllRounder:   20,
		models.RoleWicketKeeper: 8,
	}, 50)}
	tr := newTestRoom(t, 2, DefaultRules(), catalog)
	host, guest := tr.ids[0], tr.ids[1]
	tr.mustAct(t, guest, ActionToggleReady)

	err := tr.act(t, host, ActionDrawPools)
	require.ErrorIs(t, err, ErrInsufficientCatalog)

	snap := tr.room.Snapshot()
	assert.Equal(t, StatusLobby, snap.Status)
	assert.Empty(t, snap.Pools)
	for _, id := range tr.ids {
		notice := tr.sinks[id].lastError()
		require.NotNil(t, notice, "player %s should see the error", id)
		assert.Equal(t, "need 17 batsmen, found 10", notice.Message)
		assert.False(t, notice.Fatal)
	}

	// The room is still usable once the catalog is fixed.
	tr.room.catalog = staticCatalog{items: ampleCatalog()}
	tr.mustAct(t, host, ActionDrawPools)
	assert.Equal(t, StatusAuctionPoolView, tr.room.Status())
}

func TestDrawPoolsCatalogUnavailable(t *testing.T) {
	tr := newTestRoom(t, 1, minimalRules(), staticCatalog{err: errors.New("connection refused")})
	err := tr.act(t, tr.ids[0], ActionDrawPools)
	require.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.Equal(t, StatusLobby, tr.room.Status())
	assert.Equal(t, ErrCatalogUnavailable.Error(), tr.sinks[tr.ids[0]].lastError().Message)
}

func TestTurnTimeoutDropsActivePlayer(t *testing.T) {
	tr := newTestRoom(t, 3, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	round := tr.round(t)
	first := round.ActivePlayerID
	tr.sched.fire(t)

	round = tr.round(t)
	assert.NotContains(t, round.PlayersInRound, first)
	assert.Equal(t, round.BiddingOrder[1], round.ActivePlayerID)
	assert.Equal(t, StatusAuction, tr.room.Status())
}

func TestStaleTimeoutIsIgnored(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	stale := tr.sched.pending()
	require.NotNil(t, stale)
	first := tr.round(t).ActivePlayerID
	tr.mustAct(t, first, ActionPlaceBid)
	assert.True(t, stale.stopped, "a new turn replaces the old timer")

	before := tr.room.Snapshot()
	stale.f()
	assert.Equal(t, before, tr.room.Snapshot())
	assert.Contains(t, tr.round(t).PlayersInRound, first)
}

func TestStaleTimerAfterRoomClosed(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toPreRound(t)
	pending := tr.sched.pending()
	require.NotNil(t, pending)

	tr.store.Leave(tr.room.Code, tr.ids[0], tr.sinks[tr.ids[0]])
	tr.store.Leave(tr.room.Code, tr.ids[1], tr.sinks[tr.ids[1]])
	_, ok := tr.store.GetRoom(tr.room.Code)
	require.False(t, ok)
	assert.Nil(t, tr.sched.pending(), "destroying the room cancels its timer")

	pending.f()
	assert.Equal(t, StatusPreRoundTimer, tr.room.Status())
	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionPlaceBid), ErrRoomClosed)
}

func TestSoleEligiblePlayer(t *testing.T) {
	cases := []struct {
		name   string
		policy SoleSurvivorPolicy
		finish func(t *testing.T, tr *testRoom, eligible string)
		sold   bool
	}{
		{
			name:   "sell at base sells without a turn",
			policy: SoleSurvivorSellAtBase,
			sold:   true,
		},
		{
			name:   "unsold policy leaves the item unsold",
			policy: SoleSurvivorUnsold,
		},
		{
			name:   "final turn claimed with a bid",
			policy: SoleSurvivorFinalTurn,
			sold:   true,
			finish: func(t *testing.T, tr *testRoom, eligible string) {
				round := tr.round(t)
				require.True(t, round.FinalTurn)
				require.Equal(t, eligible, round.ActivePlayerID)
				assert.ErrorIs(t, tr.act(t, other(tr.ids, eligible), ActionPlaceBid), ErrNotYourTurn)
				tr.mustAct(t, eligible, ActionPlaceBid)
			},
		},
		{
			name:   "final turn passed",
			policy: SoleSurvivorFinalTurn,
			finish: func(t *testing.T, tr *testRoom, eligible string) {
				tr.mustAct(t, eligible, ActionPassTurn)
			},
		},
		{
			name:   "final turn timed out",
			policy: SoleSurvivorFinalTurn,
			finish: func(t *testing.T, tr *testRoom, eligible string) {
				tr.sched.fire(t)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rules := minimalRules()
			rules.SoleSurvivor = tc.policy
			tr := newTestRoom(t, 2, rules, minimalCatalog())
			tr.toPreRound(t)

			eligible, broke := tr.ids[0], tr.ids[1]
			tr.setBudget(broke, 10)
			tr.sched.fire(t)

			if tc.finish != nil {
				require.Equal(t, StatusAuction, tr.room.Status())
				tc.finish(t, tr, eligible)
			}

			snap := tr.room.Snapshot()
			require.Equal(t, StatusRoundOver, snap.Status)
			require.Len(t, snap.History, 1)
			entry := snap.History[0]
			if tc.sold {
				assert.Equal(t, eligible, entry.WinnerID)
				assert.Equal(t, 50, entry.WinningBid)
				assert.Equal(t, 9950, playerState(t, snap, eligible).Budget)
				assert.Empty(t, snap.Unsold)
			} else {
				assert.Equal(t, models.UnsoldWinnerID, entry.WinnerID)
				assert.Zero(t, entry.WinningBid)
				assert.Equal(t, 10000, playerState(t, snap, eligible).Budget)
				assert.Equal(t, []*models.Cricketer{entry.Item}, snap.Unsold)
			}
			assert.Equal(t, 10, playerState(t, snap, broke).Budget)
		})
	}
}

// firstBidderWins has the opening bidder bid once and everyone else drop.
func firstBidderWins(t *testing.T, tr *testRoom) func(r *Round) {
	return func(r *Round) {
		if r.HighestBidderID == "" {
			tr.mustAct(t, r.ActivePlayerID, ActionPlaceBid)
			return
		}
		tr.mustAct(t, r.ActivePlayerID, ActionDropFromRound)
	}
}

func TestFullLifecycleMinimalCatalog(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	rounds := tr.playToEnd(t, firstBidderWins(t, tr))
	assert.Equal(t, 4, rounds)

	snap := tr.room.Snapshot()
	assert.Equal(t, StatusGameOver, snap.Status)
	assert.Nil(t, snap.Round)
	require.Len(t, snap.History, 4)
	seen := make(map[string]bool)
	for _, h := range snap.History {
		assert.False(t, seen[h.Item.ID], "item %s resolved twice", h.Item.ID)
		seen[h.Item.ID] = true
		assert.True(t, h.Sold())
	}
	for _, p := range snap.Pools {
		assert.Empty(t, p.Items)
	}
	assert.False(t, snap.SecondRound)
	assertBudgetsBalance(t, snap)

	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionPlaceBid), ErrWrongStatus)
	assert.ErrorIs(t, tr.act(t, tr.ids[0], ActionContinueToNextPool), ErrWrongStatus)
}

func TestSecondRoundReplaysUnsoldItems(t *testing.T) {
	rules := minimalRules()
	rules.SoleSurvivor = SoleSurvivorUnsold
	tr := newTestRoom(t, 2, rules, minimalCatalog())
	tr.toAuction(t)

	rounds := tr.playToEnd(t, func(r *Round) {
		tr.mustAct(t, r.ActivePlayerID, ActionDropFromRound)
	})
	assert.Equal(t, 8, rounds)

	snap := tr.room.Snapshot()
	assert.Equal(t, StatusGameOver, snap.Status)
	assert.True(t, snap.SecondRound)
	assert.Len(t, snap.Unsold, 4)
	require.Len(t, snap.History, 8)
	for i, h := range snap.History {
		assert.Equal(t, models.UnsoldWinnerID, h.WinnerID)
		assert.Equal(t, i >= 4, h.SecondRound)
	}
	names := make([]string, 0, len(snap.Pools))
	for _, p := range snap.Pools {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Unsold-Batsmen", "Unsold-Bowlers", "Unsold-AllRounders", "Unsold-WicketKeepers"}, names)
}

func TestSubPoolBreakGatesOnReadiness(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	tr.toAuction(t)
	host, guest := tr.ids[0], tr.ids[1]

	firstBidderWins(t, tr)(tr.round(t))
	firstBidderWins(t, tr)(tr.round(t))
	require.Equal(t, StatusRoundOver, tr.room.Status())
	tr.sched.fire(t)

	snap := tr.room.Snapshot()
	require.Equal(t, StatusSubPoolBreak, snap.Status)
	assert.Equal(t, "Batsmen", snap.FinishedPool)
	assert.Equal(t, "Bowlers", snap.UpcomingPool)
	assert.False(t, playerState(t, snap, guest).IsReady)

	assert.ErrorIs(t, tr.act(t, host, ActionContinueToNextPool), ErrPlayersNotReady)
	tr.mustAct(t, guest, ActionToggleReady)
	assert.ErrorIs(t, tr.act(t, guest, ActionContinueToNextPool), ErrNotHost)
	tr.mustAct(t, host, ActionContinueToNextPool)
	assert.Equal(t, StatusPreRoundTimer, tr.room.Status())

	tr.sched.fire(t)
	assert.Equal(t, models.RoleBowler, tr.round(t).Item.Role)
}

func TestRoundRobinFirstBidder(t *testing.T) {
	rules := minimalRules()
	rules.Tiers = []TierSpec{
		{Role: models.RoleBatsman, Name: "Batsmen", Size: 3},
		{Role: models.RoleBowler, Name: "Bowlers", Size: 2},
		{Role: models.RoleAllRounder, Name: "AllRounders", Size: 2},
	}
	catalog := staticCatalog{items: makeCatalog(map[models.Role]int{
		models.RoleBatsman:    3,
		models.RoleBowler:     2,
		models.RoleAllRounder: 2,
	}, 50)}
	tr := newTestRoom(t, 3, rules, catalog)
	tr.toAuction(t)

	openers := make(map[string]string)
	play := firstBidderWins(t, tr)
	rounds := tr.playToEnd(t, func(r *Round) {
		if _, ok := openers[r.Item.ID]; !ok {
			openers[r.Item.ID] = r.BiddingOrder[0]
		}
		play(r)
	})
	require.Equal(t, 7, rounds)

	counts := make(map[string]int)
	for _, id := range openers {
		counts[id]++
	}
	require.Len(t, counts, 3)
	for id, n := range counts {
		assert.True(t, n == 2 || n == 3, "player %s opened %d of 7 items", id, n)
	}
	assertBudgetsBalance(t, tr.room.Snapshot())
}

func TestActionsArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	sched := &fakeScheduler{}
	store := NewRoomStore(StoreConfig{
		Rules:     minimalRules(),
		Catalog:   minimalCatalog(),
		Publisher: pub,
		Scheduler: sched.schedule,
	})
	room, err := store.CreateRoom("p1", "One", &mockSink{})
	require.NoError(t, err)
	require.NoError(t, room.HandleAction(context.Background(), "p1", models.AuctionAction{ActionType: ActionToggleReady}))

	require.Eventually(t, func() bool { return pub.count() == 2 }, time.Second, 10*time.Millisecond)
	recs := pub.records()
	types := []string{recs[0].ActionType, recs[1].ActionType}
	assert.ElementsMatch(t, []string{"player_join", ActionToggleReady}, types)
	for _, rec := range recs {
		assert.Equal(t, room.Code, rec.RoomCode)
		assert.Equal(t, "p1", rec.ActorID)
	}
}

func TestDepartedWinnerKeepsBudgetAndSquad(t *testing.T) {
	tr := newTestRoom(t, 3, minimalRules(), minimalCatalog())
	tr.toAuction(t)

	round := tr.round(t)
	winner := round.ActivePlayerID
	item := round.Item
	tr.mustAct(t, winner, ActionPlaceBid)
	tr.mustAct(t, tr.round(t).ActivePlayerID, ActionDropFromRound)
	tr.mustAct(t, tr.round(t).ActivePlayerID, ActionDropFromRound)
	require.Equal(t, StatusRoundOver, tr.room.Status())

	tr.store.Leave(tr.room.Code, winner, tr.sinks[winner])
	snap := tr.room.Snapshot()
	require.Len(t, snap.Players, 2)
	require.Len(t, snap.Departed, 1)
	gone := snap.Departed[0]
	assert.Equal(t, winner, gone.ID)
	assert.Equal(t, 9945, gone.Budget)
	assert.Equal(t, []*models.Cricketer{item}, gone.Squad)
	assert.False(t, gone.IsHost)
	assertBudgetsBalance(t, snap)

	// The next item is auctioned without the departed player.
	tr.sched.fire(t)
	if tr.room.Status() == StatusAuction {
		assert.NotContains(t, tr.round(t).PlayersInRound, winner)
	}

	sink := &mockSink{}
	_, err := tr.store.JoinRoom(tr.room.Code, winner, "", sink)
	require.NoError(t, err)
	tr.sinks[winner] = sink
	snap = tr.room.Snapshot()
	assert.Empty(t, snap.Departed)
	back := playerState(t, snap, winner)
	assert.Equal(t, 9945, back.Budget)
	assert.Equal(t, []*models.Cricketer{item}, back.Squad)
	assert.Positive(t, sink.count())

	tr.playToEnd(t, firstBidderWins(t, tr))
	assertBudgetsBalance(t, tr.room.Snapshot())

	tr.store.Leave(tr.room.Code, winner, sink)
	snap = tr.room.Snapshot()
	require.Len(t, snap.Departed, 1)
	assertBudgetsBalance(t, snap)
}

func TestLobbyLeaverIsForgotten(t *testing.T) {
	tr := newTestRoom(t, 3, minimalRules(), minimalCatalog())
	leaver := tr.ids[2]
	tr.store.Leave(tr.room.Code, leaver, tr.sinks[leaver])

	snap := tr.room.Snapshot()
	assert.Len(t, snap.Players, 2)
	assert.Empty(t, snap.Departed)
}

func TestActionIndexesFollowCausalOrder(t *testing.T) {
	tr := newTestRoom(t, 2, minimalRules(), minimalCatalog())
	pub := &recordingPublisher{}
	tr.room.mu.Lock()
	tr.room.publisher = pub
	tr.room.mu.Unlock()
	tr.toAuction(t)

	first := tr.round(t).ActivePlayerID
	second := other(tr.ids, first)
	tr.mustAct(t, first, ActionPlaceBid)
	assert.ErrorIs(t, tr.act(t, first, ActionPlaceBid), ErrNotYourTurn)
	tr.mustAct(t, second, ActionPassTurn)
	require.Equal(t, StatusRoundOver, tr.room.Status())

	find := func(actionType string) (cache.AuctionActionRecord, bool) {
		for _, rec := range pub.records() {
			if rec.ActionType == actionType {
				return rec, true
			}
		}
		return cache.AuctionActionRecord{}, false
	}
	require.Eventually(t, func() bool {
		_, bid := find(ActionPlaceBid)
		_, pass := find(ActionPassTurn)
		_, resolved := find("round_resolved")
		return bid && pass && resolved
	}, time.Second, 10*time.Millisecond)

	bid, _ := find(ActionPlaceBid)
	pass, _ := find(ActionPassTurn)
	resolved, _ := find("round_resolved")
	assert.Equal(t, bid.ActionIndex+1, pass.ActionIndex, "a rejected action takes no index")
	assert.Equal(t, pass.ActionIndex+1, resolved.ActionIndex, "an action is logged before its effects")
}

func TestSnapshotDeadlineCoversTimedPhases(t *testing.T) {
	rules := minimalRules()
	tr := newTestRoom(t, 2, rules, minimalCatalog())

	assert.Zero(t, tr.room.Snapshot().Deadline)

	start := time.Now()
	tr.toPreRound(t)
	snap := tr.room.Snapshot()
	assert.InDelta(t, start.Add(rules.PreRoundDelay).UnixMilli(), snap.Deadline, 1000)

	tr.sched.fire(t)
	snap = tr.room.Snapshot()
	assert.InDelta(t, time.Now().Add(rules.TurnTimeout).UnixMilli(), snap.Deadline, 1000)

	first := snap.Round.ActivePlayerID
	tr.mustAct(t, first, ActionPlaceBid)
	tr.mustAct(t, other(tr.ids, first), ActionPassTurn)
	snap = tr.room.Snapshot()
	require.Equal(t, StatusRoundOver, snap.Status)
	assert.InDelta(t, time.Now().Add(rules.RoundOverDelay).UnixMilli(), snap.Deadline, 1000)

	tr.sched.fire(t)
	snap = tr.room.Snapshot()
	require.Equal(t, StatusSubPoolBreak, snap.Status)
	assert.Zero(t, snap.Deadline, "a break waits for the host, not a timer")
}
