// internal/game/resolver.go
package game

import (
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/models"
	log "github.com/sirupsen/logrus"
)

// resolveRound settles the item in play and schedules the move to the next one.
// Assumes lock is held.
func (r *Room) resolveRound(outcome roundOutcome) {
	round := r.round
	entry := models.HistoryEntry{
		Item:        round.Item,
		WinnerID:    models.UnsoldWinnerID,
		SubPool:     r.currentPoolName(),
		SecondRound: r.secondRound,
	}

	var winner *Player
	if outcome == roundSold && round.HighestBidderID != "" && round.inRound(round.HighestBidderID) {
		winner = r.getPlayerByID(round.HighestBidderID)
	}
	if winner != nil && winner.Budget >= round.CurrentBid {
		winner.Budget -= round.CurrentBid
		winner.Squad = append(winner.Squad, round.Item)
		entry.WinnerID = winner.ID
		entry.WinningBid = round.CurrentBid
		r.logger.WithFields(log.Fields{"item": round.Item.ID, "winner": winner.ID, "bid": round.CurrentBid}).Infof("item sold")
	} else {
		r.unsold = append(r.unsold, round.Item)
		r.logger.WithField("item", round.Item.ID).Infof("item unsold")
	}
	r.history = append(r.history, entry)
	r.logAction(entry.WinnerID, "round_resolved", map[string]interface{}{
		"itemId":     round.Item.ID,
		"winningBid": entry.WinningBid,
		"winnerId":   entry.WinnerID,
		"subPool":    entry.SubPool,
	})

	round.ActivePlayerID = ""
	round.FinalTurn = false
	r.status = StatusRoundOver
	r.schedule(r.rules.RoundOverDelay, StatusRoundOver, "", r.advanceAfterRound)
	r.deadline = time.Now().Add(r.rules.RoundOverDelay)
	r.broadcastState()
}

// advanceAfterRound moves to the next item, the next sub-pool break, the second round or the
// end of the game. Assumes lock is held.
func (r *Room) advanceAfterRound() {
	if r.poolIdx < len(r.pools) && len(r.pools[r.poolIdx].Items) > 0 {
		r.startRound()
		return
	}

	finished := r.currentPoolName()
	next := r.poolIdx + 1
	for next < len(r.pools) && len(r.pools[next].Items) == 0 {
		next++
	}
	if next < len(r.pools) {
		r.poolIdx = next
		r.enterBreak(finished, r.pools[next].Name)
		return
	}

	if len(r.unsold) > 0 && !r.secondRound {
		r.pools = BuildSecondRoundPools(r.unsold)
		r.unsold = nil
		r.secondRound = true
		r.poolIdx = 0
		r.logger.Infof("starting second round with %d pools", len(r.pools))
		r.enterBreak(finished, r.pools[0].Name)
		return
	}

	r.finish()
}

func (r *Room) currentPoolName() string {
	if r.poolIdx < len(r.pools) {
		return r.pools[r.poolIdx].Name
	}
	return ""
}
