// internal/game/turns.go
package game

import (
	"slices"

	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// Round is the bidding state for the single item in play.
type Round struct {
	Item            *models.Cricketer `json:"item"`
	CurrentBid      int               `json:"currentBid"`
	HighestBidderID string            `json:"highestBidderId,omitempty"`
	BiddingOrder    []string          `json:"biddingOrder"`
	PlayersInRound  []string          `json:"playersInRound"`
	ActivePlayerID  string            `json:"activePlayerId,omitempty"`

	// FinalTurn is set while a lone survivor takes the turn granted by SoleSurvivorFinalTurn.
	FinalTurn bool `json:"finalTurn"`
	// claimed is set when the final-turn player accepted the standing price.
	claimed bool
}

// rotate returns master starting at index start, wrapping around.
func rotate(master []string, start int) []string {
	n := len(master)
	if n == 0 {
		return nil
	}
	start = ((start % n) + n) % n
	out := make([]string, 0, n)
	out = append(out, master[start:]...)
	return append(out, master[:start]...)
}

// newRound seats every player in master who is still present and can afford the base price.
// budgets holds the current budget of each present player.
func newRound(item *models.Cricketer, master []string, start int, budgets map[string]int) *Round {
	r := &Round{
		Item:       item,
		CurrentBid: item.BasePrice,
	}
	for _, id := range rotate(master, start) {
		budget, present := budgets[id]
		if !present || budget < item.BasePrice {
			continue
		}
		r.BiddingOrder = append(r.BiddingOrder, id)
	}
	r.PlayersInRound = append([]string(nil), r.BiddingOrder...)
	if len(r.BiddingOrder) > 0 {
		r.ActivePlayerID = r.BiddingOrder[0]
	}
	return r
}

func (r *Round) inRound(id string) bool {
	return slices.Contains(r.PlayersInRound, id)
}

// advanceFrom moves the active pointer to the next id after from that is still in the round.
// The walk covers at most one full cycle of the bidding order.
func (r *Round) advanceFrom(from string) {
	n := len(r.BiddingOrder)
	idx := slices.Index(r.BiddingOrder, from)
	r.ActivePlayerID = ""
	if n == 0 || len(r.PlayersInRound) == 0 {
		return
	}
	for step := 1; step <= n; step++ {
		cand := r.BiddingOrder[(idx+step+n)%n]
		if r.inRound(cand) {
			r.ActivePlayerID = cand
			return
		}
	}
}

func (r *Round) remove(id string) {
	r.PlayersInRound = slices.DeleteFunc(r.PlayersInRound, func(p string) bool { return p == id })
}

// applyBid raises the standing bid on behalf of the active player. budget is the actor's
// current budget. On a final turn the bid claims the item at the standing price.
func (r *Round) applyBid(actor string, budget int) error {
	if actor == "" || actor != r.ActivePlayerID {
		return ErrNotYourTurn
	}
	if r.FinalTurn {
		if budget < r.CurrentBid {
			return ErrInsufficientBudget
		}
		r.HighestBidderID = actor
		r.claimed = true
		return nil
	}
	bid := NextBid(r.CurrentBid)
	if budget < bid {
		return ErrInsufficientBudget
	}
	r.CurrentBid = bid
	r.HighestBidderID = actor
	r.advanceFrom(actor)
	return nil
}

// applyPass hands the turn on without leaving the round.
func (r *Round) applyPass(actor string) error {
	if actor == "" || actor != r.ActivePlayerID {
		return ErrNotYourTurn
	}
	if r.FinalTurn {
		r.remove(actor)
		r.ActivePlayerID = ""
		return nil
	}
	r.advanceFrom(actor)
	return nil
}

// applyDrop removes the active player from the round. Timeouts are treated as drops.
func (r *Round) applyDrop(actor string) error {
	if actor == "" || actor != r.ActivePlayerID {
		return ErrNotYourTurn
	}
	r.remove(actor)
	r.advanceFrom(actor)
	return nil
}

func (r *Round) applyTimeout(actor string) error {
	return r.applyDrop(actor)
}

// removePlayer takes a departed player out of the round. A standing bid by that player stays
// as the price floor but no longer has an owner.
func (r *Round) removePlayer(id string) {
	if !r.inRound(id) && r.HighestBidderID != id {
		return
	}
	wasActive := r.ActivePlayerID == id
	r.remove(id)
	if r.HighestBidderID == id {
		r.HighestBidderID = ""
		r.claimed = false
	}
	if wasActive {
		r.FinalTurn = false
		r.advanceFrom(id)
	}
}

// roundOutcome is what the sequencer decided after the last action.
type roundOutcome int

const (
	roundContinues roundOutcome = iota
	roundSold
	roundUnsold
)

// settle checks whether the round has ended, applying policy when one player is left without
// a bid. It may switch the round into its final turn instead of ending it.
func (r *Round) settle(policy SoleSurvivorPolicy) roundOutcome {
	if r.claimed {
		return roundSold
	}
	if r.HighestBidderID != "" && r.ActivePlayerID == r.HighestBidderID {
		return roundSold
	}
	switch len(r.PlayersInRound) {
	case 0:
		return roundUnsold
	case 1:
		survivor := r.PlayersInRound[0]
		if r.HighestBidderID != "" {
			if r.HighestBidderID == survivor {
				return roundSold
			}
			return roundUnsold
		}
		switch policy {
		case SoleSurvivorSellAtBase:
			r.HighestBidderID = survivor
			r.CurrentBid = r.Item.BasePrice
			return roundSold
		case SoleSurvivorUnsold:
			return roundUnsold
		default:
			if r.FinalTurn {
				// The survivor already used the granted turn without claiming.
				return roundUnsold
			}
			r.FinalTurn = true
			r.ActivePlayerID = survivor
			return roundContinues
		}
	}
	return roundContinues
}
