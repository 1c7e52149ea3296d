// internal/game/rules.go
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// SoleSurvivorPolicy decides what happens when exactly one eligible player is left in a round
// and nobody has bid yet.
type SoleSurvivorPolicy string

const (
	// SoleSurvivorFinalTurn gives the lone player one more turn. A BID on that turn claims the
	// item at the standing price; anything else leaves it unsold.
	SoleSurvivorFinalTurn SoleSurvivorPolicy = "final_turn"
	// SoleSurvivorSellAtBase sells the item to the lone player at its base price without a turn.
	SoleSurvivorSellAtBase SoleSurvivorPolicy = "sell_at_base"
	// SoleSurvivorUnsold marks the item unsold.
	SoleSurvivorUnsold SoleSurvivorPolicy = "unsold"
)

// MaxTimerSeconds caps every room timer.
const MaxTimerSeconds = 3600

func (p SoleSurvivorPolicy) valid() bool {
	switch p {
	case SoleSurvivorFinalTurn, SoleSurvivorSellAtBase, SoleSurvivorUnsold:
		return true
	}
	return false
}

// TierSpec is one entry of the published sub-pool traversal order.
type TierSpec struct {
	Role models.Role `json:"role"`
	Name string      `json:"name"`
	Size int         `json:"size"`
}

// AuctionRules holds every tunable of an auction room.
type AuctionRules struct {
	StartingBudget int                `json:"startingBudget"`
	MaxPlayers     int                `json:"maxPlayers"`
	MinPlayers     int                `json:"minPlayers"`
	PreRoundDelay  time.Duration      `json:"preRoundDelay"`
	TurnTimeout    time.Duration      `json:"turnTimeout"`
	RoundOverDelay time.Duration      `json:"roundOverDelay"`
	Tiers          []TierSpec         `json:"tiers"`
	SoleSurvivor   SoleSurvivorPolicy `json:"soleSurvivor"`
}

// DefaultTiers is the published traversal order: 17 batsmen, 15 bowlers, 20 all-rounders and
// 8 wicket-keepers, interleaved so that two consecutive tiers never share a role.
var DefaultTiers = []TierSpec{
	{Role: models.RoleBatsman, Name: "Batsmen-Tier-1", Size: 8},
	{Role: models.RoleBowler, Name: "Bowlers-Tier-1", Size: 8},
	{Role: models.RoleAllRounder, Name: "AllRounders-Tier-1", Size: 10},
	{Role: models.RoleWicketKeeper, Name: "WicketKeepers", Size: 8},
	{Role: models.RoleBatsman, Name: "Batsmen-Tier-2", Size: 9},
	{Role: models.RoleBowler, Name: "Bowlers-Tier-2", Size: 7},
	{Role: models.RoleAllRounder, Name: "AllRounders-Tier-2", Size: 10},
}

// DefaultRules returns the production configuration.
func DefaultRules() AuctionRules {
	tiers := make([]TierSpec, len(DefaultTiers))
	copy(tiers, DefaultTiers)
	return AuctionRules{
		StartingBudget: 10000,
		MaxPlayers:     4,
		MinPlayers:     2,
		PreRoundDelay:  5 * time.Second,
		TurnTimeout:    15 * time.Second,
		RoundOverDelay: 3 * time.Second,
		Tiers:          tiers,
		SoleSurvivor:   SoleSurvivorFinalTurn,
	}
}

// Quotas sums the tier sizes per role.
func (rules AuctionRules) Quotas() map[models.Role]int {
	q := make(map[models.Role]int, len(models.Roles))
	for _, t := range rules.Tiers {
		q[t.Role] += t.Size
	}
	return q
}

// Validate checks that the rules describe a playable auction.
func (rules AuctionRules) Validate() error {
	if rules.StartingBudget <= 0 {
		return errors.New("startingBudget must be positive")
	}
	if rules.MaxPlayers <= 0 || rules.MinPlayers <= 0 || rules.MinPlayers > rules.MaxPlayers {
		return fmt.Errorf("invalid player bounds min=%d max=%d", rules.MinPlayers, rules.MaxPlayers)
	}
	if rules.PreRoundDelay <= 0 || rules.TurnTimeout <= 0 || rules.RoundOverDelay <= 0 {
		return errors.New("timer durations must be positive")
	}
	limit := MaxTimerSeconds * time.Second
	if rules.PreRoundDelay > limit || rules.TurnTimeout > limit || rules.RoundOverDelay > limit {
		return fmt.Errorf("timer durations must not exceed %ds", MaxTimerSeconds)
	}
	if len(rules.Tiers) == 0 {
		return errors.New("at least one tier is required")
	}
	for i, t := range rules.Tiers {
		if t.Size <= 0 {
			return fmt.Errorf("tier %q must have a positive size", t.Name)
		}
		if i > 0 && rules.Tiers[i-1].Role == t.Role {
			return fmt.Errorf("tiers %q and %q are consecutive with the same role", rules.Tiers[i-1].Name, t.Name)
		}
	}
	if !rules.SoleSurvivor.valid() {
		return fmt.Errorf("unknown soleSurvivor policy %q", rules.SoleSurvivor)
	}
	return nil
}

// Update applies the subset of rules a host may change from the lobby. Keys that are absent
// keep their old value. Timer values are given in whole seconds.
func (rules *AuctionRules) Update(newRules map[string]interface{}) error {
	assignSeconds := func(field *time.Duration, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var secs int
		switch v := val.(type) {
		case float64:
			if v > MaxTimerSeconds {
				return fmt.Errorf("%s must be at most %d", key, MaxTimerSeconds)
			}
			secs = int(v)
		case int:
			secs = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if secs <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
		if secs > MaxTimerSeconds {
			return fmt.Errorf("%s must be at most %d", key, MaxTimerSeconds)
		}
		*field = time.Duration(secs) * time.Second
		return nil
	}

	if err := assignSeconds(&rules.TurnTimeout, "turnTimerSec"); err != nil {
		return err
	}
	if err := assignSeconds(&rules.PreRoundDelay, "preRoundSec"); err != nil {
		return err
	}
	if err := assignSeconds(&rules.RoundOverDelay, "roundOverSec"); err != nil {
		return err
	}
	if val, exists := newRules["soleSurvivor"]; exists && val != nil {
		s, ok := val.(string)
		if !ok || !SoleSurvivorPolicy(s).valid() {
			return fmt.Errorf("invalid soleSurvivor policy %v", val)
		}
		rules.SoleSurvivor = SoleSurvivorPolicy(s)
	}
	return nil
}

// ParseRules applies an update to a copy of current and returns it; current is left untouched.
func ParseRules(newRules map[string]interface{}, current AuctionRules) (AuctionRules, error) {
	updated := current
	updated.Tiers = append([]TierSpec(nil), current.Tiers...)
	err := updated.Update(newRules)
	return updated, err
}
