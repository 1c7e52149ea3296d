package models

// Role is one of the four canonical cricketer roles.
type Role string

const (
	RoleBatsman      Role = "Batsman"
	RoleBowler       Role = "Bowler"
	RoleAllRounder   Role = "AllRounder"
	RoleWicketKeeper Role = "WicketKeeper"
)

// Roles lists every role in canonical order.
var Roles = []Role{RoleBatsman, RoleBowler, RoleAllRounder, RoleWicketKeeper}

// Plural returns the lowercase plural used in player-facing messages.
func (r Role) Plural() string {
	switch r {
	case RoleBatsman:
		return "batsmen"
	case RoleBowler:
		return "bowlers"
	case RoleAllRounder:
		return "all-rounders"
	case RoleWicketKeeper:
		return "wicket-keepers"
	}
	return string(r)
}

// PoolLabel is the capitalised plural used in sub-pool names.
func (r Role) PoolLabel() string {
	switch r {
	case RoleBatsman:
		return "Batsmen"
	case RoleBowler:
		return "Bowlers"
	case RoleAllRounder:
		return "AllRounders"
	case RoleWicketKeeper:
		return "WicketKeepers"
	}
	return string(r)
}

// Cricketer is an auctionable item. Rooms only ever hold pointers to it and never mutate it.
type Cricketer struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Role       Role           `json:"role"`
	BasePrice  int            `json:"basePrice"`
	Rating     int            `json:"rating"`
	SubRatings map[string]int `json:"subRatings,omitempty"`
}
