// internal/game/pools.go
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// ErrInsufficientCatalog matches any *InsufficientCatalogError.
var ErrInsufficientCatalog = errors.New("insufficient catalog")

// Shortfall is one role the catalog cannot fill.
type Shortfall struct {
	Role  models.Role `json:"role"`
	Need  int         `json:"need"`
	Found int         `json:"found"`
}

// InsufficientCatalogError lists every role whose quota exceeds the catalog.
type InsufficientCatalogError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientCatalogError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("need %d %s, found %d", s.Need, s.Role.Plural(), s.Found))
	}
	return strings.Join(parts, "; ")
}

func (e *InsufficientCatalogError) Is(target error) bool {
	return target == ErrInsufficientCatalog
}

// SubPool is a named queue of cricketers of one role, auctioned front to back.
type SubPool struct {
	Name  string              `json:"name"`
	Role  models.Role         `json:"role"`
	Items []*models.Cricketer `json:"items"`
}

// pop removes and returns the front item, or nil when the pool is exhausted.
func (p *SubPool) pop() *models.Cricketer {
	if len(p.Items) == 0 {
		return nil
	}
	item := p.Items[0]
	p.Items = p.Items[1:]
	return item
}

// BuildPools samples the catalog into the tiers described by tiers, in tier order.
// Nothing is built when any role is short.
func BuildPools(catalog []*models.Cricketer, tiers []TierSpec, rng *rand.Rand) ([]*SubPool, error) {
	byRole := make(map[models.Role][]*models.Cricketer, len(models.Roles))
	for _, c := range catalog {
		byRole[c.Role] = append(byRole[c.Role], c)
	}

	quotas := AuctionRules{Tiers: tiers}.Quotas()
	var short []Shortfall
	for _, role := range models.Roles {
		need := quotas[role]
		if found := len(byRole[role]); found < need {
			short = append(short, Shortfall{Role: role, Need: need, Found: found})
		}
	}
	if len(short) > 0 {
		return nil, &InsufficientCatalogError{Shortfalls: short}
	}

	samples := make(map[models.Role][]*models.Cricketer, len(quotas))
	for _, role := range models.Roles {
		need := quotas[role]
		if need == 0 {
			continue
		}
		candidates := byRole[role]
		perm := rng.Perm(len(candidates))
		sample := make([]*models.Cricketer, need)
		for i := 0; i < need; i++ {
			sample[i] = candidates[perm[i]]
		}
		// Ratings split the sample across tiers; order inside a tier stays as sampled.
		sort.SliceStable(sample, func(i, j int) bool { return sample[i].Rating > sample[j].Rating })
		samples[role] = sample
	}

	pools := make([]*SubPool, 0, len(tiers))
	for _, t := range tiers {
		sample := samples[t.Role]
		pools = append(pools, &SubPool{
			Name:  t.Name,
			Role:  t.Role,
			Items: append([]*models.Cricketer(nil), sample[:t.Size]...),
		})
		samples[t.Role] = sample[t.Size:]
	}
	return pools, nil
}

// BuildSecondRoundPools groups unsold items by role, keeping the order in which they went unsold.
func BuildSecondRoundPools(unsold []*models.Cricketer) []*SubPool {
	byRole := make(map[models.Role][]*models.Cricketer)
	for _, c := range unsold {
		byRole[c.Role] = append(byRole[c.Role], c)
	}
	var pools []*SubPool
	for _, role := range models.Roles {
		items := byRole[role]
		if len(items) == 0 {
			continue
		}
		pools = append(pools, &SubPool{
			Name:  "Unsold-" + role.PoolLabel(),
			Role:  role,
			Items: items,
		})
	}
	return pools
}
