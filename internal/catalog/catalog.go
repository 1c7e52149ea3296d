// internal/catalog/catalog.go
package catalog

import (
	"context"
	"strings"

	"github.com/jason-s-yu/cricket-auction/internal/models"
	log "github.com/sirupsen/logrus"
)

// Source supplies every auctionable cricketer. Rooms call it once per pool draw.
type Source interface {
	Load(ctx context.Context) ([]*models.Cricketer, error)
}

// Record is a catalog row as stored upstream, before role normalization.
type Record struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Role       string         `json:"role"`
	BasePrice  int            `json:"basePrice"`
	Rating     int            `json:"rating"`
	SubRatings map[string]int `json:"subRatings,omitempty"`
}

var roleAliases = map[string]models.Role{
	"batsman":      models.RoleBatsman,
	"batsmen":      models.RoleBatsman,
	"batter":       models.RoleBatsman,
	"bowler":       models.RoleBowler,
	"allrounder":   models.RoleAllRounder,
	"wicketkeeper": models.RoleWicketKeeper,
	"keeper":       models.RoleWicketKeeper,
	"wk":           models.RoleWicketKeeper,
}

// NormalizeRole maps a free-form role string onto one of the canonical roles. Matching ignores
// case, spaces, hyphens and underscores.
func NormalizeRole(raw string) (models.Role, bool) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(raw))
	role, ok := roleAliases[key]
	return role, ok
}

// FromRecords converts raw records into cricketers. Records with an unknown role, no id or a
// non-positive base price are dropped.
func FromRecords(records []Record) []*models.Cricketer {
	out := make([]*models.Cricketer, 0, len(records))
	dropped := 0
	for _, rec := range records {
		role, ok := NormalizeRole(rec.Role)
		if !ok || rec.ID == "" || rec.BasePrice <= 0 {
			dropped++
			continue
		}
		out = append(out, &models.Cricketer{
			ID:         rec.ID,
			Name:       rec.Name,
			Role:       role,
			BasePrice:  rec.BasePrice,
			Rating:     rec.Rating,
			SubRatings: rec.SubRatings,
		})
	}
	if dropped > 0 {
		log.WithField("dropped", dropped).Debug("catalog records skipped during normalization")
	}
	return out
}

// Counts tallies cricketers per role.
func Counts(items []*models.Cricketer) map[models.Role]int {
	counts := make(map[models.Role]int, len(models.Roles))
	for _, c := range items {
		counts[c.Role]++
	}
	return counts
}
