package search

import (
	"strings"

	"github.com/gridwatch/searchsync/internal/domain/document"
	"github.com/gridwatch/searchsync/internal/domain/entity"
)

// Match-quality boosts applied on top of the per-type base weight.
const (
	exactMatchBoost  = 50.0
	prefixMatchBoost = 25.0
)

// Weights maps entity types to base relevance scores. The table is explicit
// configuration so weighting policy can be tested and tuned independently
// of merge and sort logic.
type Weights map[entity.Type]float64

// DefaultWeights orders result types by importance: organizations first,
// sensors last.
func DefaultWeights() Weights {
	return Weights{
		entity.Organization: 100,
		entity.Location:     80,
		entity.Zone:         60,
		entity.Report:       50,
		entity.Dashboard:    40,
		entity.Sensor:       20,
	}
}

// Score computes the relevance of one matched document for a query: the
// type's base weight, plus a boost for an exact name match or a match at
// the start of the name.
func (w Weights) Score(doc document.Document, query string) float64 {
	score := w[doc.EntityType]

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return score
	}

	name := strings.ToLower(doc.Name)
	switch {
	case name == q:
		score += exactMatchBoost
	case strings.HasPrefix(name, q):
		score += prefixMatchBoost
	}
	return score
}
