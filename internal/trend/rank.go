package trend

import (
	"fmt"
	"sort"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// DefaultTopK is the number of categories kept when none is configured.
const DefaultTopK = 5

// TopCategories sums counts per category and returns the k largest, sorted by total
// descending. Ties are broken by the order in which a category is first met while
// scanning keys in natural order (day ascending, then label ascending), so the result
// does not depend on map iteration order. k is clamped to the number of categories.
// Fails with ErrInsufficientData when counts holds no category at all.
func TopCategories(counts models.DailyCounts, k int) ([]models.RankedCategory, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: top-k must be at least 1, got %d", models.ErrConfiguration, k)
	}

	totals := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string
	for _, key := range counts.Keys() {
		if _, ok := firstSeen[key.Category]; !ok {
			firstSeen[key.Category] = len(order)
			order = append(order, key.Category)
		}
		totals[key.Category] += counts[key]
	}

	if len(order) == 0 {
		return nil, fmt.Errorf("%w: no categories to rank", models.ErrInsufficientData)
	}

	ranked := make([]models.RankedCategory, 0, len(order))
	for _, c := range order {
		ranked = append(ranked, models.RankedCategory{Category: c, Total: totals[c]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		// Tie-break: first encounter in natural key order
		return firstSeen[ranked[i].Category] < firstSeen[ranked[j].Category]
	})

	if k > len(ranked) {
		logger.Debug("TopCategories: clamping k=%d to %d available categories", k, len(ranked))
		k = len(ranked)
	}
	return ranked[:k], nil
}
