package matrix

import (
	"math"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

// ComputeMetrics derives the mismatch summary from an entry's location map.
// Only present, finite prices participate. With fewer than two priced
// locations there is nothing to disagree about: spread is 0 and mismatch is
// false. The result always replaces the stored metrics wholesale; the
// location map may have changed in ways a partial update would miss.
func ComputeMetrics(locations map[string]models.LocationSnapshot) models.MismatchMetrics {
	var prices []float64
	for _, snap := range locations {
		if snap.Price == nil {
			continue
		}
		p := *snap.Price
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		prices = append(prices, p)
	}

	m := models.MismatchMetrics{PricedLocations: len(prices)}
	if len(prices) == 0 {
		return m
	}

	minP, maxP := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	m.MinPrice = &minP
	m.MaxPrice = &maxP
	if len(prices) >= 2 {
		m.Spread = maxP - minP
		m.Mismatch = m.Spread > 0
	}
	return m
}
