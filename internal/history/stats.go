package history

import "github.com/dmelo/feirinha/internal/model"

// Stats aggregates the whole archived history.
type Stats struct {
	TotalSpent      float64               `json:"total_spent"`
	TotalLists      int                   `json:"total_lists"`
	AvgMonthlySpend float64               `json:"avg_monthly_spend"`
	TopMonth        *model.MonthlySummary `json:"top_month,omitempty"`
	TopCategory     string                `json:"top_category,omitempty"`
	CategoryTotals  map[string]float64    `json:"category_totals"`
}

// Stats computes overall statistics across every monthly summary.
func (a *Archiver) Stats() (Stats, error) {
	months, err := a.store.ListSummaries()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{CategoryTotals: make(map[string]float64)}
	if len(months) == 0 {
		return stats, nil
	}

	var top model.MonthlySummary
	for _, m := range months {
		stats.TotalSpent += m.TotalSpent
		stats.TotalLists += m.ListCount
		if m.TotalSpent > top.TotalSpent {
			top = m
		}
		for cat, spend := range m.CategorySpend {
			stats.CategoryTotals[cat] += spend
		}
	}
	stats.AvgMonthlySpend = stats.TotalSpent / float64(len(months))
	topCopy := top
	stats.TopMonth = &topCopy

	var best float64
	for cat, spend := range stats.CategoryTotals {
		if spend > best || (spend == best && stats.TopCategory == "") {
			best = spend
			stats.TopCategory = cat
		}
	}
	return stats, nil
}
