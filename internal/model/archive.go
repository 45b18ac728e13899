package model

import "time"

// ArchivedItem is an item as captured at archive time, tagged with its
// best-effort category classification. PurchasedAt is set only for items
// that were purchased when the list was finalized.
type ArchivedItem struct {
	Code        int64      `json:"code"`
	Name        string     `json:"name"`
	Quantity    float64    `json:"quantity"`
	UnitPrice   float64    `json:"unit_price"`
	Purchased   bool       `json:"purchased"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
	Category    string     `json:"category"`
}

// ArchivedList is the immutable record created from a list when the user
// finalizes it. StartedAt is an estimate, not a tracked value.
type ArchivedList struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	StartedAt       time.Time      `json:"started_at"`
	FinishedAt      time.Time      `json:"finished_at"`
	Items           []ArchivedItem `json:"items"`
	TotalSpent      float64        `json:"total_spent"`
	ItemCount       int            `json:"item_count"`
	PercentComplete int            `json:"percent_complete"`
}

// MonthlySummary is the rollup of all lists archived in one year-month.
// Key format is "YYYY-MM".
type MonthlySummary struct {
	Key           string             `json:"key"`
	Month         string             `json:"month"`
	Year          int                `json:"year"`
	TotalSpent    float64            `json:"total_spent"`
	ListCount     int                `json:"list_count"`
	ItemCount     int                `json:"item_count"`
	AvgPerList    float64            `json:"avg_per_list"`
	CategorySpend map[string]float64 `json:"category_spend"`
}
