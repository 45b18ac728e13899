package model

import "time"

// Item is one purchasable product on a list. Code is assigned by the local
// cache at insertion time and is unique within a list; it is never reused
// after deletion. RemoteID is set once the item has been persisted to the
// server-side collection.
type Item struct {
	Code      int64     `json:"code"`
	Name      string    `json:"name"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
	RemoteID  string    `json:"remote_id,omitempty"`
	ListID    string    `json:"list_id,omitempty"`
	CreatedBy int64     `json:"created_by,omitempty"`
}

// Total returns quantity × unit price for the item.
func (i Item) Total() float64 {
	return i.Quantity * i.UnitPrice
}

// ItemPatch is a partial item update. Nil fields are left untouched by both
// Update and Edit; the two differ in how they treat provided zero values
// (see cache.ListCache).
type ItemPatch struct {
	Name      *string  `json:"name,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Purchased *bool    `json:"purchased,omitempty"`
}
