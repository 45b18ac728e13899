package cache

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/dmelo/feirinha/internal/model"
)

// flexFloat decodes a JSON number, a numeric string, or null. Anything
// non-numeric becomes zero. The persisted representation accreted loosely
// typed payloads over time, so the cache normalizes at its boundary instead
// of raising.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*f = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// storedItem is the tolerant wire shape of a cached item.
type storedItem struct {
	Code      int64     `json:"code"`
	Name      string    `json:"name"`
	Quantity  flexFloat `json:"quantity"`
	UnitPrice flexFloat `json:"unit_price"`
	Purchased bool      `json:"purchased"`
	CreatedAt time.Time `json:"created_at"`
	RemoteID  string    `json:"remote_id"`
	ListID    string    `json:"list_id"`
	CreatedBy int64     `json:"created_by"`
}

func (s storedItem) item() model.Item {
	return model.Item{
		Code:      s.Code,
		Name:      s.Name,
		Quantity:  float64(s.Quantity),
		UnitPrice: float64(s.UnitPrice),
		Purchased: s.Purchased,
		CreatedAt: s.CreatedAt,
		RemoteID:  s.RemoteID,
		ListID:    s.ListID,
		CreatedBy: s.CreatedBy,
	}
}
