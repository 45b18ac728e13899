package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmelo/feirinha/internal/catalog"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/sync"
)

type ItemHandler struct {
	syncer  *sync.Syncer
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewItemHandler(s *sync.Syncer, c *catalog.Catalog, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{syncer: s, catalog: c, logger: logger}
}

// flexAmount decodes a JSON number or a numeric string. Older clients send
// "" for fields the user left blank, so empty strings and null count as
// absent rather than zero.
type flexAmount struct {
	value float64
	set   bool
}

func (f *flexAmount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	f.value = v
	f.set = true
	return nil
}

func (f flexAmount) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

type createItemRequest struct {
	Name      string     `json:"name"`
	Quantity  flexAmount `json:"quantity"`
	UnitPrice flexAmount `json:"unit_price"`
}

// itemPatchRequest distinguishes absent fields from zero values: only the
// keys present in the request body are applied.
type itemPatchRequest struct {
	Name      *string    `json:"name"`
	Quantity  flexAmount `json:"quantity"`
	UnitPrice flexAmount `json:"unit_price"`
	Purchased *bool      `json:"purchased"`
}

func (r itemPatchRequest) patch() model.ItemPatch {
	return model.ItemPatch{
		Name:      r.Name,
		Quantity:  r.Quantity.ptr(),
		UnitPrice: r.UnitPrice.ptr(),
		Purchased: r.Purchased,
	}
}

// negativeAmount reports whether any present value is below zero. Quantities
// and unit prices are non-negative throughout the data model.
func negativeAmount(vals ...*float64) bool {
	for _, v := range vals {
		if v != nil && *v < 0 {
			return true
		}
	}
	return false
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.syncer.Items()
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list items"})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if negativeAmount(req.Quantity.ptr(), req.UnitPrice.ptr()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity and unit price must be non-negative"})
		return
	}

	item, err := h.syncer.Add(model.Item{
		Name:      req.Name,
		Quantity:  req.Quantity.value,
		UnitPrice: req.UnitPrice.value,
	})
	if err != nil {
		h.logger.Error("add item", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add item"})
		return
	}
	h.catalog.RecordUse(req.Name)
	writeJSON(w, http.StatusCreated, item)
}

// Update applies every field present in the body, including zero values.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid code"})
		return
	}
	var req itemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if negativeAmount(req.Quantity.ptr(), req.UnitPrice.ptr()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity and unit price must be non-negative"})
		return
	}
	if err := h.syncer.Update(code, req.patch()); err != nil {
		h.logger.Error("update item", "code", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update item"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Edit applies only name, quantity and unit price, ignoring blank names.
func (h *ItemHandler) Edit(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid code"})
		return
	}
	var req itemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if negativeAmount(req.Quantity.ptr(), req.UnitPrice.ptr()) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "quantity and unit price must be non-negative"})
		return
	}
	if err := h.syncer.Edit(code, req.patch()); err != nil {
		h.logger.Error("edit item", "code", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to edit item"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "edited"})
}

func (h *ItemHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid code"})
		return
	}
	if err := h.syncer.Toggle(code); err != nil {
		h.logger.Error("toggle item", "code", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle item"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "toggled"})
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid code"})
		return
	}
	if err := h.syncer.Remove(code); err != nil {
		h.logger.Error("remove item", "code", code, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove item"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *ItemHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.ClearAll(); err != nil {
		h.logger.Error("clear items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to clear items"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type summaryResponse struct {
	TotalAll       float64    `json:"total_all"`
	TotalPurchased float64    `json:"total_purchased"`
	Complete       bool       `json:"complete"`
	ActiveListID   string     `json:"active_list_id,omitempty"`
	SyncState      sync.State `json:"sync_state"`
}

func (h *ItemHandler) Summary(w http.ResponseWriter, r *http.Request) {
	totalAll, err := h.syncer.TotalAll()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute totals"})
		return
	}
	totalPurchased, err := h.syncer.TotalPurchased()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute totals"})
		return
	}
	complete, err := h.syncer.IsComplete()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute status"})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		TotalAll:       totalAll,
		TotalPurchased: totalPurchased,
		Complete:       complete,
		ActiveListID:   h.syncer.ActiveListID(),
		SyncState:      h.syncer.State(),
	})
}
