package handler

import (
	"net/http"

	"github.com/dmelo/feirinha/internal/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// Search suggests products matching the q parameter, favorites and most-used
// first. Without q it returns suggestions for a category.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	var products []catalog.Product
	switch {
	case q != "":
		products = h.catalog.Search(q)
	case category != "":
		products = h.catalog.ByCategory(category)
	default:
		products = h.catalog.Search("")
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Categories)
}

func (h *CatalogHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	favorite, ok := h.catalog.ToggleFavorite(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": favorite})
}

// Classify returns the spend category for a free-form item name.
func (h *CatalogHandler) Classify(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"category": h.catalog.Classify(name)})
}
