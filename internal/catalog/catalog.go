// Package catalog holds the in-memory product catalog and the category
// classifier used when archiving lists.
package catalog

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Category display names. These are the spend-breakdown buckets used by the
// history rollups.
const (
	CategoryDairyBakery = "Laticínios & Padaria"
	CategoryProteins    = "Carnes & Proteínas"
	CategoryProduce     = "Frutas & Verduras"
	CategoryStaples     = "Grãos & Básicos"
	CategoryHygiene     = "Higiene & Limpeza"
	CategoryBeverages   = "Bebidas"
	CategorySnacks      = "Doces & Salgadinhos"
	CategoryFrozen      = "Congelados"
	CategoryOther       = "Outros"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryDairyBakery,
	CategoryProteins,
	CategoryProduce,
	CategoryStaples,
	CategoryHygiene,
	CategoryBeverages,
	CategorySnacks,
	CategoryFrozen,
	CategoryOther,
}

// Product is a pre-registered catalog entry with a reference average price.
type Product struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Unit       string     `json:"unit"`
	AvgPrice   float64    `json:"avg_price"`
	Favorite   bool       `json:"favorite"`
	TimesUsed  int        `json:"times_used"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Catalog is a concurrency-safe product catalog.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]*Product // keyed by ID
	byName   map[string]string   // normalized name -> ID
}

// New returns a catalog seeded with the default products.
func New() *Catalog {
	c := &Catalog{
		products: make(map[string]*Product),
		byName:   make(map[string]string),
	}
	for _, p := range seedProducts {
		prod := p
		c.products[prod.ID] = &prod
		c.byName[normalize(prod.Name)] = prod.ID
	}
	return c
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup finds a product by name (case-insensitive exact match).
func (c *Catalog) Lookup(name string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[normalize(name)]
	if !ok {
		return Product{}, false
	}
	return *c.products[id], true
}

// Search returns products whose name or category contains the term, favorites
// and most-used first.
func (c *Catalog) Search(term string) []Product {
	term = normalize(term)
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Product
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Category), term) {
			out = append(out, *p)
		}
	}
	sortProducts(out)
	return out
}

// ByCategory returns the products in one category, favorites and most-used
// first.
func (c *Catalog) ByCategory(category string) []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, *p)
		}
	}
	sortProducts(out)
	return out
}

// RecordUse bumps the usage counter for a product, if it exists.
func (c *Catalog) RecordUse(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byName[normalize(name)]
	if !ok {
		return
	}
	now := time.Now().UTC()
	c.products[id].TimesUsed++
	c.products[id].LastUsedAt = &now
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (c *Catalog) ToggleFavorite(id string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return false, false
	}
	p.Favorite = !p.Favorite
	return p.Favorite, true
}

func sortProducts(ps []Product) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Favorite != ps[j].Favorite {
			return ps[i].Favorite
		}
		if ps[i].TimesUsed != ps[j].TimesUsed {
			return ps[i].TimesUsed > ps[j].TimesUsed
		}
		return ps[i].Name < ps[j].Name
	})
}

var seedProducts = []Product{
	// Higiene & Limpeza
	{ID: "papel-higienico", Name: "Papel Higiênico", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 8.50},
	{ID: "sabonete", Name: "Sabonete", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 3.20},
	{ID: "shampoo", Name: "Shampoo", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 12.90},
	{ID: "condicionador", Name: "Condicionador", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 11.50},
	{ID: "pasta-dente", Name: "Pasta de Dente", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 4.80},
	{ID: "escova-dente", Name: "Escova de Dente", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 6.90},
	{ID: "desodorante", Name: "Desodorante", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 9.90},
	{ID: "amaciante", Name: "Amaciante", Category: CategoryHygiene, Unit: "litro", AvgPrice: 8.90},
	{ID: "detergente", Name: "Detergente", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 2.50},
	{ID: "agua-sanitaria", Name: "Água Sanitária", Category: CategoryHygiene, Unit: "litro", AvgPrice: 3.20},
	{ID: "sabao-po", Name: "Sabão em Pó", Category: CategoryHygiene, Unit: "kg", AvgPrice: 12.90},
	{ID: "esponja", Name: "Esponja", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 1.50},
	{ID: "papel-toalha", Name: "Papel Toalha", Category: CategoryHygiene, Unit: "unidade", AvgPrice: 6.90},

	// Laticínios & Padaria
	{ID: "leite", Name: "Leite", Category: CategoryDairyBakery, Unit: "litro", AvgPrice: 4.20},
	{ID: "pao", Name: "Pão", Category: CategoryDairyBakery, Unit: "unidade", AvgPrice: 2.50},
	{ID: "manteiga", Name: "Manteiga", Category: CategoryDairyBakery, Unit: "unidade", AvgPrice: 5.90},
	{ID: "queijo", Name: "Queijo", Category: CategoryDairyBakery, Unit: "kg", AvgPrice: 18.90},
	{ID: "iogurte", Name: "Iogurte", Category: CategoryDairyBakery, Unit: "unidade", AvgPrice: 1.80},
	{ID: "requeijao", Name: "Requeijão", Category: CategoryDairyBakery, Unit: "unidade", AvgPrice: 4.50},
	{ID: "ovo", Name: "Ovos", Category: CategoryDairyBakery, Unit: "dúzia", AvgPrice: 8.90},

	// Carnes & Proteínas
	{ID: "frango", Name: "Frango", Category: CategoryProteins, Unit: "kg", AvgPrice: 12.90},
	{ID: "carne-bovina", Name: "Carne Bovina", Category: CategoryProteins, Unit: "kg", AvgPrice: 25.90},
	{ID: "peixe", Name: "Peixe", Category: CategoryProteins, Unit: "kg", AvgPrice: 18.90},
	{ID: "linguica", Name: "Linguiça", Category: CategoryProteins, Unit: "kg", AvgPrice: 15.90},
	{ID: "presunto", Name: "Presunto", Category: CategoryProteins, Unit: "kg", AvgPrice: 22.90},

	// Frutas & Verduras
	{ID: "banana", Name: "Banana", Category: CategoryProduce, Unit: "kg", AvgPrice: 4.90},
	{ID: "maca", Name: "Maçã", Category: CategoryProduce, Unit: "kg", AvgPrice: 6.90},
	{ID: "laranja", Name: "Laranja", Category: CategoryProduce, Unit: "kg", AvgPrice: 3.90},
	{ID: "tomate", Name: "Tomate", Category: CategoryProduce, Unit: "kg", AvgPrice: 5.90},
	{ID: "alface", Name: "Alface", Category: CategoryProduce, Unit: "unidade", AvgPrice: 1.50},
	{ID: "cebola", Name: "Cebola", Category: CategoryProduce, Unit: "kg", AvgPrice: 4.50},
	{ID: "batata", Name: "Batata", Category: CategoryProduce, Unit: "kg", AvgPrice: 3.90},
	{ID: "cenoura", Name: "Cenoura", Category: CategoryProduce, Unit: "kg", AvgPrice: 4.20},

	// Grãos & Básicos
	{ID: "arroz", Name: "Arroz", Category: CategoryStaples, Unit: "kg", AvgPrice: 4.90},
	{ID: "feijao", Name: "Feijão", Category: CategoryStaples, Unit: "kg", AvgPrice: 6.90},
	{ID: "macarrao", Name: "Macarrão", Category: CategoryStaples, Unit: "unidade", AvgPrice: 2.90},
	{ID: "acucar", Name: "Açúcar", Category: CategoryStaples, Unit: "kg", AvgPrice: 3.90},
	{ID: "sal", Name: "Sal", Category: CategoryStaples, Unit: "unidade", AvgPrice: 1.50},
	{ID: "oleo", Name: "Óleo", Category: CategoryStaples, Unit: "litro", AvgPrice: 4.50},
	{ID: "farinha-trigo", Name: "Farinha de Trigo", Category: CategoryStaples, Unit: "kg", AvgPrice: 3.50},

	// Bebidas
	{ID: "agua", Name: "Água", Category: CategoryBeverages, Unit: "litro", AvgPrice: 2.50},
	{ID: "refrigerante", Name: "Refrigerante", Category: CategoryBeverages, Unit: "litro", AvgPrice: 4.90},
	{ID: "suco", Name: "Suco", Category: CategoryBeverages, Unit: "litro", AvgPrice: 3.90},
	{ID: "cafe", Name: "Café", Category: CategoryBeverages, Unit: "kg", AvgPrice: 8.90},
	{ID: "cerveja", Name: "Cerveja", Category: CategoryBeverages, Unit: "unidade", AvgPrice: 2.90},

	// Doces & Salgadinhos
	{ID: "chocolate", Name: "Chocolate", Category: CategorySnacks, Unit: "unidade", AvgPrice: 4.50},
	{ID: "biscoito", Name: "Biscoito", Category: CategorySnacks, Unit: "unidade", AvgPrice: 3.90},
	{ID: "salgadinho", Name: "Salgadinho", Category: CategorySnacks, Unit: "unidade", AvgPrice: 2.90},

	// Congelados
	{ID: "sorvete", Name: "Sorvete", Category: CategoryFrozen, Unit: "unidade", AvgPrice: 8.90},
	{ID: "pizza-congelada", Name: "Pizza Congelada", Category: CategoryFrozen, Unit: "unidade", AvgPrice: 12.90},
}
