package catalog

import "strings"

// Classify returns the category for an item name. It consults the product
// catalog first (case-insensitive name lookup), then falls back to keyword
// matching. Unknown names classify as Outros.
func (c *Catalog) Classify(name string) string {
	if p, ok := c.Lookup(name); ok {
		return p.Category
	}
	return classifyKeyword(name)
}

func classifyKeyword(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return CategoryOther
	}
	for _, entry := range keywordRules {
		if strings.Contains(n, entry.keyword) {
			return entry.category
		}
	}
	return CategoryOther
}

type keywordEntry struct {
	keyword  string
	category string
}

// Ordered by category priority; within a category, longer/more-specific
// keywords first. "salsicha" must classify as protein before "sal" can claim
// it for staples.
var keywordRules = []keywordEntry{
	// Laticínios & Padaria
	{"requeijão", CategoryDairyBakery},
	{"manteiga", CategoryDairyBakery},
	{"iogurte", CategoryDairyBakery},
	{"queijo", CategoryDairyBakery},
	{"leite", CategoryDairyBakery},
	{"cream", CategoryDairyBakery},
	{"nata", CategoryDairyBakery},
	{"pão", CategoryDairyBakery},
	{"ovo", CategoryDairyBakery},

	// Carnes & Proteínas
	{"linguiça", CategoryProteins},
	{"salsicha", CategoryProteins},
	{"presunto", CategoryProteins},
	{"frango", CategoryProteins},
	{"carne", CategoryProteins},
	{"peixe", CategoryProteins},

	// Frutas & Verduras
	{"laranja", CategoryProduce},
	{"banana", CategoryProduce},
	{"tomate", CategoryProduce},
	{"alface", CategoryProduce},
	{"cebola", CategoryProduce},
	{"batata", CategoryProduce},
	{"fruta", CategoryProduce},
	{"maçã", CategoryProduce},
	{"uva", CategoryProduce},

	// Doces & Salgadinhos (before "sal" can claim "salgadinho")
	{"salgadinho", CategorySnacks},
	{"chocolate", CategorySnacks},
	{"biscoito", CategorySnacks},
	{"bala", CategorySnacks},

	// Grãos & Básicos
	{"macarrão", CategoryStaples},
	{"farinha", CategoryStaples},
	{"feijão", CategoryStaples},
	{"açúcar", CategoryStaples},
	{"arroz", CategoryStaples},
	{"óleo", CategoryStaples},
	{"sal", CategoryStaples},

	// Higiene & Limpeza
	{"detergente", CategoryHygiene},
	{"amaciante", CategoryHygiene},
	{"sabonete", CategoryHygiene},
	{"shampoo", CategoryHygiene},
	{"escova", CategoryHygiene},
	{"pasta", CategoryHygiene},
	{"papel", CategoryHygiene},

	// Bebidas
	{"refrigerante", CategoryBeverages},
	{"cerveja", CategoryBeverages},
	{"suco", CategoryBeverages},
	{"vinho", CategoryBeverages},
	{"água", CategoryBeverages},
	{"café", CategoryBeverages},

	// Congelados
	{"congelad", CategoryFrozen},
	{"sorvete", CategoryFrozen},
}
