package model

// Category is a spending category shown in breakdowns.
type Category struct {
	ID    string
	Label string
}

// DefaultCategory is used for unknown category IDs.
const DefaultCategory = "outros"

// Categories lists the built-in categories in display order.
var Categories = []Category{
	{ID: "moradia", Label: "Moradia"},
	{ID: "padaria", Label: "Padaria"},
	{ID: "mercado", Label: "Mercado"},
	{ID: "posto", Label: "Posto"},
	{ID: "transporte", Label: "Transporte"},
	{ID: "alimentacao", Label: "Alimentação"},
	{ID: "educacao", Label: "Educação"},
	{ID: "servicos", Label: "Serviços"},
	{ID: "roupas", Label: "Roupas"},
	{ID: "saude", Label: "Saúde"},
	{ID: "lazer", Label: "Lazer"},
	{ID: "esporte", Label: "Esporte"},
	{ID: DefaultCategory, Label: "Outros"},
}

// LookupCategory returns the category for id, falling back to "outros".
func LookupCategory(id string) Category {
	for _, c := range Categories {
		if c.ID == id {
			return c
		}
	}
	return Categories[len(Categories)-1]
}

// IsCategory reports whether id is a built-in category.
func IsCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
