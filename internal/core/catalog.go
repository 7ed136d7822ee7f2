package core

// Category is a selectable category for income or expense entries.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var categoryCatalog = map[Kind][]Category{
	KindIncome: {
		{ID: "salary", Name: "Salary"},
		{ID: "allowance", Name: "Allowance"},
	},
	KindExpense: {
		{ID: "food", Name: "Food"},
		{ID: "rent", Name: "Rent"},
		{ID: "transport", Name: "Transport"},
		{ID: "utilities", Name: "Utilities"},
		{ID: "others", Name: "Others"},
	},
}

// CategoriesFor returns the categories available for a kind. Goal
// contributions pick a goal instead and get nil.
func CategoriesFor(k Kind) []Category {
	cats := categoryCatalog[k]
	out := make([]Category, len(cats))
	copy(out, cats)
	return out
}

// LookupCategory finds a category of the given kind by id.
func LookupCategory(k Kind, id string) (Category, bool) {
	for _, c := range categoryCatalog[k] {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
