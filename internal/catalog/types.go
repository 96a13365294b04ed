package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/shopstudy/shopstudy-backend/pkg/enums"
)

// Product is the demo catalog's product shape. Cart items embed a copy of it
// taken at add time, so history survives later catalog edits.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
}

// Rating is the aggregate customer rating attached to a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// ListParams narrows a product listing. Limit and Category are passed to the
// API; Sort is applied client side because the demo API only sorts by id.
type ListParams struct {
	Limit    int
	Sort     enums.SortOption
	Category string
}

// SortProducts orders products in place according to the sort option.
// The original catalog order is left untouched.
func SortProducts(products []Product, option enums.SortOption) {
	switch option {
	case enums.SortOptionPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case enums.SortOptionPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case enums.SortOptionRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating.Rate > products[j].Rating.Rate
		})
	}
}
