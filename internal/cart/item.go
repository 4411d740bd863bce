// Package cart implements the shopping cart aggregate: a persisted, ordered
// list of line items with merge-by-product semantics and change
// notifications for any view that renders cart state.
package cart

import (
	"time"

	"github.com/sleepoutside/storefront/internal/catalog"
)

// LineItem is one row in the cart. Product display fields are a snapshot
// captured when the product was added; the cart never re-fetches them.
// ProductID and AddedAt are set once and never change.
type LineItem struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Brand     string    `json:"brand,omitempty"`
	UnitPrice float64   `json:"unitPrice"`
	ListPrice float64   `json:"listPrice,omitempty"`
	Image     string    `json:"imageUrl,omitempty"`
	Color     string    `json:"color,omitempty"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}

// newLineItem captures the add-time snapshot of a catalog product.
func newLineItem(p catalog.Product, quantity int, addedAt time.Time) LineItem {
	item := LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Brand:     p.Brand,
		ListPrice: p.ListPrice,
		Image:     p.Image,
		Color:     p.Color,
		Quantity:  quantity,
		AddedAt:   addedAt,
	}
	if p.FinalPrice != nil {
		item.UnitPrice = *p.FinalPrice
	}
	return item
}

// validProduct reports whether a product carries the minimum the cart needs:
// an identity, a display name and a defined price. A price of zero is valid;
// an absent price is not.
func validProduct(p catalog.Product) bool {
	return p.ID != "" && p.Name != "" && p.FinalPrice != nil
}
