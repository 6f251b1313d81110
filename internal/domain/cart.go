package domain

// CartItem is a view-model holder for a single storefront cart line. It
// carries no behavior beyond the subtotal accessor; cart logic lives in the
// storefront frontend.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal returns the line total for the item.
func (c *CartItem) Subtotal() float64 {
	return c.UnitPrice * float64(c.Quantity)
}
