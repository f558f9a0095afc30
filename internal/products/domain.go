package products

import "time"

// Product is an item of the store's inventory.
type Product struct {
	ID            int64
	Name          string
	IntakeDate    time.Time
	PurchasePrice float64
	SalePrice     float64
	Quantity      int
	CategoryName  string
	ImagePath     *string
	// PromoPrice is nil when the product has no promotion. A stored value is
	// always positive.
	PromoPrice *float64
}

// StockCheck is the answer to "can I sell n units of this product".
type StockCheck struct {
	Available bool
	Stock     int
}

// Search types accepted by Service.Search.
const (
	SearchByName     = "nombre"
	SearchByCategory = "categoria"
)
