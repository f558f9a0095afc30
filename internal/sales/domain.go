package sales

import "time"

// DeletedProductName replaces the name of a sold product that no longer
// exists in the inventory.
const DeletedProductName = "Producto Eliminado"

// Sale is a sale header with its lines.
type Sale struct {
	ID int64
	// ReceiptNumber is assigned when the sale is stored ("Venta #<id>").
	ReceiptNumber *string
	// Total includes tax.
	Total       float64
	Date        time.Time
	CustomerDNI *string
	Description *string
	SellerID    *int64
	Lines       []Line
}

// Line is one product sold in a sale. ProductName and ImagePath are only
// filled on reads.
type Line struct {
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   float64
	ImagePath   *string
}

// Totals are the amounts of a sale or of a single line.
type Totals struct {
	Subtotal float64
	Tax      float64
	Total    float64
}

// Receipt is a rendered sale receipt.
type Receipt struct {
	SaleID int64
	Number string
	Total  float64
	PDF    []byte
}
