package bridge

import (
	"encoding/base64"
	"time"

	"api_pos/internal/products"
	"api_pos/internal/purchases"
	"api_pos/internal/sales"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Layouts of dates sent to the UI.
const (
	dayLayout      = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Every field of every view is always present; absent optionals are null.

type StatusView struct {
	Status string `json:"status"`
}

type ErrorView struct {
	Status  string `json:"status"`
	Mensaje string `json:"mensaje"`
}

type LoginView struct {
	Status  string `json:"status"`
	Mensaje string `json:"mensaje"`
	Usuario string `json:"usuario"`
	Rol     string `json:"rol"`
}

type CreatedView struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

type ProductView struct {
	ID              int64    `json:"id"`
	Nombre          string   `json:"nombre"`
	PrecioCompra    float64  `json:"precioCompra"`
	PrecioVenta     float64  `json:"precioVenta"`
	Cantidad        int      `json:"cantidad"`
	Stock           int      `json:"stock"`
	CategoriaNombre string   `json:"categoriaNombre"`
	ImagePath       *string  `json:"imagePath"`
	SalePrice       *float64 `json:"salePrice"`
	FechaIngreso    *string  `json:"fechaIngreso"`
}

type StockView struct {
	Status     string `json:"status"`
	Disponible bool   `json:"disponible"`
	Stock      int    `json:"stock"`
}

type SaleLineView struct {
	ProductoID int64   `json:"productoId"`
	Nombre     string  `json:"nombre"`
	Cantidad   int     `json:"cantidad"`
	Precio     float64 `json:"precio"`
	ImagePath  *string `json:"imagePath"`
}

type SaleView struct {
	ID           int64          `json:"id"`
	NumeroBoleta *string        `json:"numeroBoleta"`
	Monto        float64        `json:"monto"`
	Fecha        *string        `json:"fecha"`
	ClienteDni   *string        `json:"clienteDni"`
	Descripcion  *string        `json:"descripcion"`
	VendedorID   *int64         `json:"vendedorId"`
	Detalles     []SaleLineView `json:"detalles"`
}

type SalesView struct {
	Status string     `json:"status"`
	Ventas []SaleView `json:"ventas"`
}

type AmountsView struct {
	Subtotal float64 `json:"subtotal"`
	IGV      float64 `json:"igv"`
	Total    float64 `json:"total"`
}

type ReceiptView struct {
	Status       string  `json:"status"`
	NumeroBoleta string  `json:"numeroBoleta"`
	Total        float64 `json:"total"`
	// PDF is the base64 encoded document.
	PDF string `json:"pdf"`
}

type PurchaseView struct {
	ID          int64   `json:"id"`
	Descripcion *string `json:"descripcion"`
	Monto       float64 `json:"monto"`
	ImagePath   *string `json:"imagePath"`
}

func productView(p *products.Product) ProductView {
	return ProductView{
		ID:              p.ID,
		Nombre:          p.Name,
		PrecioCompra:    p.PurchasePrice,
		PrecioVenta:     p.SalePrice,
		Cantidad:        p.Quantity,
		Stock:           p.Quantity,
		CategoriaNombre: p.CategoryName,
		ImagePath:       p.ImagePath,
		SalePrice:       p.PromoPrice,
		FechaIngreso:    formatTime(p.IntakeDate, dayLayout),
	}
}

// formatTime renders t with layout, or nil when t is unset.
func formatTime(t time.Time, layout string) *string {
	if t.IsZero() {
		return nil
	}
	v := t.Format(layout)
	return &v
}

func productViews(list []*products.Product) []ProductView {
	views := make([]ProductView, 0, len(list))
	for _, p := range list {
		views = append(views, productView(p))
	}
	return views
}

func saleView(s *sales.Sale) SaleView {
	lines := make([]SaleLineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, SaleLineView{
			ProductoID: l.ProductID,
			Nombre:     l.ProductName,
			Cantidad:   l.Quantity,
			Precio:     l.UnitPrice,
			ImagePath:  l.ImagePath,
		})
	}
	return SaleView{
		ID:           s.ID,
		NumeroBoleta: s.ReceiptNumber,
		Monto:        s.Total,
		Fecha:        formatTime(s.Date, dateTimeLayout),
		ClienteDni:   s.CustomerDNI,
		Descripcion:  s.Description,
		VendedorID:   s.SellerID,
		Detalles:     lines,
	}
}

func salesView(list []*sales.Sale) SalesView {
	views := make([]SaleView, 0, len(list))
	for _, s := range list {
		views = append(views, saleView(s))
	}
	return SalesView{Status: StatusOK, Ventas: views}
}

func amountsView(t sales.Totals) AmountsView {
	return AmountsView{Subtotal: t.Subtotal, IGV: t.Tax, Total: t.Total}
}

func receiptView(r *sales.Receipt) ReceiptView {
	return ReceiptView{
		Status:       StatusOK,
		NumeroBoleta: r.Number,
		Total:        r.Total,
		PDF:          base64.StdEncoding.EncodeToString(r.PDF),
	}
}

func purchaseViews(list []*purchases.Purchase) []PurchaseView {
	views := make([]PurchaseView, 0, len(list))
	for _, p := range list {
		views = append(views, PurchaseView{
			ID:          p.ID,
			Descripcion: p.Description,
			Monto:       p.Total,
			ImagePath:   p.ImagePath(),
		})
	}
	return views
}
