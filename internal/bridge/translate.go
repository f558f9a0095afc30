package bridge

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"

	"api_pos/internal/apperr"
	"api_pos/internal/products"
	"api_pos/internal/purchases"
	"api_pos/internal/sales"
)

// Wire shapes. Optional keys are pointers so a missing key and a null value
// both stay nil.
type (
	productInput struct {
		ID              *int64     `mapstructure:"id"`
		Nombre          *string    `mapstructure:"nombre"`
		PrecioCompra    *float64   `mapstructure:"precioCompra"`
		PrecioVenta     *float64   `mapstructure:"precioVenta"`
		Cantidad        *int       `mapstructure:"cantidad"`
		Stock           *int       `mapstructure:"stock"`
		CategoriaNombre *string    `mapstructure:"categoriaNombre"`
		ImagePath       *string    `mapstructure:"imagePath"`
		SalePrice       *float64   `mapstructure:"salePrice"`
		FechaIngreso    *time.Time `mapstructure:"fechaIngreso"`
	}

	saleHeaderInput struct {
		ClienteDni  *string `mapstructure:"clienteDni"`
		Descripcion *string `mapstructure:"descripcion"`
		VendedorID  *int64  `mapstructure:"vendedorId"`
	}

	saleLineInput struct {
		ProductoID     *int64   `mapstructure:"productoId"`
		Cantidad       *int     `mapstructure:"cantidad"`
		PrecioUnitario *float64 `mapstructure:"precioUnitario"`
	}

	purchaseHeaderInput struct {
		Descripcion *string  `mapstructure:"descripcion"`
		Monto       *float64 `mapstructure:"monto"`
	}

	purchaseLineInput struct {
		ProductoID     *int64   `mapstructure:"productoId"`
		Unidades       *int     `mapstructure:"unidades"`
		PrecioUnitario *float64 `mapstructure:"precioUnitario"`
	}

	purchaseLineEditInput struct {
		ID             *int64   `mapstructure:"id"`
		Unidades       *int     `mapstructure:"unidades"`
		PrecioUnitario *float64 `mapstructure:"precioUnitario"`
	}
)

var dateLayouts = []string{time.DateOnly, time.RFC3339Nano, time.DateTime}

// decodeMap fills out from a transport map. Unknown keys are rejected and
// scalars follow the same rules as positional arguments.
func decodeMap(what string, raw any, out any) error {
	m, ok := raw.(map[string]any)
	if !ok {
		return apperr.Translation("%s: se esperaba un objeto, llegó %s", what, describe(raw))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			scalarHook,
			dateHook,
		),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if err := dec.Decode(m); err != nil {
		return apperr.Translation("%s: %v", what, err)
	}
	return nil
}

// scalarHook converts transport scalars into numeric and text fields.
// Numbers arrive as float64 or as base-10 text; empty text, booleans and
// prefixed literals like "0x10" are rejected. Numbers become text without a
// fractional part when they have none, so a numeric DNI reads "12345678".
func scalarHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := parseInt64(data)
		if err != nil {
			return nil, err
		}
		// int fields follow the positional rule of toInt.
		if reflect.Zero(to).OverflowInt(n) || (to.Kind() == reflect.Int && (n > math.MaxInt32 || n < math.MinInt32)) {
			return nil, fmt.Errorf("%d fuera de rango", n)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		return parseFloat(data)
	case reflect.String:
		if f, ok := data.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
	}
	return data, nil
}

func dateHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	return parseDate(data.(string))
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q", s)
}

func decodeProduct(raw any, edit bool) (*products.Product, error) {
	var in productInput
	if err := decodeMap("producto", raw, &in); err != nil {
		return nil, err
	}

	qty := in.Cantidad
	if qty == nil {
		qty = in.Stock
	}
	if err := required("producto",
		field{"nombre", in.Nombre == nil},
		field{"precioCompra", in.PrecioCompra == nil},
		field{"precioVenta", in.PrecioVenta == nil},
		field{"cantidad", qty == nil},
		field{"categoriaNombre", in.CategoriaNombre == nil},
		field{"id", edit && in.ID == nil},
	); err != nil {
		return nil, err
	}

	p := &products.Product{
		Name:          *in.Nombre,
		PurchasePrice: *in.PrecioCompra,
		SalePrice:     *in.PrecioVenta,
		Quantity:      *qty,
		CategoryName:  *in.CategoriaNombre,
		ImagePath:     in.ImagePath,
		PromoPrice:    in.SalePrice,
	}
	if in.ID != nil {
		p.ID = *in.ID
	}
	if in.FechaIngreso != nil {
		p.IntakeDate = *in.FechaIngreso
	}
	return p, nil
}

func decodeSale(rawHeader, rawLines any) (*sales.Sale, error) {
	var h saleHeaderInput
	if err := decodeMap("venta", rawHeader, &h); err != nil {
		return nil, err
	}
	lines, err := decodeSaleLines(rawLines, true)
	if err != nil {
		return nil, err
	}
	return &sales.Sale{
		CustomerDNI: h.ClienteDni,
		Description: h.Descripcion,
		SellerID:    h.VendedorID,
		Lines:       lines,
	}, nil
}

// decodeSaleLines translates a cart. Amount previews do not need the product.
func decodeSaleLines(raw any, needProduct bool) ([]sales.Line, error) {
	items, err := toList(raw, "detalles")
	if err != nil {
		return nil, err
	}

	lines := make([]sales.Line, 0, len(items))
	for i, item := range items {
		what := fmt.Sprintf("detalle %d", i)
		var in saleLineInput
		if err := decodeMap(what, item, &in); err != nil {
			return nil, err
		}
		if err := required(what,
			field{"productoId", needProduct && in.ProductoID == nil},
			field{"cantidad", in.Cantidad == nil},
			field{"precioUnitario", in.PrecioUnitario == nil},
		); err != nil {
			return nil, err
		}

		l := sales.Line{Quantity: *in.Cantidad, UnitPrice: *in.PrecioUnitario}
		if in.ProductoID != nil {
			l.ProductID = *in.ProductoID
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func decodePurchase(rawHeader, rawLines any) (*purchases.Purchase, *float64, error) {
	var h purchaseHeaderInput
	if err := decodeMap("compra", rawHeader, &h); err != nil {
		return nil, nil, err
	}
	items, err := toList(rawLines, "detalles")
	if err != nil {
		return nil, nil, err
	}

	p := &purchases.Purchase{Description: h.Descripcion, Lines: make([]purchases.Line, 0, len(items))}
	for i, item := range items {
		what := fmt.Sprintf("detalle %d", i)
		var in purchaseLineInput
		if err := decodeMap(what, item, &in); err != nil {
			return nil, nil, err
		}
		if err := required(what,
			field{"productoId", in.ProductoID == nil},
			field{"unidades", in.Unidades == nil},
			field{"precioUnitario", in.PrecioUnitario == nil},
		); err != nil {
			return nil, nil, err
		}
		p.Lines = append(p.Lines, purchases.Line{
			ProductID: *in.ProductoID,
			Units:     *in.Unidades,
			UnitPrice: *in.PrecioUnitario,
		})
	}
	return p, h.Monto, nil
}

func decodePurchaseLineEdit(raw any) (Request, error) {
	var in purchaseLineEditInput
	if err := decodeMap("detalle de compra", raw, &in); err != nil {
		return nil, err
	}
	if err := required("detalle de compra",
		field{"id", in.ID == nil},
		field{"unidades", in.Unidades == nil},
		field{"precioUnitario", in.PrecioUnitario == nil},
	); err != nil {
		return nil, err
	}
	return EditPurchaseLineRequest{ID: *in.ID, Units: *in.Unidades, UnitPrice: *in.PrecioUnitario}, nil
}

type field struct {
	name    string
	missing bool
}

func required(what string, fields ...field) error {
	for _, f := range fields {
		if f.missing {
			return apperr.Translation("%s: falta el campo %q", what, f.name)
		}
	}
	return nil
}

func toList(raw any, what string) ([]any, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, apperr.Translation("%s: se esperaba una lista, llegó %s", what, describe(raw))
	}
	return list, nil
}

func toString(raw any, what string) (string, error) {
	switch raw.(type) {
	case nil, map[string]any, []any:
		return "", apperr.Translation("%s: se esperaba un texto, llegó %s", what, describe(raw))
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", apperr.Translation("%s: %v", what, err)
	}
	return s, nil
}

// Whole float64 values in [-2^63, 2^63) fit an int64.
const twoPow63 = 1 << 63

func parseInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case nil, bool, map[string]any, []any:
		return 0, fmt.Errorf("se esperaba un número, llegó %s", describe(raw))
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v no es un entero", v)
		}
		if v < -twoPow63 || v >= twoPow63 {
			return 0, fmt.Errorf("%v fuera de rango", v)
		}
		return int64(v), nil
	case string:
		// cast parses strings with base prefixes, so "010" would be octal.
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q no es un entero", v)
		}
		return n, nil
	}
	n, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%v no es un entero", raw)
	}
	return n, nil
}

func parseFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil, bool, map[string]any, []any:
		return 0, fmt.Errorf("se esperaba un número, llegó %s", describe(raw))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || strings.ContainsAny(v, "xX") {
			return 0, fmt.Errorf("%q no es un número", v)
		}
		return f, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%v no es un número", raw)
	}
	return f, nil
}

func toInt64(raw any, what string) (int64, error) {
	n, err := parseInt64(raw)
	if err != nil {
		return 0, apperr.Translation("%s: %v", what, err)
	}
	return n, nil
}

func toID(raw any, what string) (int64, error) {
	return toInt64(raw, what)
}

func toInt(raw any, what string) (int, error) {
	n, err := toInt64(raw, what)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, apperr.Translation("%s: %d fuera de rango", what, n)
	}
	return int(n), nil
}

func toFloat(raw any, what string) (float64, error) {
	f, err := parseFloat(raw)
	if err != nil {
		return 0, apperr.Translation("%s: %v", what, err)
	}
	return f, nil
}

func toDay(raw any, what string) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, apperr.Translation("%s: se esperaba una fecha, llegó %s", what, describe(raw))
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, apperr.Translation("%s: %v", what, err)
	}
	return t, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "un objeto"
	case []any:
		return "una lista"
	case string:
		return "un texto"
	case bool:
		return "un booleano"
	default:
		return "un número"
	}
}
