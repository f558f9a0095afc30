package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api_pos/internal/apperr"
	"api_pos/internal/sales"
)

func productMap() map[string]any {
	return map[string]any{
		"nombre":          "Alfombra persa",
		"precioCompra":    6.5,
		"precioVenta":     "10",
		"cantidad":        20.0,
		"categoriaNombre": "Alfombras",
	}
}

func TestDecodeProduct(t *testing.T) {
	p, err := decodeProduct(productMap(), false)
	require.NoError(t, err)

	assert.Equal(t, "Alfombra persa", p.Name)
	assert.Equal(t, 6.5, p.PurchasePrice)
	assert.Equal(t, 10.0, p.SalePrice)
	assert.Equal(t, 20, p.Quantity)
	assert.Nil(t, p.ImagePath)
	assert.Nil(t, p.PromoPrice)
	assert.True(t, p.IntakeDate.IsZero())
}

func TestDecodeProduct_OptionalFields(t *testing.T) {
	m := productMap()
	m["id"] = 3.0
	m["imagePath"] = "/img/a.png"
	m["salePrice"] = nil
	m["fechaIngreso"] = "2026-10-01"
	delete(m, "cantidad")
	m["stock"] = 4.0

	p, err := decodeProduct(m, true)
	require.NoError(t, err)

	assert.Equal(t, int64(3), p.ID)
	require.NotNil(t, p.ImagePath)
	assert.Equal(t, "/img/a.png", *p.ImagePath)
	assert.Nil(t, p.PromoPrice)
	assert.Equal(t, 4, p.Quantity)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), p.IntakeDate)
}

func TestDecodeProduct_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(m map[string]any)
		edit   bool
	}{
		{"missing name", func(m map[string]any) { delete(m, "nombre") }, false},
		{"missing id on edit", func(m map[string]any) {}, true},
		{"unknown key", func(m map[string]any) { m["color"] = "rojo" }, false},
		{"fractional quantity", func(m map[string]any) { m["cantidad"] = 2.5 }, false},
		{"text price", func(m map[string]any) { m["precioCompra"] = "barato" }, false},
		{"bad date", func(m map[string]any) { m["fechaIngreso"] = "ayer" }, false},
		{"empty price", func(m map[string]any) { m["precioVenta"] = "" }, false},
		{"bool price", func(m map[string]any) { m["precioCompra"] = true }, false},
		{"hex price", func(m map[string]any) { m["precioVenta"] = "0x1p4" }, false},
		{"bool quantity", func(m map[string]any) { m["cantidad"] = true }, false},
		{"hex quantity", func(m map[string]any) { m["cantidad"] = "0x10" }, false},
		{"empty quantity", func(m map[string]any) { m["cantidad"] = "" }, false},
		{"quantity out of range", func(m map[string]any) { m["cantidad"] = 1e10 }, false},
		{"id beyond int64", func(m map[string]any) { m["id"] = 1e19 }, true},
		{"bool name", func(m map[string]any) { m["nombre"] = false }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := productMap()
			tc.mutate(m)

			_, err := decodeProduct(m, tc.edit)
			require.Error(t, err)
			assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
		})
	}

	_, err := decodeProduct([]any{}, false)
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
}

func TestDecodeSale(t *testing.T) {
	sale, err := decodeSale(
		map[string]any{"clienteDni": 12345678.0, "descripcion": nil},
		[]any{
			map[string]any{"productoId": 1.0, "cantidad": 2.0, "precioUnitario": 10.0},
			map[string]any{"productoId": "2", "cantidad": "1", "precioUnitario": "4.5"},
		},
	)
	require.NoError(t, err)

	require.NotNil(t, sale.CustomerDNI)
	assert.Equal(t, "12345678", *sale.CustomerDNI)
	assert.Nil(t, sale.Description)
	assert.Nil(t, sale.SellerID)
	assert.Equal(t, []sales.Line{
		{ProductID: 1, Quantity: 2, UnitPrice: 10},
		{ProductID: 2, Quantity: 1, UnitPrice: 4.5},
	}, sale.Lines)
}

func TestDecodeSale_LeadingZerosAreDecimal(t *testing.T) {
	sale, err := decodeSale(map[string]any{}, []any{
		map[string]any{"productoId": "010", "cantidad": " 08 ", "precioUnitario": "010.50"},
	})
	require.NoError(t, err)

	assert.Equal(t, []sales.Line{{ProductID: 10, Quantity: 8, UnitPrice: 10.5}}, sale.Lines)

	// Same rule as a positional id.
	req, err := Decode(ChannelProducts, "deleteProduct", []any{"010"})
	require.NoError(t, err)
	assert.Equal(t, DeleteProductRequest{ID: 10}, req)
}

func TestDecodeSale_Rejects(t *testing.T) {
	_, err := decodeSale(map[string]any{}, map[string]any{})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))

	badLines := map[string]map[string]any{
		"empty price":   {"productoId": 1.0, "cantidad": 1.0, "precioUnitario": ""},
		"bool amount":   {"productoId": 1.0, "cantidad": true, "precioUnitario": 10.0},
		"octal-looking": {"productoId": "0o10", "cantidad": 1.0, "precioUnitario": 10.0},
		"hex amount":    {"productoId": 1.0, "cantidad": "0x10", "precioUnitario": 10.0},
		"huge product":  {"productoId": 1e19, "cantidad": 1.0, "precioUnitario": 10.0},
	}
	for name, line := range badLines {
		t.Run(name, func(t *testing.T) {
			_, err := decodeSale(map[string]any{}, []any{line})
			require.Error(t, err)
			assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
		})
	}

	_, err = decodeSale(map[string]any{"clienteDni": true}, []any{})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))

	_, err = decodeSale(map[string]any{}, []any{map[string]any{"cantidad": 1.0, "precioUnitario": 1.0}})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))

	_, err = decodeSale(map[string]any{}, []any{"no es un mapa"})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
}

func TestDecodeSaleLines_PreviewNeedsNoProduct(t *testing.T) {
	lines, err := decodeSaleLines([]any{map[string]any{"cantidad": 2.0, "precioUnitario": 10.0}}, false)
	require.NoError(t, err)
	assert.Equal(t, []sales.Line{{Quantity: 2, UnitPrice: 10}}, lines)
}

func TestDecodePurchase(t *testing.T) {
	p, declared, err := decodePurchase(
		map[string]any{"descripcion": "Reposición", "monto": "25"},
		[]any{map[string]any{"productoId": 1.0, "unidades": 5.0, "precioUnitario": 5.0}},
	)
	require.NoError(t, err)

	require.NotNil(t, declared)
	assert.Equal(t, 25.0, *declared)
	assert.Equal(t, "Reposición", *p.Description)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, 5, p.Lines[0].Units)

	_, declared, err = decodePurchase(map[string]any{}, []any{})
	require.NoError(t, err)
	assert.Nil(t, declared)

	_, _, err = decodePurchase(map[string]any{}, []any{map[string]any{"productoId": 1.0, "cantidad": 5.0, "precioUnitario": 5.0}})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
}
