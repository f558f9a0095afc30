package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api_pos/internal/apperr"
)

func TestParseChannel(t *testing.T) {
	for _, name := range []string{"Productos", "productos", "PRODUCTOS"} {
		ch, ok := ParseChannel(name)
		assert.True(t, ok, name)
		assert.Equal(t, ChannelProducts, ch)
	}

	_, ok := ParseChannel("Inventario")
	assert.False(t, ok)
}

func TestCommandTable(t *testing.T) {
	cases := []struct {
		method  string
		channel Channel
		arity   int
	}{
		{"login", ChannelLogin, 2},
		{"getProduct", ChannelProducts, 0},
		{"SumGanancia", ChannelProducts, 0},
		{"addProduct", ChannelProducts, 1},
		{"editProduct", ChannelProducts, 1},
		{"deleteProduct", ChannelProducts, 1},
		{"ProductoExists", ChannelProducts, 1},
		{"SearchIdNombre", ChannelProducts, 1},
		{"getProdID", ChannelProducts, 1},
		{"searchProducts", ChannelProducts, 2},
		{"ValStock", ChannelProducts, 2},
		{"listVentas", ChannelSales, 0},
		{"regVenta", ChannelSales, 2},
		{"getVentaPorDay", ChannelSales, 1},
		{"deleteVenta", ChannelSales, 1},
		{"calcMontos", ChannelSales, 2},
		{"calcMontVentCom", ChannelSales, 1},
		{"calcTotVent", ChannelSales, 1},
		{"genBoletaVenta", ChannelSales, 1},
		{"listCompras", ChannelPurchases, 0},
		{"RegCompra", ChannelPurchases, 2},
		{"deleteCompra", ChannelPurchases, 1},
		{"deleteDetalleCompra", ChannelPurchases, 1},
		{"editDetalleCompra", ChannelPurchases, 1},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			cmd := lookup(tc.method)
			require.NotEqual(t, CmdUnknown, cmd)
			assert.Equal(t, tc.channel, cmd.Channel())
			assert.Equal(t, tc.arity, cmd.Arity())
		})
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	_, err := Decode(ChannelProducts, "noExiste", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	// Known command on the wrong channel.
	_, err = Decode(ChannelSales, "getProduct", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)

	// Names are case sensitive.
	_, err = Decode(ChannelProducts, "GETPRODUCT", nil)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDecode_ArityMismatch(t *testing.T) {
	for _, args := range [][]any{nil, {"12345678"}, {"a", "b", "c"}} {
		_, err := Decode(ChannelLogin, "login", args)
		require.Error(t, err)
		assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
	}

	_, err := Decode(ChannelProducts, "getProduct", []any{1.0})
	assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
}

func TestDecode_Requests(t *testing.T) {
	req, err := Decode(ChannelLogin, "login", []any{12345678.0, "secreto"})
	require.NoError(t, err)
	assert.Equal(t, LoginRequest{DNI: "12345678", Password: "secreto"}, req)

	req, err = Decode(ChannelProducts, "deleteProduct", []any{7.0})
	require.NoError(t, err)
	assert.Equal(t, DeleteProductRequest{ID: 7}, req)

	req, err = Decode(ChannelProducts, "ValStock", []any{"3", 2.0})
	require.NoError(t, err)
	assert.Equal(t, CheckStockRequest{ID: 3, Quantity: 2}, req)

	req, err = Decode(ChannelSales, "getVentaPorDay", []any{"2026-10-19"})
	require.NoError(t, err)
	assert.Equal(t, SalesByDayRequest{Day: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)}, req)

	req, err = Decode(ChannelSales, "calcMontos", []any{"10.5", 2.0})
	require.NoError(t, err)
	assert.Equal(t, LineAmountsRequest{UnitPrice: 10.5, Quantity: 2}, req)

	req, err = Decode(ChannelPurchases, "editDetalleCompra", []any{map[string]any{
		"id": 4.0, "unidades": "6", "precioUnitario": 9.5,
	}})
	require.NoError(t, err)
	assert.Equal(t, EditPurchaseLineRequest{ID: 4, Units: 6, UnitPrice: 9.5}, req)
	assert.Equal(t, CmdEditPurchaseLine, req.Command())
}

func TestDecode_BadScalars(t *testing.T) {
	cases := []struct {
		name    string
		channel Channel
		method  string
		args    []any
	}{
		{"fractional id", ChannelProducts, "deleteProduct", []any{2.5}},
		{"text id", ChannelProducts, "getProdID", []any{"abc"}},
		{"null id", ChannelProducts, "ProductoExists", []any{nil}},
		{"map as text", ChannelProducts, "SearchIdNombre", []any{map[string]any{}}},
		{"bad date", ChannelSales, "getVentaPorDay", []any{"19/10/2026"}},
		{"number as date", ChannelSales, "getVentaPorDay", []any{20261019.0}},
		{"bool price", ChannelSales, "calcMontos", []any{true, 1.0}},
		{"empty price", ChannelSales, "calcMontos", []any{"", 1.0}},
		{"hex id", ChannelProducts, "deleteProduct", []any{"0x10"}},
		{"id beyond int64", ChannelProducts, "deleteProduct", []any{1e19}},
		{"id below int64", ChannelProducts, "getProdID", []any{-1e19}},
		{"exactly 2^63", ChannelProducts, "getProdID", []any{9223372036854775808.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.channel, tc.method, tc.args)
			require.Error(t, err)
			assert.Equal(t, apperr.KindTranslation, apperr.KindOf(err))
		})
	}
}
