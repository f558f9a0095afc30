package sales

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"api_pos/internal/apperr"
	"api_pos/internal/database/dbtest"
	"api_pos/internal/events"
	"api_pos/internal/products"
)

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) { c.calls++ }

type fixture struct {
	db       *sql.DB
	svc      *Service
	products *products.SQLStorage
	events   *events.Recorder
	inv      *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		db:       db,
		products: products.NewSQLStorage(db),
		events:   &events.Recorder{},
		inv:      &countingInvalidator{},
	}
	f.svc = NewService(NewSQLStorage(db), f.inv, f.events, DefaultTaxRate, zaptest.NewLogger(t))
	f.svc.now = func() time.Time { return time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC) }
	return f
}

func (f *fixture) addProduct(t *testing.T, name string, qty int) int64 {
	t.Helper()
	p := &products.Product{
		Name:          name,
		IntakeDate:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		PurchasePrice: 5,
		SalePrice:     10,
		Quantity:      qty,
		CategoryName:  "Alfombras",
	}
	require.NoError(t, f.products.Save(context.Background(), p))
	return p.ID
}

func (f *fixture) stock(t *testing.T, id int64) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

func TestNewService(t *testing.T) {
	svc := NewService(NewSQLStorage(dbtest.New(t)), nil, nil, DefaultTaxRate, nil)

	require.NotNil(t, svc)
	assert.NotNil(t, svc.logger)
	assert.NotNil(t, svc.publisher)
	assert.Equal(t, DefaultTaxRate, svc.TaxRate())
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra persa", 10)

	dni := "12345678"
	sale, err := f.svc.Register(ctx, &Sale{
		CustomerDNI: &dni,
		Lines:       []Line{{ProductID: id, Quantity: 2, UnitPrice: 10.0}},
	})
	require.NoError(t, err)

	assert.NotZero(t, sale.ID)
	assert.Equal(t, 23.6, sale.Total)
	require.NotNil(t, sale.ReceiptNumber)
	assert.Equal(t, ReceiptNumber(sale.ID), *sale.ReceiptNumber)
	assert.Equal(t, 8, f.stock(t, id))
	assert.Equal(t, 1, dbtest.Count(t, f.db, "detalle_venta"))

	got, err := f.svc.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Venta #1", *got.ReceiptNumber)
	assert.True(t, f.svc.now().Equal(got.Date))
	assert.Equal(t, dni, *got.CustomerDNI)
	assert.Nil(t, got.SellerID)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "Alfombra persa", got.Lines[0].ProductName)

	assert.Equal(t, 1, f.inv.calls)
	recorded := f.events.Events()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.SaleRecorded, recorded[0].Type)
	assert.Equal(t, sale.ID, recorded[0].ID)
}

func TestService_RegisterIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.addProduct(t, "Alfombra", 10)
	second := f.addProduct(t, "Tapete", 1)

	_, err := f.svc.Register(ctx, &Sale{Lines: []Line{
		{ProductID: first, Quantity: 3, UnitPrice: 10},
		{ProductID: second, Quantity: 2, UnitPrice: 10},
	}})

	assert.ErrorIs(t, err, products.ErrInsufficientStock)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "venta"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "detalle_venta"))
	assert.Equal(t, 10, f.stock(t, first))
	assert.Empty(t, f.events.Events())

	_, err = f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: 404, Quantity: 1, UnitPrice: 1}}})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "venta"))
}

func TestService_RegisterPersistsEveryLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var lines []Line
	for i := 0; i < 5; i++ {
		lines = append(lines, Line{ProductID: f.addProduct(t, "Producto", 10), Quantity: i + 1, UnitPrice: 2.5})
	}

	sale, err := f.svc.Register(ctx, &Sale{Lines: lines})
	require.NoError(t, err)

	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM detalle_venta WHERE idventa = ?`, sale.ID).Scan(&n))
	assert.Equal(t, len(lines), n)
}

func TestService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		lines []Line
		want  error
	}{
		{"no lines", nil, ErrNoLines},
		{"zero quantity", []Line{{ProductID: 1, Quantity: 0, UnitPrice: 1}}, ErrInvalidQuantity},
		{"negative price", []Line{{ProductID: 1, Quantity: 1, UnitPrice: -1}}, ErrInvalidPrice},
		{"no product", []Line{{Quantity: 1, UnitPrice: 1}}, ErrInvalidProduct},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, &Sale{Lines: tc.lines})
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestService_ListKeepsLinesOfDeletedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra", 5)

	_, err := f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: id, Quantity: 1, UnitPrice: 10}}})
	require.NoError(t, err)
	require.NoError(t, f.products.Delete(ctx, id))

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Lines, 1)
	assert.Equal(t, DeletedProductName, list[0].Lines[0].ProductName)
	assert.Nil(t, list[0].Lines[0].ImagePath)
}

func TestService_ListByDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra", 10)

	for _, at := range []time.Time{
		time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC),
	} {
		f.svc.now = func() time.Time { return at }
		_, err := f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: id, Quantity: 1, UnitPrice: 10}}})
		require.NoError(t, err)
	}

	got, err := f.svc.ListByDay(ctx, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Len(t, got[0].Lines, 1)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestService_DeleteRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra", 10)

	sale, err := f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: id, Quantity: 4, UnitPrice: 10}}})
	require.NoError(t, err)
	require.Equal(t, 6, f.stock(t, id))

	require.NoError(t, f.svc.Delete(ctx, sale.ID))
	assert.Equal(t, 10, f.stock(t, id))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "venta"))
	assert.Equal(t, 0, dbtest.Count(t, f.db, "detalle_venta"))

	err = f.svc.Delete(ctx, sale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	recorded := f.events.Events()
	require.Len(t, recorded, 2)
	assert.Equal(t, events.SaleDeleted, recorded[1].Type)
}

func TestService_Receipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra persa", 10)

	sale, err := f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: id, Quantity: 2, UnitPrice: 10}}})
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Venta #1", receipt.Number)
	assert.Equal(t, 23.6, receipt.Total)
	assert.True(t, bytes.HasPrefix(receipt.PDF, []byte("%PDF")))

	_, err = f.svc.Receipt(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ReceiptKeepsChargedAmountsAfterRateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addProduct(t, "Alfombra persa", 10)

	sale, err := f.svc.Register(ctx, &Sale{Lines: []Line{{ProductID: id, Quantity: 2, UnitPrice: 10}}})
	require.NoError(t, err)

	later := NewService(NewSQLStorage(f.db), f.inv, f.events, 0.10, zaptest.NewLogger(t))
	receipt, err := later.Receipt(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 23.6, receipt.Total)

	stored, err := later.Get(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, Totals{Subtotal: 20, Tax: 3.6, Total: 23.6}, RecordedTotals(stored))
}
