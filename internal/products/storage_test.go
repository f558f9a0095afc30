package products

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"api_pos/internal/apperr"
	"api_pos/internal/database/dbtest"
)

func ptr[T any](v T) *T { return &v }

func newProduct(name, category string) *Product {
	return &Product{
		Name:          name,
		IntakeDate:    time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		PurchasePrice: 6.5,
		SalePrice:     10,
		Quantity:      20,
		CategoryName:  category,
	}
}

func TestSQLStorage_SaveEnsuresCategoryOnce(t *testing.T) {
	db := dbtest.New(t)
	st := NewSQLStorage(db)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newProduct("Alfombra persa", "Alfombras")))
	assert.Equal(t, 1, dbtest.Count(t, db, "categoria"))
	assert.Equal(t, 1, dbtest.Count(t, db, "producto"))

	require.NoError(t, st.Save(ctx, newProduct("Alfombra turca", "Alfombras")))
	assert.Equal(t, 1, dbtest.Count(t, db, "categoria"))
	assert.Equal(t, 2, dbtest.Count(t, db, "producto"))
}

func TestSQLStorage_SaveWithoutCategoryInsertsNothing(t *testing.T) {
	db := dbtest.New(t)
	st := NewSQLStorage(db)

	err := st.Save(context.Background(), newProduct("Tapete", "  "))

	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.Equal(t, 0, dbtest.Count(t, db, "producto"))
}

func TestSQLStorage_RoundTrip(t *testing.T) {
	st := NewSQLStorage(dbtest.New(t))
	ctx := context.Background()

	without := newProduct("Alfombra persa", "Alfombras")
	require.NoError(t, st.Save(ctx, without))
	got, err := st.FindByID(ctx, without.ID)
	require.NoError(t, err)
	assert.Equal(t, without, got)
	assert.Nil(t, got.PromoPrice)
	assert.Nil(t, got.ImagePath)

	with := newProduct("Tapete", "Tapetes")
	with.PromoPrice = ptr(8.25)
	with.ImagePath = ptr("/img/tapete.png")
	require.NoError(t, st.Save(ctx, with))
	got, err = st.FindByID(ctx, with.ID)
	require.NoError(t, err)
	assert.Equal(t, with, got)
}

func TestSQLStorage_NonPositivePromoIsAbsent(t *testing.T) {
	st := NewSQLStorage(dbtest.New(t))
	ctx := context.Background()

	p := newProduct("Alfombra", "Alfombras")
	p.PromoPrice = ptr(0.0)
	require.NoError(t, st.Save(ctx, p))

	got, err := st.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PromoPrice)
}

func TestSQLStorage_UpdateKeepsIntakeDateWhenZero(t *testing.T) {
	st := NewSQLStorage(dbtest.New(t))
	ctx := context.Background()

	p := newProduct("Alfombra", "Alfombras")
	require.NoError(t, st.Save(ctx, p))

	edit := *p
	edit.IntakeDate = time.Time{}
	edit.Quantity = 3
	edit.CategoryName = "Oferta"
	require.NoError(t, st.Update(ctx, &edit))

	got, err := st.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.IntakeDate, got.IntakeDate)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, "Oferta", got.CategoryName)
}

func TestSQLStorage_UpdateAndDeleteMissing(t *testing.T) {
	st := NewSQLStorage(dbtest.New(t))
	ctx := context.Background()

	p := newProduct("Fantasma", "Alfombras")
	p.ID = 99
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(st.Update(ctx, p)))
	assert.ErrorIs(t, st.Delete(ctx, 99), ErrNotFound)

	_, err := st.FindByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStorage_Finders(t *testing.T) {
	st := NewSQLStorage(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, newProduct("Alfombra persa", "Alfombras")))
	require.NoError(t, st.Save(ctx, newProduct("Alfombra 100%", "Alfombras")))
	require.NoError(t, st.Save(ctx, newProduct("Cojín", "Textiles")))

	all, err := st.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byCat, err := st.FindByCategory(ctx, "Textiles")
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, "Cojín", byCat[0].Name)

	byName, err := st.FindByName(ctx, "alfombra")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	literal, err := st.FindByName(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Alfombra 100%", literal[0].Name)

	ok, err := st.Exists(ctx, all[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Exists(ctx, 1000)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStorage_TotalProfit(t *testing.T) {
	db := dbtest.New(t)
	st := NewSQLStorage(db)
	ctx := context.Background()

	total, err := st.TotalProfit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	p := newProduct("Alfombra", "Alfombras") // purchase price 6.5
	require.NoError(t, st.Save(ctx, p))

	_, err = db.Exec(`INSERT INTO venta (fecha, monto) VALUES (?, ?)`, time.Now().UTC(), 0)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO detalle_venta (idventa, idproducto, cantidad, precio_unitario) VALUES (1, ?, 2, 10), (1, ?, 1, 8.5)`, p.ID, p.ID)
	require.NoError(t, err)

	total, err = st.TotalProfit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, (10-6.5)*2+(8.5-6.5)*1, total, 1e-9)
}

func TestAdjustStock(t *testing.T) {
	db := dbtest.New(t)
	st := NewSQLStorage(db)
	ctx := context.Background()

	p := newProduct("Alfombra", "Alfombras") // 20 units
	require.NoError(t, st.Save(ctx, p))

	require.NoError(t, AdjustStock(ctx, db, p.ID, -5))
	require.NoError(t, AdjustStock(ctx, db, p.ID, 2))

	err := AdjustStock(ctx, db, p.ID, -18)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	err = AdjustStock(ctx, db, 404, 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	got, err := st.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 17, got.Quantity)
}
