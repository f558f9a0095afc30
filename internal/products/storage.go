package products

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"api_pos/internal/apperr"
	"api_pos/internal/database"
)

// ErrNotFound is returned when a product with the given ID is not found.
var ErrNotFound = errors.New("producto no encontrado")

// ErrInvalidCategory is returned when a product has no usable category.
var ErrInvalidCategory = errors.New("categoría inválida")

// ErrInsufficientStock is returned when a stock adjustment would leave a
// product with negative quantity.
var ErrInsufficientStock = errors.New("stock insuficiente")

// Storage is the persistence gateway for products.
type Storage interface {
	// Save ensures the product's category exists and inserts the product,
	// setting p.ID. Both happen in one transaction.
	Save(ctx context.Context, p *Product) error
	// Update overwrites every column of p.ID. A zero IntakeDate keeps the
	// stored date.
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	FindByCategory(ctx context.Context, category string) ([]*Product, error)
	FindByName(ctx context.Context, name string) ([]*Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// TotalProfit is Σ (line unit price − product purchase price) × line
	// quantity over every recorded sale line.
	TotalProfit(ctx context.Context) (float64, error)
}

const productColumns = `idproducto, nombre, fecha_ingreso, precio_compra, precio_venta,
	cantidad, categoria_nombre, image_path, precio_oferta`

// SQLStorage implements Storage on the injected database handle.
type SQLStorage struct {
	db *sql.DB
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Save(ctx context.Context, p *Product) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := ensureCategory(ctx, tx, p.CategoryName); err != nil {
			return err
		}

		const q = `INSERT INTO producto
			(nombre, fecha_ingreso, precio_compra, precio_venta, cantidad, categoria_nombre, image_path, precio_oferta)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		res, err := tx.ExecContext(ctx, q,
			p.Name,
			database.Day(p.IntakeDate),
			p.PurchasePrice,
			p.SalePrice,
			p.Quantity,
			p.CategoryName,
			database.NullString(p.ImagePath),
			promoParam(p.PromoPrice),
		)
		if err != nil {
			return apperr.Persistence("insertar producto", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Persistence("leer id de producto", err)
		}
		p.ID = id
		return nil
	})
}

func (s *SQLStorage) Update(ctx context.Context, p *Product) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := ensureCategory(ctx, tx, p.CategoryName); err != nil {
			return err
		}

		var intake any
		if !p.IntakeDate.IsZero() {
			intake = database.Day(p.IntakeDate)
		}

		const q = `UPDATE producto SET
			nombre = ?, fecha_ingreso = COALESCE(?, fecha_ingreso), precio_compra = ?, precio_venta = ?,
			cantidad = ?, categoria_nombre = ?, image_path = ?, precio_oferta = ?
			WHERE idproducto = ?`
		res, err := tx.ExecContext(ctx, q,
			p.Name,
			intake,
			p.PurchasePrice,
			p.SalePrice,
			p.Quantity,
			p.CategoryName,
			database.NullString(p.ImagePath),
			promoParam(p.PromoPrice),
			p.ID,
		)
		if err != nil {
			return apperr.Persistence("actualizar producto", err)
		}
		return expectOneRow(res, "actualizar producto")
	})
}

func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM producto WHERE idproducto = ?`, id)
	if err != nil {
		return apperr.Persistence("eliminar producto", err)
	}
	return expectOneRow(res, "eliminar producto")
}

func (s *SQLStorage) FindByID(ctx context.Context, id int64) (*Product, error) {
	return FindByID(ctx, s.db, id)
}

// FindByID reads one product through q, which may be a transaction.
func FindByID(ctx context.Context, q database.Querier, id int64) (*Product, error) {
	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM producto WHERE idproducto = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Persistence("buscar producto", err)
	}
	return p, nil
}

func (s *SQLStorage) FindAll(ctx context.Context) ([]*Product, error) {
	return s.query(ctx, "listar productos", `SELECT `+productColumns+` FROM producto ORDER BY idproducto`)
}

func (s *SQLStorage) FindByCategory(ctx context.Context, category string) ([]*Product, error) {
	return s.query(ctx, "buscar por categoría",
		`SELECT `+productColumns+` FROM producto WHERE categoria_nombre = ? ORDER BY idproducto`, category)
}

func (s *SQLStorage) FindByName(ctx context.Context, name string) ([]*Product, error) {
	return s.query(ctx, "buscar por nombre",
		`SELECT `+productColumns+` FROM producto WHERE nombre LIKE ? ESCAPE '!' ORDER BY idproducto`,
		"%"+escapeLike(name)+"%")
}

func (s *SQLStorage) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM producto WHERE idproducto = ?`, id).Scan(&n)
	if err != nil {
		return false, apperr.Persistence("verificar producto", err)
	}
	return n > 0, nil
}

func (s *SQLStorage) TotalProfit(ctx context.Context) (float64, error) {
	const q = `SELECT COALESCE(SUM((d.precio_unitario - p.precio_compra) * d.cantidad), 0)
		FROM detalle_venta d
		JOIN producto p ON d.idproducto = p.idproducto`

	var total float64
	if err := s.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, apperr.Persistence("calcular ganancia", err)
	}
	return total, nil
}

func (s *SQLStorage) query(ctx context.Context, op, q string, args ...any) ([]*Product, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	defer rows.Close()

	list := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, apperr.Persistence(op, err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return list, nil
}

// AdjustStock adds delta (negative to take units out) to a product's
// quantity through q. The update is conditional, so two transactions racing
// for the last units cannot both succeed.
func AdjustStock(ctx context.Context, q database.Querier, id int64, delta int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE producto SET cantidad = cantidad + ? WHERE idproducto = ? AND cantidad + ? >= 0`,
		delta, id, delta)
	if err != nil {
		return apperr.Persistence("actualizar stock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("actualizar stock", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM producto WHERE idproducto = ?`, id).Scan(&exists); err != nil {
		return apperr.Persistence("actualizar stock", err)
	}
	if exists == 0 {
		return apperr.NotFound(ErrNotFound)
	}
	return apperr.Validation(ErrInsufficientStock)
}

// ensureCategory inserts the category if it does not exist yet.
func ensureCategory(ctx context.Context, tx *sql.Tx, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation(ErrInvalidCategory)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categoria WHERE nombre = ?`, name).Scan(&n); err != nil {
		return apperr.Persistence("verificar categoría", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO categoria (nombre) VALUES (?)`, name); err != nil {
		return apperr.Persistence("crear categoría", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*Product, error) {
	var (
		p      Product
		intake database.Time
		image  sql.NullString
		promo  sql.NullFloat64
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&intake,
		&p.PurchasePrice,
		&p.SalePrice,
		&p.Quantity,
		&p.CategoryName,
		&image,
		&promo,
	)
	if err != nil {
		return nil, err
	}

	p.IntakeDate = intake.Time
	p.ImagePath = database.StringPtr(image)
	if promo.Valid && promo.Float64 > 0 {
		p.PromoPrice = database.FloatPtr(promo)
	}
	return &p, nil
}

func promoParam(promo *float64) any {
	if promo == nil || *promo <= 0 {
		return nil
	}
	return *promo
}

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
