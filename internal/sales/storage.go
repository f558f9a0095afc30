package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"api_pos/internal/apperr"
	"api_pos/internal/database"
	"api_pos/internal/products"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("venta no encontrada")

// Storage is the persistence gateway for sales.
type Storage interface {
	// Save stores the header, its lines and the stock decrement of every
	// line in one transaction, then sets sale.ID and sale.ReceiptNumber.
	Save(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id int64) (*Sale, error)
	FindAll(ctx context.Context) ([]*Sale, error)
	// FindByDay returns the sales whose date falls on day (UTC).
	FindByDay(ctx context.Context, day time.Time) ([]*Sale, error)
	// Delete removes a sale and its lines and puts the sold units back in
	// stock, in one transaction.
	Delete(ctx context.Context, id int64) error
}

// SQLStorage implements Storage on the injected database handle.
type SQLStorage struct {
	db *sql.DB
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

// ReceiptNumber formats the receipt number of sale id.
func ReceiptNumber(id int64) string {
	return fmt.Sprintf("Venta #%d", id)
}

func (s *SQLStorage) Save(ctx context.Context, sale *Sale) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO venta (cliente_dni, descripcion, fecha, vendedor_id, monto) VALUES (?, ?, ?, ?, ?)`,
			database.NullString(sale.CustomerDNI),
			database.NullString(sale.Description),
			sale.Date.UTC(),
			database.NullInt(sale.SellerID),
			sale.Total,
		)
		if err != nil {
			return apperr.Persistence("insertar venta", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Persistence("leer id de venta", err)
		}

		for _, l := range sale.Lines {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO detalle_venta (idventa, idproducto, cantidad, precio_unitario) VALUES (?, ?, ?, ?)`,
				id, l.ProductID, l.Quantity, l.UnitPrice)
			if err != nil {
				return apperr.Persistence("insertar detalle de venta", err)
			}
			if err := products.AdjustStock(ctx, tx, l.ProductID, -l.Quantity); err != nil {
				return fmt.Errorf("producto %d: %w", l.ProductID, err)
			}
		}

		number := ReceiptNumber(id)
		if _, err := tx.ExecContext(ctx, `UPDATE venta SET numero_boleta = ? WHERE idventa = ?`, number, id); err != nil {
			return apperr.Persistence("asignar número de boleta", err)
		}

		sale.ID = id
		sale.ReceiptNumber = &number
		return nil
	})
}

func (s *SQLStorage) FindByID(ctx context.Context, id int64) (*Sale, error) {
	list, err := s.find(ctx, "buscar venta", `v.idventa = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound(ErrNotFound)
	}
	return list[0], nil
}

func (s *SQLStorage) FindAll(ctx context.Context) ([]*Sale, error) {
	return s.find(ctx, "listar ventas", `1 = 1`)
}

func (s *SQLStorage) FindByDay(ctx context.Context, day time.Time) ([]*Sale, error) {
	from := database.Day(day)
	return s.find(ctx, "listar ventas del día", `v.fecha >= ? AND v.fecha < ?`, from, from.AddDate(0, 0, 1))
}

func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		lines, err := readLineQuantities(ctx, tx, id)
		if err != nil {
			return err
		}

		for _, l := range lines {
			err := products.AdjustStock(ctx, tx, l.ProductID, l.Quantity)
			// Units of a product deleted since the sale have nowhere to go.
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM detalle_venta WHERE idventa = ?`, id); err != nil {
			return apperr.Persistence("eliminar detalle de venta", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM venta WHERE idventa = ?`, id)
		if err != nil {
			return apperr.Persistence("eliminar venta", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return apperr.Persistence("eliminar venta", err)
		}
		if n == 0 {
			return apperr.NotFound(ErrNotFound)
		}
		return nil
	})
}

func readLineQuantities(ctx context.Context, tx *sql.Tx, saleID int64) ([]Line, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT idproducto, cantidad FROM detalle_venta WHERE idventa = ? ORDER BY iddetalle_venta`, saleID)
	if err != nil {
		return nil, apperr.Persistence("leer detalle de venta", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
			return nil, apperr.Persistence("leer detalle de venta", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("leer detalle de venta", err)
	}
	return lines, nil
}

// find loads the headers matching where (on alias v) and then all of their
// lines with a second query. Lines are read with a LEFT JOIN so a deleted
// product shows up as DeletedProductName.
func (s *SQLStorage) find(ctx context.Context, op, where string, args ...any) ([]*Sale, error) {
	sales, err := s.headers(ctx, op, where, args...)
	if err != nil || len(sales) == 0 {
		return sales, err
	}

	byID := make(map[int64]*Sale, len(sales))
	for _, sale := range sales {
		byID[sale.ID] = sale
	}

	q := `SELECT d.idventa, d.idproducto, d.cantidad, d.precio_unitario, p.nombre, p.image_path
		FROM detalle_venta d
		JOIN venta v ON v.idventa = d.idventa
		LEFT JOIN producto p ON p.idproducto = d.idproducto
		WHERE ` + where + `
		ORDER BY d.iddetalle_venta`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID int64
			l      Line
			name   sql.NullString
			image  sql.NullString
		)
		if err := rows.Scan(&saleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &name, &image); err != nil {
			return nil, apperr.Persistence(op, err)
		}
		l.ProductName = DeletedProductName
		if name.Valid {
			l.ProductName = name.String
		}
		l.ImagePath = database.StringPtr(image)

		if sale, ok := byID[saleID]; ok {
			sale.Lines = append(sale.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return sales, nil
}

func (s *SQLStorage) headers(ctx context.Context, op, where string, args ...any) ([]*Sale, error) {
	q := `SELECT v.idventa, v.numero_boleta, v.monto, v.fecha, v.cliente_dni, v.descripcion, v.vendedor_id
		FROM venta v
		WHERE ` + where + `
		ORDER BY v.fecha, v.idventa`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	defer rows.Close()

	sales := make([]*Sale, 0)
	for rows.Next() {
		var (
			sale      Sale
			number    sql.NullString
			date      database.Time
			dni, desc sql.NullString
			sellerID  sql.NullInt64
		)
		if err := rows.Scan(&sale.ID, &number, &sale.Total, &date, &dni, &desc, &sellerID); err != nil {
			return nil, apperr.Persistence(op, err)
		}
		sale.ReceiptNumber = database.StringPtr(number)
		sale.Date = date.Time
		sale.CustomerDNI = database.StringPtr(dni)
		sale.Description = database.StringPtr(desc)
		sale.SellerID = database.IntPtr(sellerID)
		sale.Lines = []Line{}
		sales = append(sales, &sale)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence(op, err)
	}
	return sales, nil
}
