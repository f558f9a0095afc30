package purchases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/apperr"
	"api_pos/internal/database"
	"api_pos/internal/products"
)

// ErrNotFound is returned when a purchase with the given ID is not found.
var ErrNotFound = errors.New("compra no encontrada")

// ErrLineNotFound is returned when a purchase line with the given ID is not found.
var ErrLineNotFound = errors.New("detalle de compra no encontrado")

// Storage is the persistence gateway for purchases. Every write keeps product
// stock and the header total consistent inside one transaction.
type Storage interface {
	Save(ctx context.Context, p *Purchase) error
	FindAll(ctx context.Context) ([]*Purchase, error)
	Delete(ctx context.Context, id int64) error
	DeleteLine(ctx context.Context, lineID int64) error
	EditLine(ctx context.Context, lineID int64, units int, unitPrice float64) error
}

type SQLStorage struct {
	db *sql.DB
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Save(ctx context.Context, p *Purchase) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO compra (descripcion, monto) VALUES (?, ?)`,
			database.NullString(p.Description), p.Total)
		if err != nil {
			return apperr.Persistence("insertar compra", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return apperr.Persistence("leer id de compra", err)
		}

		for i := range p.Lines {
			l := &p.Lines[i]
			res, err := tx.ExecContext(ctx,
				`INSERT INTO detalle_compra (idcompra, idproducto, unidades, precio_unitario) VALUES (?, ?, ?, ?)`,
				id, l.ProductID, l.Units, l.UnitPrice)
			if err != nil {
				return apperr.Persistence("insertar detalle de compra", err)
			}
			if l.ID, err = res.LastInsertId(); err != nil {
				return apperr.Persistence("leer id de detalle de compra", err)
			}
			l.PurchaseID = id

			if err := products.AdjustStock(ctx, tx, l.ProductID, l.Units); err != nil {
				return fmt.Errorf("producto %d: %w", l.ProductID, err)
			}
		}

		p.ID = id
		return nil
	})
}

func (s *SQLStorage) FindAll(ctx context.Context) ([]*Purchase, error) {
	list, err := s.headers(ctx)
	if err != nil || len(list) == 0 {
		return list, err
	}

	byID := make(map[int64]*Purchase, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.iddetalle_compra, d.idcompra, d.idproducto, d.unidades, d.precio_unitario, p.image_path
		FROM detalle_compra d
		LEFT JOIN producto p ON p.idproducto = d.idproducto
		ORDER BY d.iddetalle_compra`)
	if err != nil {
		return nil, apperr.Persistence("listar detalle de compras", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l     Line
			image sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ProductID, &l.Units, &l.UnitPrice, &image); err != nil {
			return nil, apperr.Persistence("listar detalle de compras", err)
		}
		l.ImagePath = database.StringPtr(image)
		if p, ok := byID[l.PurchaseID]; ok {
			p.Lines = append(p.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("listar detalle de compras", err)
	}
	return list, nil
}

func (s *SQLStorage) headers(ctx context.Context) ([]*Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT idcompra, descripcion, monto FROM compra ORDER BY idcompra`)
	if err != nil {
		return nil, apperr.Persistence("listar compras", err)
	}
	defer rows.Close()

	list := make([]*Purchase, 0)
	for rows.Next() {
		var (
			p    Purchase
			desc sql.NullString
		)
		if err := rows.Scan(&p.ID, &desc, &p.Total); err != nil {
			return nil, apperr.Persistence("listar compras", err)
		}
		p.Description = database.StringPtr(desc)
		p.Lines = []Line{}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("listar compras", err)
	}
	return list, nil
}

func (s *SQLStorage) Delete(ctx context.Context, id int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		lines, err := readLines(ctx, tx, `WHERE idcompra = ?`, id)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := takeBack(ctx, tx, l.ProductID, l.Units); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM detalle_compra WHERE idcompra = ?`, id); err != nil {
			return apperr.Persistence("eliminar detalle de compra", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM compra WHERE idcompra = ?`, id)
		if err != nil {
			return apperr.Persistence("eliminar compra", err)
		}
		return expectOneRow(res, "eliminar compra", ErrNotFound)
	})
}

func (s *SQLStorage) DeleteLine(ctx context.Context, lineID int64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		l, err := readLine(ctx, tx, lineID)
		if err != nil {
			return err
		}
		if err := takeBack(ctx, tx, l.ProductID, l.Units); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM detalle_compra WHERE iddetalle_compra = ?`, lineID)
		if err != nil {
			return apperr.Persistence("eliminar detalle de compra", err)
		}
		if err := expectOneRow(res, "eliminar detalle de compra", ErrLineNotFound); err != nil {
			return err
		}
		return refreshTotal(ctx, tx, l.PurchaseID)
	})
}

func (s *SQLStorage) EditLine(ctx context.Context, lineID int64, units int, unitPrice float64) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		l, err := readLine(ctx, tx, lineID)
		if err != nil {
			return err
		}
		if delta := units - l.Units; delta != 0 {
			err := products.AdjustStock(ctx, tx, l.ProductID, delta)
			if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
				return fmt.Errorf("producto %d: %w", l.ProductID, err)
			}
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE detalle_compra SET unidades = ?, precio_unitario = ? WHERE iddetalle_compra = ?`,
			units, unitPrice, lineID)
		if err != nil {
			return apperr.Persistence("editar detalle de compra", err)
		}
		if err := expectOneRow(res, "editar detalle de compra", ErrLineNotFound); err != nil {
			return err
		}
		return refreshTotal(ctx, tx, l.PurchaseID)
	})
}

// takeBack removes units bought earlier from stock. Products deleted since
// the purchase are skipped.
func takeBack(ctx context.Context, tx *sql.Tx, productID int64, units int) error {
	err := products.AdjustStock(ctx, tx, productID, -units)
	if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		return fmt.Errorf("producto %d: %w", productID, err)
	}
	return nil
}

func refreshTotal(ctx context.Context, tx *sql.Tx, purchaseID int64) error {
	lines, err := readLines(ctx, tx, `WHERE idcompra = ?`, purchaseID)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE compra SET monto = ? WHERE idcompra = ?`, Total(lines), purchaseID)
	if err != nil {
		return apperr.Persistence("actualizar monto de compra", err)
	}
	return nil
}

func readLine(ctx context.Context, tx *sql.Tx, lineID int64) (Line, error) {
	lines, err := readLines(ctx, tx, `WHERE iddetalle_compra = ?`, lineID)
	if err != nil {
		return Line{}, err
	}
	if len(lines) == 0 {
		return Line{}, apperr.NotFound(ErrLineNotFound)
	}
	return lines[0], nil
}

func readLines(ctx context.Context, tx *sql.Tx, where string, args ...any) ([]Line, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT iddetalle_compra, idcompra, idproducto, unidades, precio_unitario
		FROM detalle_compra `+where+` ORDER BY iddetalle_compra`, args...)
	if err != nil {
		return nil, apperr.Persistence("leer detalle de compra", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ProductID, &l.Units, &l.UnitPrice); err != nil {
			return nil, apperr.Persistence("leer detalle de compra", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("leer detalle de compra", err)
	}
	return lines, nil
}

func expectOneRow(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence(op, err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
