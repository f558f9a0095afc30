package users

import (
	"context"
	"database/sql"
	"errors"

	"api_pos/internal/apperr"
)

// ErrNotFound is returned when no user has the given name.
var ErrNotFound = errors.New("usuario no encontrado")

// ErrDuplicateName is returned when a user name is already taken.
var ErrDuplicateName = errors.New("el usuario ya existe")

type Storage interface {
	FindByName(ctx context.Context, name string) (*User, error)
	Create(ctx context.Context, u *User) error
}

type SQLStorage struct {
	db *sql.DB
}

func NewSQLStorage(db *sql.DB) *SQLStorage {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) FindByName(ctx context.Context, name string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT idusuario, nombre, password, rol FROM usuario WHERE nombre = ?`, name,
	).Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound(ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Persistence("buscar usuario", err)
	}
	return &u, nil
}

func (s *SQLStorage) Create(ctx context.Context, u *User) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuario WHERE nombre = ?`, u.Name).Scan(&n); err != nil {
		return apperr.Persistence("verificar usuario", err)
	}
	if n > 0 {
		return apperr.Validation(ErrDuplicateName)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO usuario (nombre, password, rol) VALUES (?, ?, ?)`,
		u.Name, u.PasswordHash, u.Role)
	if err != nil {
		return apperr.Persistence("crear usuario", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Persistence("leer id de usuario", err)
	}
	u.ID = id
	return nil
}
