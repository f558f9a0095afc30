package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Line tables reference their header but not producto: a product can be
// deleted while historical sales and purchases keep pointing at its id.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS categoria (
		idcategoria INT AUTO_INCREMENT PRIMARY KEY,
		nombre      VARCHAR(100) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS producto (
		idproducto       INT AUTO_INCREMENT PRIMARY KEY,
		nombre           VARCHAR(150)  NOT NULL,
		fecha_ingreso    DATE          NOT NULL,
		precio_compra    DECIMAL(10,2) NOT NULL,
		precio_venta     DECIMAL(10,2) NOT NULL,
		cantidad         INT           NOT NULL DEFAULT 0,
		categoria_nombre VARCHAR(100)  NOT NULL,
		image_path       VARCHAR(255)  NULL,
		precio_oferta    DECIMAL(10,2) NULL,
		INDEX idx_producto_categoria (categoria_nombre)
	)`,
	`CREATE TABLE IF NOT EXISTS venta (
		idventa       INT AUTO_INCREMENT PRIMARY KEY,
		cliente_dni   VARCHAR(20)   NULL,
		descripcion   VARCHAR(255)  NULL,
		fecha         DATETIME      NOT NULL,
		vendedor_id   INT           NULL,
		numero_boleta VARCHAR(50)   NULL,
		monto         DECIMAL(10,2) NOT NULL,
		INDEX idx_venta_fecha (fecha)
	)`,
	`CREATE TABLE IF NOT EXISTS detalle_venta (
		iddetalle_venta INT AUTO_INCREMENT PRIMARY KEY,
		idventa         INT           NOT NULL,
		idproducto      INT           NOT NULL,
		cantidad        INT           NOT NULL,
		precio_unitario DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (idventa) REFERENCES venta(idventa)
	)`,
	`CREATE TABLE IF NOT EXISTS compra (
		idcompra    INT AUTO_INCREMENT PRIMARY KEY,
		descripcion VARCHAR(255)  NULL,
		monto       DECIMAL(10,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS detalle_compra (
		iddetalle_compra INT AUTO_INCREMENT PRIMARY KEY,
		idcompra         INT           NOT NULL,
		idproducto       INT           NOT NULL,
		unidades         INT           NOT NULL,
		precio_unitario  DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (idcompra) REFERENCES compra(idcompra)
	)`,
	`CREATE TABLE IF NOT EXISTS usuario (
		idusuario INT AUTO_INCREMENT PRIMARY KEY,
		nombre    VARCHAR(100) NOT NULL UNIQUE,
		password  VARCHAR(255) NOT NULL,
		rol       VARCHAR(30)  NOT NULL
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS categoria (
		idcategoria INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre      TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS producto (
		idproducto       INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre           TEXT    NOT NULL,
		fecha_ingreso    DATE    NOT NULL,
		precio_compra    REAL    NOT NULL,
		precio_venta     REAL    NOT NULL,
		cantidad         INTEGER NOT NULL DEFAULT 0,
		categoria_nombre TEXT    NOT NULL,
		image_path       TEXT,
		precio_oferta    REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_producto_categoria ON producto(categoria_nombre)`,
	`CREATE TABLE IF NOT EXISTS venta (
		idventa       INTEGER PRIMARY KEY AUTOINCREMENT,
		cliente_dni   TEXT,
		descripcion   TEXT,
		fecha         DATETIME NOT NULL,
		vendedor_id   INTEGER,
		numero_boleta TEXT,
		monto         REAL     NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_venta_fecha ON venta(fecha)`,
	`CREATE TABLE IF NOT EXISTS detalle_venta (
		iddetalle_venta INTEGER PRIMARY KEY AUTOINCREMENT,
		idventa         INTEGER NOT NULL REFERENCES venta(idventa),
		idproducto      INTEGER NOT NULL,
		cantidad        INTEGER NOT NULL,
		precio_unitario REAL    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS compra (
		idcompra    INTEGER PRIMARY KEY AUTOINCREMENT,
		descripcion TEXT,
		monto       REAL NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS detalle_compra (
		iddetalle_compra INTEGER PRIMARY KEY AUTOINCREMENT,
		idcompra         INTEGER NOT NULL REFERENCES compra(idcompra),
		idproducto       INTEGER NOT NULL,
		unidades         INTEGER NOT NULL,
		precio_unitario  REAL    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usuario (
		idusuario INTEGER PRIMARY KEY AUTOINCREMENT,
		nombre    TEXT NOT NULL UNIQUE,
		password  TEXT NOT NULL,
		rol       TEXT NOT NULL
	)`,
}

// ApplySchema runs the DDL for driver. Idempotent due to IF NOT EXISTS.
func ApplySchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case DriverMySQL:
		stmts = mysqlSchema
	case DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("database: no schema for driver %q", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database: apply schema: %w", err)
		}
	}
	return nil
}
