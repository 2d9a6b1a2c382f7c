// Package mysql adaptador de persistencia sobre MySQL (motor de la instalación original).
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Querier lo cumplen *sql.DB y *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open abre el pool y verifica la conexión. Fuerza parseTime para escanear DATETIME en time.Time.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// Modo estricto: un nombre demasiado largo falla con 1406 en vez de truncarse.
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["sql_mode"]; !ok {
		cfg.Params["sql_mode"] = "CONCAT(@@sql_mode, ',STRICT_TRANS_TABLES')"
	}

	connector, err := mysqldriver.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("crear connector: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return db, nil
}

// isDuplicateEntry verifica si un error es ER_DUP_ENTRY (1062).
func isDuplicateEntry(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "Error 1062")
}

// isDataTooLong verifica si un error es ER_DATA_TOO_LONG (1406).
func isDataTooLong(err error) bool {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1406
	}
	return false
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		id         VARCHAR(36) NOT NULL PRIMARY KEY,
		name       VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		quantity   BIGINT NOT NULL DEFAULT 0,
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_items_name (name),
		CONSTRAINT chk_items_quantity CHECK (quantity >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS movements (
		id         BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		item_id    VARCHAR(36) NOT NULL,
		kind       ENUM('Inbound', 'Outbound') NOT NULL,
		amount     BIGINT NOT NULL,
		actor_id   VARCHAR(64) NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_movements_item_id (item_id),
		KEY idx_movements_created_at (created_at, id),
		CONSTRAINT chk_movements_amount CHECK (amount > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate aplica el esquema sentencia por sentencia (el DSN no requiere multiStatements).
func Migrate(ctx context.Context, q Querier) error {
	for _, stmt := range schema {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
