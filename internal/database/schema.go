package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/recipe-box/internal/config"
)

// The schema is created idempotently at startup; there is no versioned
// migration history.  seq preserves insertion order for listings, version
// is the compare-and-swap counter for recipe updates.  Usernames are
// compared byte-wise (utf8mb4_bin on MySQL, BINARY collation on SQLite).

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            CHAR(36)     NOT NULL,
		username      VARCHAR(191) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    DATETIME(6)  NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS recipes (
		seq              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		id               CHAR(36)     NOT NULL,
		owner_id         CHAR(36)     NOT NULL,
		name             VARCHAR(255) NOT NULL,
		ingredients      TEXT         NOT NULL,
		instructions     TEXT         NOT NULL,
		category         VARCHAR(255) NOT NULL,
		preparation_time VARCHAR(64)  NOT NULL,
		cooking_time     VARCHAR(64)  NOT NULL,
		servings         VARCHAR(64)  NOT NULL,
		picture          LONGTEXT     NOT NULL,
		version          BIGINT       NOT NULL DEFAULT 1,
		created_at       DATETIME(6)  NOT NULL,
		updated_at       DATETIME(6)  NOT NULL,
		PRIMARY KEY (seq),
		UNIQUE KEY uq_recipes_id (id),
		KEY idx_recipes_owner (owner_id, seq),
		CONSTRAINT fk_recipes_owner FOREIGN KEY (owner_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     NOT NULL PRIMARY KEY,
		username      TEXT     NOT NULL UNIQUE,
		password_hash TEXT     NOT NULL,
		created_at    DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		seq              INTEGER  PRIMARY KEY AUTOINCREMENT,
		id               TEXT     NOT NULL UNIQUE,
		owner_id         TEXT     NOT NULL REFERENCES users (id),
		name             TEXT     NOT NULL,
		ingredients      TEXT     NOT NULL,
		instructions     TEXT     NOT NULL,
		category         TEXT     NOT NULL,
		preparation_time TEXT     NOT NULL,
		cooking_time     TEXT     NOT NULL,
		servings         TEXT     NOT NULL,
		picture          TEXT     NOT NULL,
		version          INTEGER  NOT NULL DEFAULT 1,
		created_at       DATETIME NOT NULL,
		updated_at       DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_owner ON recipes (owner_id, seq)`,
}

// EnsureSchema creates the tables for driver if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case config.DriverMySQL:
		stmts = mysqlSchema
	case config.DriverSQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("database: no schema for driver %q", driver)
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("unable to apply schema, cause %w", err)
		}
	}
	return nil
}
