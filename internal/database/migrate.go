package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the five tables when they do not exist yet.  It is run on
// every start and is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	var stmts []string
	switch db.DriverName() {
	case SQLite:
		stmts = sqliteSchema
	case MySQL:
		stmts = mysqlSchema
	case Postgres:
		stmts = postgresSchema
	default:
		return fmt.Errorf("database: no schema for driver %q", db.DriverName())
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("database: migrate: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(80)  NOT NULL,
		is_admin      BOOLEAN      NOT NULL DEFAULT 0,
		created_at    DATETIME     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lots (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		location       VARCHAR(30)  NOT NULL,
		address        VARCHAR(150) NOT NULL,
		postal_code    VARCHAR(10)  NOT NULL,
		price_per_hour REAL         NOT NULL,
		capacity       INTEGER      NOT NULL,
		is_shaded      BOOLEAN      NOT NULL DEFAULT 0,
		created_at     DATETIME     NOT NULL,
		updated_at     DATETIME     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		lot_id INTEGER NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
		status VARCHAR(10) NOT NULL DEFAULT 'available'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spots_lot_status ON spots(lot_id, status)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id        INTEGER NOT NULL REFERENCES users(id),
		lot_id         INTEGER REFERENCES lots(id) ON DELETE SET NULL,
		spot_id        INTEGER REFERENCES spots(id) ON DELETE SET NULL,
		start_time     DATETIME NOT NULL,
		end_time       DATETIME,
		price_per_hour REAL NOT NULL,
		vehicle_number VARCHAR(15) NOT NULL,
		is_ongoing     BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id, is_ongoing)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_lot ON reservations(lot_id, is_ongoing)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		reservation_id INTEGER NOT NULL UNIQUE REFERENCES reservations(id),
		amount         REAL NOT NULL,
		method         VARCHAR(20) NOT NULL DEFAULT 'Cash',
		paid_at        DATETIME NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email         VARCHAR(120) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(80)  NOT NULL,
		is_admin      TINYINT(1)   NOT NULL DEFAULT 0,
		created_at    DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS lots (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		location       VARCHAR(30)  NOT NULL,
		address        VARCHAR(150) NOT NULL,
		postal_code    VARCHAR(10)  NOT NULL,
		price_per_hour DOUBLE       NOT NULL,
		capacity       INT          NOT NULL,
		is_shaded      TINYINT(1)   NOT NULL DEFAULT 0,
		created_at     DATETIME(6)  NOT NULL,
		updated_at     DATETIME(6)  NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS spots (
		id     BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		lot_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(10) NOT NULL DEFAULT 'available',
		KEY idx_spots_lot_status (lot_id, status),
		CONSTRAINT fk_spots_lot FOREIGN KEY (lot_id) REFERENCES lots(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id        BIGINT UNSIGNED NOT NULL,
		lot_id         BIGINT UNSIGNED NULL,
		spot_id        BIGINT UNSIGNED NULL,
		start_time     DATETIME(6) NOT NULL,
		end_time       DATETIME(6) NULL,
		price_per_hour DOUBLE NOT NULL,
		vehicle_number VARCHAR(15) NOT NULL,
		is_ongoing     TINYINT(1) NOT NULL DEFAULT 1,
		KEY idx_reservations_user (user_id, is_ongoing),
		KEY idx_reservations_lot (lot_id, is_ongoing),
		CONSTRAINT fk_reservations_user FOREIGN KEY (user_id) REFERENCES users(id),
		CONSTRAINT fk_reservations_lot FOREIGN KEY (lot_id) REFERENCES lots(id) ON DELETE SET NULL,
		CONSTRAINT fk_reservations_spot FOREIGN KEY (spot_id) REFERENCES spots(id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		id             BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT UNSIGNED NOT NULL,
		amount         DOUBLE NOT NULL,
		method         VARCHAR(20) NOT NULL DEFAULT 'Cash',
		paid_at        DATETIME(6) NOT NULL,
		UNIQUE KEY uq_payments_reservation (reservation_id),
		CONSTRAINT fk_payments_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name          VARCHAR(80)  NOT NULL,
		is_admin      BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lots (
		id             BIGSERIAL PRIMARY KEY,
		location       VARCHAR(30)  NOT NULL,
		address        VARCHAR(150) NOT NULL,
		postal_code    VARCHAR(10)  NOT NULL,
		price_per_hour DOUBLE PRECISION NOT NULL,
		capacity       INTEGER      NOT NULL,
		is_shaded      BOOLEAN      NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ  NOT NULL,
		updated_at     TIMESTAMPTZ  NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		id     BIGSERIAL PRIMARY KEY,
		lot_id BIGINT NOT NULL REFERENCES lots(id) ON DELETE CASCADE,
		status VARCHAR(10) NOT NULL DEFAULT 'available'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_spots_lot_status ON spots(lot_id, status)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id             BIGSERIAL PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users(id),
		lot_id         BIGINT REFERENCES lots(id) ON DELETE SET NULL,
		spot_id        BIGINT REFERENCES spots(id) ON DELETE SET NULL,
		start_time     TIMESTAMPTZ NOT NULL,
		end_time       TIMESTAMPTZ,
		price_per_hour DOUBLE PRECISION NOT NULL,
		vehicle_number VARCHAR(15) NOT NULL,
		is_ongoing     BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id, is_ongoing)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_lot ON reservations(lot_id, is_ongoing)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id             BIGSERIAL PRIMARY KEY,
		reservation_id BIGINT NOT NULL UNIQUE REFERENCES reservations(id),
		amount         DOUBLE PRECISION NOT NULL,
		method         VARCHAR(20) NOT NULL DEFAULT 'Cash',
		paid_at        TIMESTAMPTZ NOT NULL
	)`,
}
