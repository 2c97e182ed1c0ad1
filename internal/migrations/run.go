// Package migrations применяет SQL-миграции схемы витрины через golang-migrate.
package migrations

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrDirty предыдущая миграция упала на середине, схему нужно чинить вручную.
var ErrDirty = errors.New("database schema is dirty")

// Run применяет все миграции из каталога path и возвращает итоговую версию схемы.
// Повторный запуск ничего не меняет.
func Run(db *sql.DB, path string) (uint, error) {
	const op = "migrations.Run"
	m, err := open(db, path)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if _, dirty, err := m.Version(); err == nil && dirty {
		return 0, fmt.Errorf("%s: %w", op, ErrDirty)
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return version, nil
}

func open(db *sql.DB, path string) (*migrate.Migrate, error) {
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithDatabaseInstance("file://"+path, "pgx_v5", driver)
}
