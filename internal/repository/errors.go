package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a requested row doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint fails
	ErrConflict = errors.New("conflict: duplicate key")

	// ErrReferenceMissing is returned when a foreign key constraint fails
	ErrReferenceMissing = errors.New("referenced row does not exist")

	// ErrUndefinedTable is returned when a table has not been migrated yet
	ErrUndefinedTable = errors.New("undefined table")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgUndefinedTable      = "42P01"
)

// translate 把 pgx/Postgres 错误转换成仓储层哨兵错误，其余原样返回
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrReferenceMissing
		case pgUndefinedTable:
			return ErrUndefinedTable
		}
	}
	return err
}
