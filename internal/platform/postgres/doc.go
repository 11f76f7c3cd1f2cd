// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, using database/sql with the pgx
// stdlib driver.
package postgres
