// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package, together with the
// connection pool setup and the embedded goose migrations that create the
// schema those stores rely on.
package postgres
