package db

import "gorm.io/gorm"

// Dialect identifiers supported by the database layer.
const (
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection uses SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// GreatestFunc returns the dialect's two-argument maximum function name.
// SQLite's scalar max() takes multiple arguments; PostgreSQL uses GREATEST.
func GreatestFunc(conn *gorm.DB) string {
	if IsSQLite(conn) {
		return "MAX"
	}
	return "GREATEST"
}
