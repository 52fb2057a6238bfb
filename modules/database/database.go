// Package database owns the relational store shared by the storefront modules.
package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnsupportedURL is returned for connection strings with an unknown scheme.
var ErrUnsupportedURL = errors.New("unsupported database url")

// Dialect names the SQL backend behind a connection string.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseURL selects a dialect for rawURL.
//
// Accepted forms: postgres://..., postgresql://..., sqlite:<path>, file:<path>, :memory:.
func ParseURL(rawURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return DialectPostgres, rawURL, nil
	case strings.HasPrefix(rawURL, "sqlite:"):
		return DialectSQLite, strings.TrimPrefix(rawURL, "sqlite:"), nil
	case strings.HasPrefix(rawURL, "file:"), rawURL == ":memory:":
		return DialectSQLite, rawURL, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURL, redact(rawURL))
	}
}

// Open connects to the database named by rawURL.
func Open(rawURL string) (*gorm.DB, Dialect, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	if dialect == DialectSQLite {
		// SQLite allows one writer; a single connection also keeps :memory: databases shared.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get database connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, dialect, nil
}

// Migrate creates or updates every storefront table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.User{},
		&catalog.Category{},
		&catalog.Product{},
		&catalog.ProductImage{},
		&order.Order{},
		&order.OrderItem{},
		&payment.Session{},
		&payment.Event{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// OpenMemory opens and migrates a private in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	db, _, err := Open(":memory:")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// IsDuplicateKey reports whether err is a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// redact hides credentials in a connection string for log output.
func redact(rawURL string) string {
	at := strings.LastIndex(rawURL, "@")
	scheme := strings.Index(rawURL, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return rawURL
	}
	return rawURL[:scheme+3] + "***" + rawURL[at:]
}
