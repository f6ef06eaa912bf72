package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"gorm.io/gorm"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Models lists every table the storefront owns, parents first.
func Models() []any {
	return []any{
		&authdomain.User{},
		&authdomain.Session{},
		&categorydomain.Category{},
		&productdomain.Product{},
		&productdomain.ProductCategory{},
		&productdomain.Image{},
		&productdomain.Option{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&orderdomain.Tracking{},
		&auditdomain.AuditLog{},
	}
}

// Run brings the schema up to date. SQLite has no embedded migrations and is
// migrated from the gorm models instead.
func Run(conn *gorm.DB, dialect string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	dialect = strings.ToLower(strings.TrimSpace(dialect))
	if dialect == db.TypeSQLite {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB, dialect)
}

func RunMigrations(sqlDB *sql.DB, dialect string) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, path.Join(migrationsDir, dialect))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := newDriver(sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}

func newDriver(sqlDB *sql.DB, dialect string) (database.Driver, error) {
	switch dialect {
	case db.TypePostgres:
		return postgres.WithInstance(sqlDB, &postgres.Config{})
	case db.TypeMySQL:
		return mysql.WithInstance(sqlDB, &mysql.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}
