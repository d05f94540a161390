package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/smallbiznis/shipdesk/internal/audit/domain"
	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	authdomain "github.com/smallbiznis/shipdesk/internal/auth/domain"
	citydomain "github.com/smallbiznis/shipdesk/internal/city/domain"
	clientdomain "github.com/smallbiznis/shipdesk/internal/client/domain"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	orderdomain "github.com/smallbiznis/shipdesk/internal/order/domain"
	paymentmethoddomain "github.com/smallbiznis/shipdesk/internal/paymentmethod/domain"
	shippingcompanydomain "github.com/smallbiznis/shipdesk/internal/shippingcompany/domain"
	storedomain "github.com/smallbiznis/shipdesk/internal/store/domain"
	"github.com/smallbiznis/shipdesk/pkg/db"
	"gorm.io/gorm"
)

const migrationsDir = "sql"

//go:embed sql/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&authdomain.User{},
		&companydomain.CompanyInfo{},
		&appsettingsdomain.AppSettings{},
		&paymentmethoddomain.PaymentMethod{},
		&currencydomain.Currency{},
		&citydomain.City{},
		&storedomain.Store{},
		&shippingcompanydomain.ShippingCompany{},
		&auditdomain.ActivityLog{},
		&clientdomain.Client{},
		&orderdomain.Order{},
	}
}

// Migrate brings the schema up to date. Postgres runs the embedded SQL
// migrations; other dialects fall back to AutoMigrate.
func Migrate(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if strings.EqualFold(strings.TrimSpace(dbType), db.TypePostgres) {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func RunMigrations(sqlDB *sql.DB) error {
	if sqlDB == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.

	return nil
}
