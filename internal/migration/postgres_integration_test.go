//go:build integration

package migration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	currencydomain "github.com/smallbiznis/shipdesk/internal/currency/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("shipdesk_test"),
		tcpostgres.WithUsername("shipdesk"),
		tcpostgres.WithPassword("shipdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresMigrationsMatchModels(t *testing.T) {
	dsn := startPostgres(t)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, RunMigrations(sqlDB))
	require.NoError(t, RunMigrations(sqlDB))

	var tables int
	require.NoError(t, sqlDB.QueryRow(
		`SELECT count(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name <> 'schema_migrations'`,
	).Scan(&tables))
	assert.Equal(t, len(Models()), tables)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	mad := currencydomain.Currency{Code: "MAD", Name: "Moroccan Dirham", Symbol: "DH", ExchangeRate: decimal.NewFromInt(1), IsDefault: true, IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, conn.Create(&mad).Error)

	eur := currencydomain.Currency{Code: "EUR", Name: "Euro", Symbol: "€", ExchangeRate: decimal.RequireFromString("0.092"), IsDefault: true, IsActive: true, CreatedAt: now, UpdatedAt: now}
	assert.ErrorIs(t, conn.Create(&eur).Error, gorm.ErrDuplicatedKey)
}
