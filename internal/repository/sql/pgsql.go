package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/iyhunko/product-catalog/internal/config"
	"github.com/iyhunko/product-catalog/internal/model"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	// DriverPgx selects the pgx stdlib driver.
	DriverPgx = "pgx"
	// DriverPq selects the lib/pq driver.
	DriverPq = "postgres"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// StartDB opens the connection pool and brings the schema up to date.
func StartDB(ctx context.Context, dbConf config.DB) (*sqlx.DB, error) {
	dbCon, err := startDBConnection(ctx, dbConf)
	if err != nil {
		slog.Error("failed to initialize DB connection", slog.Any("err", err))
		return nil, fmt.Errorf("failed to initialize DB connection: %w", err)
	}
	slog.Info("DB connection done", slog.String("driver", dbCon.DriverName()))
	if err = RunMigrations(dbCon.DB); err != nil {
		slog.Error("failed to run migrations", slog.Any("err", err))
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("DB migration done")
	return dbCon, nil
}

// DSN builds a key/value connection string understood by both pgx and lib/pq.
func DSN(conf config.DB) string {
	sslMode := conf.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		conf.Host, conf.User, conf.Password, conf.Name, conf.Port, sslMode)
	if conf.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", conf.StatementTimeout.Milliseconds())
	}
	return dsn
}

func startDBConnection(ctx context.Context, conf config.DB) (*sqlx.DB, error) {
	driver := conf.Driver
	if driver == "" {
		driver = DriverPgx
	}
	if driver != DriverPgx && driver != DriverPq {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, DSN(conf))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if conf.MaxOpenConns > 0 {
		db.SetMaxOpenConns(conf.MaxOpenConns)
		db.SetMaxIdleConns(conf.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// ExampleProducts returns the products seeded into an empty catalog.
func ExampleProducts() []*model.Product {
	return []*model.Product{
		{
			Name:          "Laptop",
			Description:   "High-performance laptop",
			Price:         decimal.RequireFromString("999.99"),
			StockQuantity: 10,
		},
		{
			Name:          "Smartphone",
			Description:   "Latest model smartphone",
			Price:         decimal.RequireFromString("699.99"),
			StockQuantity: 15,
		},
		{
			Name:          "Headphones",
			Description:   "Noise-cancelling headphones",
			Price:         decimal.RequireFromString("199.99"),
			StockQuantity: 20,
		},
	}
}

// SeedExampleProducts inserts ExampleProducts when the products table is empty.
// It returns the number of products inserted.
func SeedExampleProducts(ctx context.Context, db *sqlx.DB, opts ...Option) (int, error) {
	var seeded int
	err := WithStore(ctx, db, func(store *Store) error {
		var err error
		seeded, err = store.seedIfEmpty(ctx, ExampleProducts())
		return err
	}, opts...)
	if err != nil {
		return 0, err
	}
	if seeded > 0 {
		slog.Info("seeded example products", slog.Int("count", seeded))
	}
	return seeded, nil
}
