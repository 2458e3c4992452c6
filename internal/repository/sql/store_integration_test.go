package sql_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/iyhunko/product-catalog/internal/config"
	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/iyhunko/product-catalog/internal/repository/sql"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"

// StoreSuite runs the catalog store against a real PostgreSQL instance.
type StoreSuite struct {
	suite.Suite
	pgContainer *postgres.PostgresContainer
	db          *sqlx.DB
	store       *sql.Store
	ctx         context.Context
}

func TestStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) != "" || testing.Short() {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var or -short")
	}
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	host, err := s.pgContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.pgContainer.MappedPort(s.ctx, "5432/tcp")
	require.NoError(s.T(), err)

	s.db, err = sql.StartDB(s.ctx, config.DB{
		Host:             host,
		Port:             port.Port(),
		User:             "catalog",
		Password:         "catalog",
		Name:             "catalog",
		Driver:           sql.DriverPgx,
		StatementTimeout: 10 * time.Second,
		MaxOpenConns:     5,
	})
	require.NoError(s.T(), err, "Failed to start database")
}

func (s *StoreSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}
}

func (s *StoreSuite) SetupTest() {
	_, err := s.db.ExecContext(s.ctx, `TRUNCATE TABLE products, product_history, product_stats,
		categories, suppliers RESTART IDENTITY CASCADE`)
	require.NoError(s.T(), err, "Failed to truncate tables")

	s.store, err = sql.OpenStore(s.ctx, s.db)
	require.NoError(s.T(), err)
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *StoreSuite) insert(name, price string, stock int) *model.Product {
	s.T().Helper()
	p := &model.Product{Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock}
	_, err := s.store.Insert(s.ctx, p)
	require.NoError(s.T(), err)
	return p
}

func (s *StoreSuite) insertCategory(name string, parentID *int64) int64 {
	s.T().Helper()
	var id int64
	err := s.db.GetContext(s.ctx, &id,
		`INSERT INTO categories (name, parent_category_id) VALUES ($1, $2) RETURNING category_id`, name, parentID)
	require.NoError(s.T(), err)
	return id
}

func (s *StoreSuite) TestLaptopLifecycle() {
	laptop := s.insert("Laptop", "999.99", 10)
	s.Require().NotZero(laptop.ID)

	fetched, err := s.store.GetByID(s.ctx, laptop.ID)
	s.Require().NoError(err)
	s.Nil(fetched.ModifiedDate)
	s.True(fetched.Price.Equal(decimal.RequireFromString("999.99")))

	fetched.Price = decimal.RequireFromString("899.99")
	s.Require().NoError(s.store.Update(s.ctx, fetched))
	s.Require().NoError(s.store.UpdateStock(s.ctx, laptop.ID, 5))

	history, err := s.store.GetHistory(s.ctx, laptop.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	// newest first
	s.Equal(5, *history[0].NewStock)
	s.Equal(10, *history[0].OldStock)
	s.True(history[1].OldPrice.Equal(decimal.RequireFromString("999.99")))
	s.True(history[1].NewPrice.Equal(decimal.RequireFromString("899.99")))
	s.Equal(sql.DefaultModifiedBy, history[1].ModifiedBy)

	s.Require().NoError(s.store.Delete(s.ctx, laptop.ID))
	_, err = s.store.GetByID(s.ctx, laptop.ID)
	s.ErrorIs(err, repository.ErrNotFound)

	history, err = s.store.GetHistory(s.ctx, laptop.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(model.HistoryActionDelete, history[0].Action)
	s.True(history[0].OldPrice.Equal(decimal.RequireFromString("899.99")))
	s.Equal(5, *history[0].OldStock)
	s.Nil(history[0].NewPrice)
	s.Nil(history[0].NewStock)
}

func (s *StoreSuite) TestUpdateWithoutAuditedChange() {
	p := s.insert("Mouse", "19.99", 3)
	p.Description = "Wireless"
	s.Require().NoError(s.store.Update(s.ctx, p))

	history, err := s.store.GetHistory(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Empty(history)

	fetched, err := s.store.GetByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Wireless", fetched.Description)
	s.NotNil(fetched.ModifiedDate)
}

func (s *StoreSuite) TestUpdateMissingIsNoop() {
	err := s.store.Update(s.ctx, &model.Product{ID: 999, Name: "Ghost", Price: decimal.NewFromInt(1)})
	s.Require().NoError(err)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
	history, err := s.store.GetHistory(s.ctx, 999)
	s.Require().NoError(err)
	s.Empty(history)

	s.ErrorIs(s.store.UpdateStock(s.ctx, 999, 1), repository.ErrNotFound)
}

func (s *StoreSuite) TestUnknownCategoryIsRejected() {
	missing := int64(12345)
	_, err := s.store.Insert(s.ctx, &model.Product{Name: "Orphan", Price: decimal.NewFromInt(1), CategoryID: &missing})
	s.ErrorIs(err, repository.ErrValidation)
}

func (s *StoreSuite) TestViews() {
	electronics := s.insertCategory("Electronics", nil)
	audio := s.insertCategory("Audio", &electronics)
	s.insertCategory("Books", nil)

	headphones := &model.Product{Name: "Headphones", SKU: "HP_100%", Price: decimal.RequireFromString("199.99"), StockQuantity: 2, ReorderLevel: 5, CategoryID: &audio}
	_, err := s.store.Insert(s.ctx, headphones)
	s.Require().NoError(err)
	speaker := &model.Product{Name: "Speaker", Price: decimal.RequireFromString("49.50"), StockQuantity: 1, ReorderLevel: 5, CategoryID: &audio, IsDiscontinued: true}
	_, err = s.store.Insert(s.ctx, speaker)
	s.Require().NoError(err)
	s.insert("Laptop", "999.99", 10)

	byCategory, err := s.store.ListByCategory(s.ctx, audio)
	s.Require().NoError(err)
	s.Require().Len(byCategory, 2)
	s.Equal("Headphones", byCategory[0].Name)
	s.Require().NotNil(byCategory[0].Category)
	s.Equal("Audio", byCategory[0].Category.Name)

	lowStock, err := s.store.ListLowStock(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(lowStock, 1)
	s.Equal("Headphones", lowStock[0].Name)

	found, err := s.store.Search(s.ctx, "HEADPH")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	found, err = s.store.Search(s.ctx, "100%")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	found, err = s.store.Search(s.ctx, "%")
	s.Require().NoError(err)
	s.Len(found, 1)
	found, err = s.store.Search(s.ctx, "")
	s.Require().NoError(err)
	s.Len(found, 3)

	inRange, err := s.store.ListByPriceRange(s.ctx, decimal.RequireFromString("49.50"), decimal.RequireFromString("199.99"))
	s.Require().NoError(err)
	s.Require().Len(inRange, 2)
	s.Equal("Speaker", inRange[0].Name)
	_, err = s.store.ListByPriceRange(s.ctx, decimal.NewFromInt(10), decimal.NewFromInt(1))
	s.ErrorIs(err, repository.ErrInvalidRange)

	roots, err := s.store.GetCategoryHierarchy(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(roots, 2)
	s.Equal("Books", roots[0].Name)
	s.Equal("Electronics", roots[1].Name)
	s.Require().Len(roots[1].SubCategories, 1)
	s.Equal("Audio", roots[1].SubCategories[0].Name)
}

func (s *StoreSuite) TestRunInTransactionRollsBack() {
	err := s.store.RunInTransaction(s.ctx,
		func(ctx context.Context, tx repository.CatalogStore) error {
			_, err := tx.Insert(ctx, &model.Product{Name: "Committed?", Price: decimal.NewFromInt(1)})
			return err
		},
		func(ctx context.Context, tx repository.CatalogStore) error {
			_, err := tx.Insert(ctx, &model.Product{Name: " ", Price: decimal.NewFromInt(1)})
			return err
		},
	)
	s.ErrorIs(err, repository.ErrValidation)

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *StoreSuite) TestConcurrentStockUpdatesAreSerialized() {
	p := s.insert("Keyboard", "49.99", 10)

	errs := make(chan error, 2)
	for _, qty := range []int{7, 3} {
		go func(qty int) {
			errs <- sql.WithStore(s.ctx, s.db, func(store *sql.Store) error {
				return store.UpdateStock(s.ctx, p.ID, qty)
			})
		}(qty)
	}
	s.Require().NoError(<-errs)
	s.Require().NoError(<-errs)

	history, err := s.store.GetHistory(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	// the second writer saw the first writer's stock
	s.Equal(*history[1].NewStock, *history[0].OldStock)
	s.Equal(10, *history[1].OldStock)
}

func (s *StoreSuite) TestStatsAndFeed() {
	_, err := s.store.GetStats(s.ctx)
	s.ErrorIs(err, repository.ErrNotFound)

	seeded, err := sql.SeedExampleProducts(s.ctx, s.db)
	s.Require().NoError(err)
	s.Equal(3, seeded)
	seeded, err = sql.SeedExampleProducts(s.ctx, s.db)
	s.Require().NoError(err)
	s.Zero(seeded)

	at := time.Now().UTC().Truncate(time.Microsecond)
	refreshed, err := sql.NewStatsRepository(s.db).Refresh(s.ctx, at)
	s.Require().NoError(err)
	s.Equal(3, refreshed.TotalProducts)
	// 999.99*10 + 699.99*15 + 199.99*20
	s.True(refreshed.TotalStockValue.Equal(decimal.RequireFromString("24499.55")), refreshed.TotalStockValue.String())

	stats, err := s.store.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(refreshed.TotalProducts, stats.TotalProducts)
	s.True(refreshed.AveragePrice.Equal(stats.AveragePrice))

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Delete(s.ctx, all[0].ID))

	feed := sql.NewHistoryFeedRepository(s.db)
	entries, err := feed.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)

	s.Require().NoError(feed.MarkRelayed(s.ctx, entries[0].ID, at))
	entries, err = feed.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(entries)

	// relayed entries stay in the product history
	history, err := s.store.GetHistory(s.ctx, all[0].ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *StoreSuite) TestFeedListsEntriesCommittedOutOfOrder() {
	mouse := s.insert("Mouse", "19.99", 5)
	monitor := s.insert("Monitor", "249.99", 3)
	feed := sql.NewHistoryFeedRepository(s.db)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- sql.WithStore(s.ctx, s.db, func(store *sql.Store) error {
			return store.RunInTransaction(s.ctx, func(ctx context.Context, tx repository.CatalogStore) error {
				if err := tx.UpdateStock(ctx, mouse.ID, 4); err != nil {
					return err
				}
				close(started)
				<-release
				return nil
			})
		})
	}()
	select {
	case <-started:
	case err := <-done:
		s.FailNow("stock update finished early", "err: %v", err)
	}

	// the delete takes a higher history id but commits first
	s.Require().NoError(s.store.Delete(s.ctx, monitor.ID))
	entries, err := feed.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(monitor.ID, entries[0].ProductID)
	relayedID := entries[0].ID
	s.Require().NoError(feed.MarkRelayed(s.ctx, relayedID, time.Now().UTC()))

	close(release)
	s.Require().NoError(<-done)

	entries, err = feed.ListPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(mouse.ID, entries[0].ProductID)
	s.Less(entries[0].ID, relayedID)
}
