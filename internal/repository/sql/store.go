package sql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/product-catalog/internal/model"
	"github.com/iyhunko/product-catalog/internal/repository"
	"github.com/jmoiron/sqlx"
)

// DefaultModifiedBy is the attribution written to history records when none is configured.
const DefaultModifiedBy = "System"

// Store implements repository.CatalogStore on top of a single PostgreSQL session.
// A Store is not safe for concurrent use.
type Store struct {
	conn       *sqlx.Conn
	txn        *sqlx.Tx
	modifiedBy string
	now        func() time.Time
}

var _ repository.CatalogStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithModifiedBy sets the attribution recorded on history entries.
func WithModifiedBy(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.modifiedBy = name
		}
	}
}

// WithClock replaces the time source used for created, modified and action dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func defaultClock() time.Time {
	// PostgreSQL stores microseconds.
	return time.Now().UTC().Truncate(time.Microsecond)
}

// OpenStore takes a session from the pool. The caller must Close the store.
func OpenStore(ctx context.Context, db *sqlx.DB, opts ...Option) (*Store, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, persistenceError(ctx, "open store", fmt.Errorf("failed to acquire database session: %w", err))
	}

	s := &Store{
		conn:       conn,
		modifiedBy: DefaultModifiedBy,
		now:        defaultClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WithStore opens a store, passes it to fn and releases the session afterwards.
func WithStore(ctx context.Context, db *sqlx.DB, fn func(store *Store) error, opts ...Option) (err error) {
	store, err := OpenStore(ctx, db, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to release database session: %w", closeErr)
		}
	}()
	return fn(store)
}

// Close returns the session to the pool. Transaction-bound views share the
// session of their parent store and leave it open.
func (s *Store) Close() error {
	if s.txn != nil {
		return nil
	}
	return s.conn.Close()
}

// getExecutor returns the active executor (transaction if exists, otherwise the session)
func (s *Store) getExecutor() dbExecutor {
	if s.txn != nil {
		return s.txn
	}
	return s.conn
}

// RunInTransaction executes ops in order against a transaction-bound view of the store.
// The first failing op rolls the whole unit back and its error is returned unchanged.
func (s *Store) RunInTransaction(ctx context.Context, ops ...repository.TxOperation) error {
	return s.withinTransaction(ctx, "run in transaction", func(tx *Store) error {
		for _, op := range ops {
			if err := op(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
}

// withinTransaction runs fn in a new transaction, or in the current one when the store
// is already transaction-bound.
func (s *Store) withinTransaction(ctx context.Context, op string, fn func(tx *Store) error) (err error) {
	if s.txn != nil {
		return fn(s)
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return persistenceError(ctx, op, fmt.Errorf("failed to begin transaction: %w", err))
	}

	txStore := &Store{
		conn:       s.conn,
		txn:        tx,
		modifiedBy: s.modifiedBy,
		now:        s.now,
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to rollback transaction after panic", slog.String("op", op), slog.Any("err", rbErr))
			}
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.Error("failed to rollback transaction", slog.String("op", op), slog.Any("err", rbErr))
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return persistenceError(ctx, op, fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

func (s *Store) seedIfEmpty(ctx context.Context, products []*model.Product) (int, error) {
	var seeded int
	err := s.withinTransaction(ctx, "seed products", func(tx *Store) error {
		var count int
		if err := tx.getExecutor().GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
			return persistenceError(ctx, "seed products", fmt.Errorf("failed to count products: %w", err))
		}
		if count > 0 {
			return nil
		}
		for _, p := range products {
			if _, err := tx.Insert(ctx, p); err != nil {
				return err
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seeded, nil
}
