package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgRepos struct {
	cash        *cashRepo
	stocks      *stockRepo
	allocations *allocationRepo
	portfolios  *portfolioRepo
	history     *stockHistoryRepo
}

func newPgRepos(db DBTX, locking bool) *pgRepos {
	return &pgRepos{
		cash:        &cashRepo{db: db, locking: locking},
		stocks:      &stockRepo{db: db, locking: locking},
		allocations: &allocationRepo{db: db},
		portfolios:  &portfolioRepo{db: db, locking: locking},
		history:     &stockHistoryRepo{db: db},
	}
}

func (r *pgRepos) Cash() CashRepository              { return r.cash }
func (r *pgRepos) Stocks() StockRepository           { return r.stocks }
func (r *pgRepos) Allocations() AllocationRepository { return r.allocations }
func (r *pgRepos) Portfolios() PortfolioRepository   { return r.portfolios }
func (r *pgRepos) History() StockHistoryRepository   { return r.history }

type PostgresStore struct {
	*pgRepos
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgRepos: newPgRepos(pool, false), pool: pool}
}

// InTx runs fn in a read-committed transaction. Holding rows read through
// LockQuantity and portfolio rows read through LockByID are taken FOR UPDATE,
// which is what serializes competing allocations and cascades.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Repos) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("failed to roll back: %w", rbErr))
			}
		}
	}()

	if err = fn(newPgRepos(tx, true)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// notFound turns pgx.ErrNoRows into ErrNotFound and wraps everything else.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
