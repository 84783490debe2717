package repositories

import (
	"context"
	"fmt"

	"assetfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type stockRepo struct {
	db      DBTX
	locking bool
}

const stockColumns = `id, ticker, COALESCE(name, ''), quantity, purchase_price, current_price, purchase_date, created_at`

func scanStock(row pgx.Row, h *models.StockHolding) error {
	return row.Scan(&h.ID, &h.Ticker, &h.Name, &h.Quantity, &h.PurchasePrice, &h.CurrentPrice, &h.PurchaseDate, &h.CreatedAt)
}

func (r *stockRepo) queryStocks(ctx context.Context, query string, args ...any) ([]models.StockHolding, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.StockHolding
	for rows.Next() {
		var h models.StockHolding
		if err := scanStock(rows, &h); err != nil {
			return nil, fmt.Errorf("failed to scan stock holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *stockRepo) List(ctx context.Context) ([]models.StockHolding, error) {
	return r.queryStocks(ctx, `SELECT `+stockColumns+` FROM stock_assets ORDER BY purchase_date DESC, id`)
}

func (r *stockRepo) ListByTicker(ctx context.Context, ticker string) ([]models.StockHolding, error) {
	return r.queryStocks(ctx, `SELECT `+stockColumns+` FROM stock_assets WHERE ticker = $1 ORDER BY id`, ticker)
}

func (r *stockRepo) GetByID(ctx context.Context, id int) (*models.StockHolding, error) {
	var h models.StockHolding
	err := scanStock(r.db.QueryRow(ctx, `SELECT `+stockColumns+` FROM stock_assets WHERE id = $1`, id), &h)
	if err != nil {
		return nil, notFound(err, "failed to get stock holding %d", id)
	}
	return &h, nil
}

func (r *stockRepo) Create(ctx context.Context, h *models.StockHolding) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO stock_assets (ticker, name, quantity, purchase_price, current_price, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		h.Ticker, h.Name, h.Quantity, h.PurchasePrice, h.CurrentPrice, h.PurchaseDate,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert stock holding: %w", err)
	}
	return nil
}

func (r *stockRepo) Update(ctx context.Context, h *models.StockHolding) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE stock_assets
		SET ticker = $1, name = $2, quantity = $3, purchase_price = $4, current_price = $5, purchase_date = $6
		WHERE id = $7`,
		h.Ticker, h.Name, h.Quantity, h.PurchasePrice, h.CurrentPrice, h.PurchaseDate, h.ID)
	if err != nil {
		return fmt.Errorf("failed to update stock holding %d: %w", h.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockRepo) SetCurrentPrice(ctx context.Context, id int, price decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE stock_assets SET current_price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("failed to set price of stock holding %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockRepo) LockQuantity(ctx context.Context, id int) (decimal.Decimal, error) {
	query := `SELECT quantity FROM stock_assets WHERE id = $1`
	if r.locking {
		query += ` FOR UPDATE`
	}
	var quantity decimal.Decimal
	if err := r.db.QueryRow(ctx, query, id).Scan(&quantity); err != nil {
		return decimal.Zero, notFound(err, "failed to read quantity of stock holding %d", id)
	}
	return quantity, nil
}

func (r *stockRepo) AddQuantity(ctx context.Context, id int, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE stock_assets SET quantity = quantity + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to credit stock holding %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *stockRepo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM stock_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock holding %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
