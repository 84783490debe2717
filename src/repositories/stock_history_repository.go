package repositories

import (
	"context"
	"fmt"
	"time"

	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

type stockHistoryRepo struct {
	db DBTX
}

func (r *stockHistoryRepo) Upsert(ctx context.Context, stockID int, date time.Time, price decimal.Decimal) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO stock_history (stock_id, record_date, current_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (stock_id, record_date) DO UPDATE SET
			current_price = EXCLUDED.current_price`,
		stockID, date, price)
	if err != nil {
		return fmt.Errorf("failed to record price of stock %d: %w", stockID, err)
	}
	return nil
}

func (r *stockHistoryRepo) ListByStock(ctx context.Context, stockID int, since time.Time) ([]models.StockPrice, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, stock_id, record_date, current_price
		FROM stock_history
		WHERE stock_id = $1 AND record_date >= $2
		ORDER BY record_date ASC`,
		stockID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history of stock %d: %w", stockID, err)
	}
	defer rows.Close()

	var prices []models.StockPrice
	for rows.Next() {
		var p models.StockPrice
		if err := rows.Scan(&p.ID, &p.StockID, &p.RecordDate, &p.CurrentPrice); err != nil {
			return nil, fmt.Errorf("failed to scan stock price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

func (r *stockHistoryRepo) DeleteByStock(ctx context.Context, stockID int) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM stock_history WHERE stock_id = $1`, stockID); err != nil {
		return fmt.Errorf("failed to delete history of stock %d: %w", stockID, err)
	}
	return nil
}
