package repositories

import (
	"context"
	"errors"
	"fmt"

	"assetfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type cashRepo struct {
	db      DBTX
	locking bool
}

const cashColumns = `id, bank_name, currency_code, cash_amount, COALESCE(notes, ''), created_at`

func scanCash(row pgx.Row, h *models.CashHolding) error {
	return row.Scan(&h.ID, &h.BankName, &h.CurrencyCode, &h.CashAmount, &h.Notes, &h.CreatedAt)
}

func (r *cashRepo) List(ctx context.Context) ([]models.CashHolding, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cashColumns+` FROM cash_assets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.CashHolding
	for rows.Next() {
		var h models.CashHolding
		if err := scanCash(rows, &h); err != nil {
			return nil, fmt.Errorf("failed to scan cash holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *cashRepo) GetByID(ctx context.Context, id int) (*models.CashHolding, error) {
	var h models.CashHolding
	err := scanCash(r.db.QueryRow(ctx, `SELECT `+cashColumns+` FROM cash_assets WHERE id = $1`, id), &h)
	if err != nil {
		return nil, notFound(err, "failed to get cash holding %d", id)
	}
	return &h, nil
}

func (r *cashRepo) GetByBank(ctx context.Context, bankName string) (*models.CashHolding, error) {
	var h models.CashHolding
	err := scanCash(r.db.QueryRow(ctx, `SELECT `+cashColumns+` FROM cash_assets WHERE lower(bank_name) = lower($1)`, bankName), &h)
	if err != nil {
		return nil, notFound(err, "failed to get cash holding for bank %q", bankName)
	}
	return &h, nil
}

func (r *cashRepo) Create(ctx context.Context, h *models.CashHolding) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO cash_assets (bank_name, currency_code, cash_amount, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((lower(bank_name))) DO NOTHING
		RETURNING id, created_at`,
		h.BankName, h.CurrencyCode, h.CashAmount, h.Notes,
	).Scan(&h.ID, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert cash holding: %w", err)
	}
	return nil
}

func (r *cashRepo) Update(ctx context.Context, h *models.CashHolding) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE cash_assets
		SET bank_name = $1, currency_code = $2, cash_amount = $3, notes = $4
		WHERE id = $5`,
		h.BankName, h.CurrencyCode, h.CashAmount, h.Notes, h.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update cash holding %d: %w", h.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cashRepo) LockQuantity(ctx context.Context, id int) (decimal.Decimal, error) {
	query := `SELECT cash_amount FROM cash_assets WHERE id = $1`
	if r.locking {
		query += ` FOR UPDATE`
	}
	var amount decimal.Decimal
	if err := r.db.QueryRow(ctx, query, id).Scan(&amount); err != nil {
		return decimal.Zero, notFound(err, "failed to read cash amount of %d", id)
	}
	return amount, nil
}

func (r *cashRepo) AddQuantity(ctx context.Context, id int, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE cash_assets SET cash_amount = cash_amount + $1 WHERE id = $2`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to credit cash holding %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cashRepo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cash_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cash holding %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
