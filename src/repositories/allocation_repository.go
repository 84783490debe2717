package repositories

import (
	"context"
	"fmt"

	"assetfolio/src/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type allocationRepo struct {
	db DBTX
}

const allocationColumns = `id, portfolio_id, asset_type, asset_id, quantity`

func scanAllocation(row pgx.Row, a *models.Allocation) error {
	return row.Scan(&a.ID, &a.PortfolioID, &a.AssetType, &a.AssetID, &a.Quantity)
}

func (r *allocationRepo) queryAllocations(ctx context.Context, query string, args ...any) ([]models.Allocation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []models.Allocation
	for rows.Next() {
		var a models.Allocation
		if err := scanAllocation(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func (r *allocationRepo) List(ctx context.Context) ([]models.Allocation, error) {
	return r.queryAllocations(ctx, `SELECT `+allocationColumns+` FROM portfolio_assets ORDER BY id`)
}

func (r *allocationRepo) ListByPortfolio(ctx context.Context, portfolioID int) ([]models.Allocation, error) {
	return r.queryAllocations(ctx,
		`SELECT `+allocationColumns+` FROM portfolio_assets WHERE portfolio_id = $1 ORDER BY asset_type, asset_id`,
		portfolioID)
}

func (r *allocationRepo) GetByID(ctx context.Context, id int) (*models.Allocation, error) {
	var a models.Allocation
	err := scanAllocation(r.db.QueryRow(ctx, `SELECT `+allocationColumns+` FROM portfolio_assets WHERE id = $1`, id), &a)
	if err != nil {
		return nil, notFound(err, "failed to get allocation %d", id)
	}
	return &a, nil
}

func (r *allocationRepo) FindByPortfolioAsset(ctx context.Context, portfolioID int, assetType models.AssetType, assetID int) (*models.Allocation, error) {
	var a models.Allocation
	err := scanAllocation(r.db.QueryRow(ctx, `
		SELECT `+allocationColumns+`
		FROM portfolio_assets
		WHERE portfolio_id = $1 AND asset_type = $2 AND asset_id = $3`,
		portfolioID, assetType, assetID), &a)
	if err != nil {
		return nil, notFound(err, "failed to find allocation of portfolio %d", portfolioID)
	}
	return &a, nil
}

func (r *allocationRepo) SumQuantity(ctx context.Context, assetType models.AssetType, assetID int, excludeID int) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM portfolio_assets
		WHERE asset_type = $1 AND asset_id = $2 AND id <> $3`,
		assetType, assetID, excludeID,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum allocations of %s %d: %w", assetType, assetID, err)
	}
	return total, nil
}

func (r *allocationRepo) PortfolioNamesForAsset(ctx context.Context, assetType models.AssetType, assetID int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.name
		FROM portfolio_assets pa
		JOIN portfolios p ON pa.portfolio_id = p.id
		WHERE pa.asset_type = $1 AND pa.asset_id = $2
		ORDER BY p.name`,
		assetType, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios of %s %d: %w", assetType, assetID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *allocationRepo) Create(ctx context.Context, a *models.Allocation) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO portfolio_assets (portfolio_id, asset_type, asset_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.PortfolioID, a.AssetType, a.AssetID, a.Quantity,
	).Scan(&a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to insert allocation: %w", err)
	}
	return nil
}

func (r *allocationRepo) UpdateQuantity(ctx context.Context, id int, quantity decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE portfolio_assets SET quantity = $1 WHERE id = $2`, quantity, id)
	if err != nil {
		return fmt.Errorf("failed to update allocation %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *allocationRepo) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolio_assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete allocation %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *allocationRepo) DeleteByPortfolio(ctx context.Context, portfolioID int) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolio_assets WHERE portfolio_id = $1`, portfolioID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete allocations of portfolio %d: %w", portfolioID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *allocationRepo) DeleteByAsset(ctx context.Context, assetType models.AssetType, assetID int) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolio_assets WHERE asset_type = $1 AND asset_id = $2`, assetType, assetID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete allocations of %s %d: %w", assetType, assetID, err)
	}
	return tag.RowsAffected(), nil
}
