package repositories

import (
	"context"
	"errors"
	"time"

	"assetfolio/src/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// PoolRepository is the part of a holdings table that carries an owned quantity.
// For cash the quantity is cash_amount, for stock it is the number of shares.
type PoolRepository interface {
	// LockQuantity returns the owned quantity and, inside a transaction, locks the row
	// until commit so concurrent allocations against the same holding serialize.
	LockQuantity(ctx context.Context, id int) (decimal.Decimal, error)
	AddQuantity(ctx context.Context, id int, delta decimal.Decimal) error
	Delete(ctx context.Context, id int) error
}

type CashRepository interface {
	PoolRepository
	List(ctx context.Context) ([]models.CashHolding, error)
	GetByID(ctx context.Context, id int) (*models.CashHolding, error)
	// GetByBank matches bank names case-insensitively.
	GetByBank(ctx context.Context, bankName string) (*models.CashHolding, error)
	// Create returns ErrDuplicate when the bank already has a cash holding.
	Create(ctx context.Context, h *models.CashHolding) error
	Update(ctx context.Context, h *models.CashHolding) error
}

type StockRepository interface {
	PoolRepository
	List(ctx context.Context) ([]models.StockHolding, error)
	ListByTicker(ctx context.Context, ticker string) ([]models.StockHolding, error)
	GetByID(ctx context.Context, id int) (*models.StockHolding, error)
	Create(ctx context.Context, h *models.StockHolding) error
	Update(ctx context.Context, h *models.StockHolding) error
	SetCurrentPrice(ctx context.Context, id int, price decimal.Decimal) error
}

type AllocationRepository interface {
	List(ctx context.Context) ([]models.Allocation, error)
	ListByPortfolio(ctx context.Context, portfolioID int) ([]models.Allocation, error)
	GetByID(ctx context.Context, id int) (*models.Allocation, error)
	FindByPortfolioAsset(ctx context.Context, portfolioID int, assetType models.AssetType, assetID int) (*models.Allocation, error)
	// SumQuantity totals every claim on a holding, skipping excludeID (0 skips nothing).
	SumQuantity(ctx context.Context, assetType models.AssetType, assetID int, excludeID int) (decimal.Decimal, error)
	PortfolioNamesForAsset(ctx context.Context, assetType models.AssetType, assetID int) ([]string, error)
	Create(ctx context.Context, a *models.Allocation) error
	UpdateQuantity(ctx context.Context, id int, quantity decimal.Decimal) error
	Delete(ctx context.Context, id int) error
	DeleteByPortfolio(ctx context.Context, portfolioID int) (int64, error)
	DeleteByAsset(ctx context.Context, assetType models.AssetType, assetID int) (int64, error)
}

type PortfolioRepository interface {
	List(ctx context.Context) ([]models.Portfolio, error)
	GetByID(ctx context.Context, id int) (*models.Portfolio, error)
	// LockByID reads the portfolio and, inside a transaction, locks the row until
	// commit so allocation writes and deletes of the same portfolio serialize.
	LockByID(ctx context.Context, id int) (*models.Portfolio, error)
	Create(ctx context.Context, p *models.Portfolio) error
	Rename(ctx context.Context, id int, name string) error
	Delete(ctx context.Context, id int) error
}

type StockHistoryRepository interface {
	Upsert(ctx context.Context, stockID int, date time.Time, price decimal.Decimal) error
	ListByStock(ctx context.Context, stockID int, since time.Time) ([]models.StockPrice, error)
	DeleteByStock(ctx context.Context, stockID int) error
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Cash() CashRepository
	Stocks() StockRepository
	Allocations() AllocationRepository
	Portfolios() PortfolioRepository
	History() StockHistoryRepository
}

// Store is the relational store. Reads through the embedded Repos run outside any
// transaction; InTx runs fn inside one and commits only if fn returns nil.
type Store interface {
	Repos
	InTx(ctx context.Context, fn func(tx Repos) error) error
	Close()
}

// Pool returns the holdings table that backs assetType.
func Pool(r Repos, assetType models.AssetType) (PoolRepository, error) {
	switch assetType {
	case models.AssetTypeCash:
		return r.Cash(), nil
	case models.AssetTypeStock:
		return r.Stocks(), nil
	}
	return nil, errors.New("unknown asset type " + string(assetType))
}
