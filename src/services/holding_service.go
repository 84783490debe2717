package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"
	"assetfolio/src/utils"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type HoldingServiceI interface {
	ListCash(ctx context.Context) ([]models.CashHolding, error)
	GetCash(ctx context.Context, id int) (*models.CashHolding, error)
	AddCash(ctx context.Context, req *schemas.CashHoldingRequest) (*models.CashHolding, bool, error)
	UpdateCash(ctx context.Context, id int, req *schemas.CashHoldingRequest) (*models.CashHolding, error)
	ListStocks(ctx context.Context) ([]models.StockHolding, error)
	GetStock(ctx context.Context, id int) (*models.StockHolding, error)
	AddStock(ctx context.Context, req *schemas.StockHoldingRequest) (*models.StockHolding, error)
	UpdateStock(ctx context.Context, id int, req *schemas.StockHoldingRequest) (*models.StockHolding, bool, error)
	DeleteHolding(ctx context.Context, assetType models.AssetType, id int) error
}

type HoldingService struct {
	store   repositories.Store
	reports ReportCache
	now     func() time.Time
}

func NewHoldingService(store repositories.Store, reports ReportCache) *HoldingService {
	return &HoldingService{store: store, reports: reports, now: time.Now}
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func (s *HoldingService) ListCash(ctx context.Context) ([]models.CashHolding, error) {
	return s.store.Cash().List(ctx)
}

func (s *HoldingService) GetCash(ctx context.Context, id int) (*models.CashHolding, error) {
	h, err := s.store.Cash().GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "cash holding", id)
	}
	return h, nil
}

func validateCash(req *schemas.CashHoldingRequest) (*models.CashHolding, error) {
	if req == nil {
		return nil, invalidArgument("request body is required")
	}
	bank := strings.TrimSpace(req.BankName)
	if bank == "" {
		return nil, invalidArgument("bank_name is required")
	}
	code := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if code == "" {
		return nil, invalidArgument("currency_code is required")
	}
	if money.GetCurrency(code) == nil {
		return nil, invalidArgument("unknown currency_code %q", req.CurrencyCode)
	}
	if req.CashAmount == nil {
		return nil, invalidArgument("cash_amount is required")
	}
	if err := validateAmount("cash_amount", *req.CashAmount); err != nil {
		return nil, err
	}
	return &models.CashHolding{
		BankName:     bank,
		CurrencyCode: code,
		CashAmount:   *req.CashAmount,
		Notes:        strings.TrimSpace(req.Notes),
	}, nil
}

// AddCash creates the cash holding for a bank, or returns the existing one
// unchanged when the bank already has one. The bool reports whether a row was inserted.
func (s *HoldingService) AddCash(ctx context.Context, req *schemas.CashHoldingRequest) (*models.CashHolding, bool, error) {
	h, err := validateCash(req)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.store.Cash().GetByBank(ctx, h.BankName)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, err
	}

	if err := s.store.Cash().Create(ctx, h); err != nil {
		if !errors.Is(err, repositories.ErrDuplicate) {
			return nil, false, err
		}
		// Lost a race with another insert for the same bank.
		existing, err := s.store.Cash().GetByBank(ctx, h.BankName)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"cash_id":   h.ID,
		"bank_name": h.BankName,
	}).Info("Cash holding created")
	invalidateReports(ctx, s.reports)
	return h, true, nil
}

// ensureAllocatedFits rejects an owned quantity below what portfolios already claim.
func ensureAllocatedFits(ctx context.Context, tx repositories.Repos, assetType models.AssetType, id int, owned decimal.Decimal) error {
	allocated, err := tx.Allocations().SumQuantity(ctx, assetType, id, 0)
	if err != nil {
		return err
	}
	if owned.LessThan(allocated) {
		return newShrinkError(allocated, owned)
	}
	return nil
}

func (s *HoldingService) UpdateCash(ctx context.Context, id int, req *schemas.CashHoldingRequest) (*models.CashHolding, error) {
	h, err := validateCash(req)
	if err != nil {
		return nil, err
	}
	h.ID = id

	err = s.store.InTx(ctx, func(tx repositories.Repos) error {
		if _, err := tx.Cash().LockQuantity(ctx, id); err != nil {
			return translateNotFound(err, "cash holding", id)
		}
		if err := ensureAllocatedFits(ctx, tx, models.AssetTypeCash, id, h.CashAmount); err != nil {
			return err
		}
		if err := tx.Cash().Update(ctx, h); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return invalidArgument("bank %q already has a cash holding", h.BankName)
			}
			return translateNotFound(err, "cash holding", id)
		}
		updated, err := tx.Cash().GetByID(ctx, id)
		if err != nil {
			return err
		}
		h = updated
		return nil
	})
	if err != nil {
		logRejection(ctx, err, "Cash holding update rejected")
		return nil, err
	}
	invalidateReports(ctx, s.reports)
	return h, nil
}

func (s *HoldingService) ListStocks(ctx context.Context) ([]models.StockHolding, error) {
	return s.store.Stocks().List(ctx)
}

func (s *HoldingService) GetStock(ctx context.Context, id int) (*models.StockHolding, error) {
	h, err := s.store.Stocks().GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "stock holding", id)
	}
	return h, nil
}

func (s *HoldingService) validateStock(req *schemas.StockHoldingRequest) (*models.StockHolding, error) {
	if req == nil {
		return nil, invalidArgument("request body is required")
	}
	ticker := normalizeTicker(req.Ticker)
	if ticker == "" {
		return nil, invalidArgument("ticker is required")
	}
	if req.Quantity == nil {
		return nil, invalidArgument("quantity is required")
	}
	if err := validateAmount("quantity", *req.Quantity); err != nil {
		return nil, err
	}
	if req.PurchasePrice == nil {
		return nil, invalidArgument("purchase_price is required")
	}
	if err := validateAmount("purchase_price", *req.PurchasePrice); err != nil {
		return nil, err
	}

	h := &models.StockHolding{
		Ticker:        ticker,
		Name:          strings.TrimSpace(req.Name),
		Quantity:      *req.Quantity,
		PurchasePrice: *req.PurchasePrice,
		CurrentPrice:  *req.PurchasePrice,
		PurchaseDate:  s.now().UTC(),
	}
	if req.CurrentPrice != nil {
		if err := validateAmount("current_price", *req.CurrentPrice); err != nil {
			return nil, err
		}
		h.CurrentPrice = *req.CurrentPrice
	}
	if req.PurchaseDate != nil {
		h.PurchaseDate = req.PurchaseDate.ToTime()
	}
	return h, nil
}

// AddStock records a purchase lot. Lots of the same ticker are kept apart.
func (s *HoldingService) AddStock(ctx context.Context, req *schemas.StockHoldingRequest) (*models.StockHolding, error) {
	h, err := s.validateStock(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Stocks().Create(ctx, h); err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"stock_id": h.ID,
		"ticker":   h.Ticker,
		"quantity": h.Quantity.String(),
	}).Info("Stock holding created")
	invalidateReports(ctx, s.reports)
	return h, nil
}

// UpdateStock edits a lot. Setting the quantity to zero sells the lot out and
// removes it, which is refused while portfolios still claim it. The bool
// reports whether the lot was removed.
func (s *HoldingService) UpdateStock(ctx context.Context, id int, req *schemas.StockHoldingRequest) (*models.StockHolding, bool, error) {
	h, err := s.validateStock(req)
	if err != nil {
		return nil, false, err
	}
	h.ID = id

	removed := false
	err = s.store.InTx(ctx, func(tx repositories.Repos) error {
		if _, err := tx.Stocks().LockQuantity(ctx, id); err != nil {
			return translateNotFound(err, "stock holding", id)
		}
		if h.Quantity.IsZero() {
			removed = true
			return deleteHolding(ctx, tx, models.AssetTypeStock, id)
		}
		current, err := tx.Stocks().GetByID(ctx, id)
		if err != nil {
			return translateNotFound(err, "stock holding", id)
		}
		if req.CurrentPrice == nil {
			h.CurrentPrice = current.CurrentPrice
		}
		if req.PurchaseDate == nil {
			h.PurchaseDate = current.PurchaseDate
		}
		if err := ensureAllocatedFits(ctx, tx, models.AssetTypeStock, id, h.Quantity); err != nil {
			return err
		}
		if err := tx.Stocks().Update(ctx, h); err != nil {
			return translateNotFound(err, "stock holding", id)
		}
		h.CreatedAt = current.CreatedAt
		return nil
	})
	if err != nil {
		logRejection(ctx, err, "Stock holding update rejected")
		return nil, false, err
	}
	invalidateReports(ctx, s.reports)
	if removed {
		utils.LoggerFromContext(ctx).WithField("stock_id", id).Info("Stock holding sold out and removed")
		return nil, true, nil
	}
	return h, false, nil
}

// DeleteHolding removes a holding that no portfolio claims. When claims exist it
// fails with a ConflictError naming the portfolios.
func (s *HoldingService) DeleteHolding(ctx context.Context, assetType models.AssetType, id int) error {
	if !assetType.Valid() {
		return invalidArgument("asset_type must be one of cash, stock")
	}
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		return deleteHolding(ctx, tx, assetType, id)
	})
	if err != nil {
		logRejection(ctx, err, "Holding delete rejected")
		return err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"asset_type": assetType,
		"asset_id":   id,
	}).Info("Holding deleted")
	return nil
}

func deleteHolding(ctx context.Context, tx repositories.Repos, assetType models.AssetType, id int) error {
	pool, err := repositories.Pool(tx, assetType)
	if err != nil {
		return err
	}
	if _, err := pool.LockQuantity(ctx, id); err != nil {
		return translateNotFound(err, string(assetType)+" holding", id)
	}
	names, err := tx.Allocations().PortfolioNamesForAsset(ctx, assetType, id)
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return &ConflictError{Portfolios: names}
	}
	if assetType == models.AssetTypeStock {
		if err := tx.History().DeleteByStock(ctx, id); err != nil {
			return err
		}
	}
	return translateNotFound(pool.Delete(ctx, id), string(assetType)+" holding", id)
}
