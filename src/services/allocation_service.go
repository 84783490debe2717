package services

import (
	"context"
	"errors"
	"strings"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"
	"assetfolio/src/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AllocationServiceI interface {
	ListAllocations(ctx context.Context, portfolioID *int) ([]models.Allocation, error)
	AddAllocation(ctx context.Context, req *schemas.CreateAllocationRequest) (*models.Allocation, error)
	UpdateAllocation(ctx context.Context, id int, req *schemas.UpdateAllocationRequest) (*models.Allocation, error)
	ReleaseAllocation(ctx context.Context, id int) (*models.Allocation, error)
	ReleaseHoldingAllocations(ctx context.Context, assetType models.AssetType, assetID int) (*schemas.ReleaseHoldingResponse, error)
	Availability(ctx context.Context, assetType models.AssetType, assetID int) (*schemas.AvailabilityResponse, error)
	AvailabilityForTicker(ctx context.Context, ticker string) (*schemas.AvailabilityResponse, error)
}

// AllocationService enforces that the allocations against a holding never add
// up to more than the holding owns.
type AllocationService struct {
	store   repositories.Store
	reports ReportCache
}

// NewAllocationService drops cached reports from reports, when set, after every committed change.
func NewAllocationService(store repositories.Store, reports ReportCache) *AllocationService {
	return &AllocationService{store: store, reports: reports}
}

func (s *AllocationService) ListAllocations(ctx context.Context, portfolioID *int) ([]models.Allocation, error) {
	if portfolioID == nil {
		return s.store.Allocations().List(ctx)
	}
	if _, err := s.store.Portfolios().GetByID(ctx, *portfolioID); err != nil {
		return nil, translateNotFound(err, "portfolio", *portfolioID)
	}
	return s.store.Allocations().ListByPortfolio(ctx, *portfolioID)
}

type allocationInput struct {
	portfolioID int
	assetType   models.AssetType
	assetID     int
	quantity    decimal.Decimal
}

func validateAllocation(req *schemas.CreateAllocationRequest) (*allocationInput, error) {
	if req == nil {
		return nil, invalidArgument("request body is required")
	}
	var missing []string
	if req.PortfolioID == nil {
		missing = append(missing, "portfolio_id")
	}
	if req.AssetType == "" {
		missing = append(missing, "asset_type")
	}
	if req.AssetID == nil {
		missing = append(missing, "asset_id")
	}
	if req.Quantity == nil {
		missing = append(missing, "quantity")
	}
	if len(missing) > 0 {
		return nil, invalidArgument("missing required fields: %s", strings.Join(missing, ", "))
	}

	assetType := models.AssetType(req.AssetType)
	if !assetType.Valid() {
		return nil, invalidArgument("asset_type must be one of cash, stock")
	}
	if err := validateAmount("quantity", *req.Quantity); err != nil {
		return nil, err
	}
	return &allocationInput{
		portfolioID: *req.PortfolioID,
		assetType:   assetType,
		assetID:     *req.AssetID,
		quantity:    *req.Quantity,
	}, nil
}


// checkCapacity locks the holding and verifies that usedElsewhere + requested
// fits in what it owns. excludeID skips the allocation being rewritten.
func checkCapacity(ctx context.Context, tx repositories.Repos, assetType models.AssetType, assetID, excludeID int, requested decimal.Decimal) error {
	pool, err := repositories.Pool(tx, assetType)
	if err != nil {
		return invalidArgument("%v", err)
	}
	total, err := pool.LockQuantity(ctx, assetID)
	if err != nil {
		return translateNotFound(err, string(assetType)+" holding", assetID)
	}
	used, err := tx.Allocations().SumQuantity(ctx, assetType, assetID, excludeID)
	if err != nil {
		return err
	}
	if used.Add(requested).GreaterThan(total) {
		return newCapacityError(total, used, requested)
	}
	return nil
}

// AddAllocation claims quantity of a holding for a portfolio. A portfolio has at
// most one allocation per holding, so a repeat claim is added onto the existing row.
func (s *AllocationService) AddAllocation(ctx context.Context, req *schemas.CreateAllocationRequest) (*models.Allocation, error) {
	in, err := validateAllocation(req)
	if err != nil {
		return nil, err
	}

	var result *models.Allocation
	merged := false
	err = s.store.InTx(ctx, func(tx repositories.Repos) error {
		// Locked before the holding, in the same order as the portfolio delete cascades.
		if _, err := tx.Portfolios().LockByID(ctx, in.portfolioID); err != nil {
			return translateNotFound(err, "portfolio", in.portfolioID)
		}
		if err := checkCapacity(ctx, tx, in.assetType, in.assetID, 0, in.quantity); err != nil {
			return err
		}

		existing, err := tx.Allocations().FindByPortfolioAsset(ctx, in.portfolioID, in.assetType, in.assetID)
		switch {
		case err == nil:
			existing.Quantity = existing.Quantity.Add(in.quantity)
			if err := tx.Allocations().UpdateQuantity(ctx, existing.ID, existing.Quantity); err != nil {
				return err
			}
			result, merged = existing, true
			return nil
		case !errors.Is(err, repositories.ErrNotFound):
			return err
		}

		alloc := &models.Allocation{
			PortfolioID: in.portfolioID,
			AssetType:   in.assetType,
			AssetID:     in.assetID,
			Quantity:    in.quantity,
		}
		if err := tx.Allocations().Create(ctx, alloc); err != nil {
			return translateNotFound(err, "portfolio", in.portfolioID)
		}
		result = alloc
		return nil
	})
	if err != nil {
		logRejection(ctx, err, "Allocation rejected")
		return nil, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"allocation_id": result.ID,
		"portfolio_id":  result.PortfolioID,
		"asset_type":    result.AssetType,
		"asset_id":      result.AssetID,
		"quantity":      result.Quantity.String(),
		"merged":        merged,
	}).Info("Allocation saved")
	return result, nil
}

// UpdateAllocation overwrites the quantity of an allocation. The holding it
// points at never changes.
func (s *AllocationService) UpdateAllocation(ctx context.Context, id int, req *schemas.UpdateAllocationRequest) (*models.Allocation, error) {
	if req == nil || req.Quantity == nil {
		return nil, invalidArgument("quantity is required")
	}
	quantity := *req.Quantity
	if err := validateAmount("quantity", quantity); err != nil {
		return nil, err
	}

	var result *models.Allocation
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		alloc, err := tx.Allocations().GetByID(ctx, id)
		if err != nil {
			return translateNotFound(err, "allocation", id)
		}
		if err := checkCapacity(ctx, tx, alloc.AssetType, alloc.AssetID, alloc.ID, quantity); err != nil {
			return err
		}
		if err := tx.Allocations().UpdateQuantity(ctx, alloc.ID, quantity); err != nil {
			return translateNotFound(err, "allocation", id)
		}
		alloc.Quantity = quantity
		result = alloc
		return nil
	})
	if err != nil {
		logRejection(ctx, err, "Allocation update rejected")
		return nil, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"allocation_id": result.ID,
		"quantity":      result.Quantity.String(),
	}).Info("Allocation updated")
	return result, nil
}

// ReleaseAllocation deletes an allocation. The holding keeps its owned quantity,
// so the released amount becomes available to other portfolios.
func (s *AllocationService) ReleaseAllocation(ctx context.Context, id int) (*models.Allocation, error) {
	var released *models.Allocation
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		alloc, err := tx.Allocations().GetByID(ctx, id)
		if err != nil {
			return translateNotFound(err, "allocation", id)
		}
		if err := tx.Allocations().Delete(ctx, id); err != nil {
			return translateNotFound(err, "allocation", id)
		}
		released = alloc
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"allocation_id": released.ID,
		"portfolio_id":  released.PortfolioID,
		"quantity":      released.Quantity.String(),
	}).Info("Allocation released")
	return released, nil
}

// ReleaseHoldingAllocations drops every claim on a holding that is being
// retired. Owned quantity is left as is.
func (s *AllocationService) ReleaseHoldingAllocations(ctx context.Context, assetType models.AssetType, assetID int) (*schemas.ReleaseHoldingResponse, error) {
	if !assetType.Valid() {
		return nil, invalidArgument("asset_type must be one of cash, stock")
	}

	res := &schemas.ReleaseHoldingResponse{}
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		pool, err := repositories.Pool(tx, assetType)
		if err != nil {
			return err
		}
		if _, err := pool.LockQuantity(ctx, assetID); err != nil {
			return translateNotFound(err, string(assetType)+" holding", assetID)
		}
		total, err := tx.Allocations().SumQuantity(ctx, assetType, assetID, 0)
		if err != nil {
			return err
		}
		n, err := tx.Allocations().DeleteByAsset(ctx, assetType, assetID)
		if err != nil {
			return err
		}
		res.ReleasedAllocations = int(n)
		res.ReleasedQuantity = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateReports(ctx, s.reports)
	res.Message = "Allocations released"
	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"asset_type":  assetType,
		"asset_id":    assetID,
		"allocations": res.ReleasedAllocations,
	}).Info("Holding allocations released")
	return res, nil
}

// Availability is an unlocked read, callers still go through AddAllocation or
// UpdateAllocation for the authoritative check.
func (s *AllocationService) Availability(ctx context.Context, assetType models.AssetType, assetID int) (*schemas.AvailabilityResponse, error) {
	if !assetType.Valid() {
		return nil, invalidArgument("asset_type must be one of cash, stock")
	}
	pool, err := repositories.Pool(s.store, assetType)
	if err != nil {
		return nil, err
	}
	total, err := pool.LockQuantity(ctx, assetID)
	if err != nil {
		return nil, translateNotFound(err, string(assetType)+" holding", assetID)
	}
	used, err := s.store.Allocations().SumQuantity(ctx, assetType, assetID, 0)
	if err != nil {
		return nil, err
	}
	return &schemas.AvailabilityResponse{
		AssetType:  assetType,
		AssetID:    assetID,
		TotalOwned: total,
		Allocated:  used,
		Available:  total.Sub(used),
	}, nil
}

// AvailabilityForTicker adds up availability over every lot of a ticker.
func (s *AllocationService) AvailabilityForTicker(ctx context.Context, ticker string) (*schemas.AvailabilityResponse, error) {
	ticker = normalizeTicker(ticker)
	if ticker == "" {
		return nil, invalidArgument("ticker is required")
	}
	lots, err := s.store.Stocks().ListByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return nil, notFound("no stock holdings for ticker %s", ticker)
	}

	res := &schemas.AvailabilityResponse{Ticker: ticker, TotalOwned: decimal.Zero, Allocated: decimal.Zero}
	for _, lot := range lots {
		used, err := s.store.Allocations().SumQuantity(ctx, models.AssetTypeStock, lot.ID, 0)
		if err != nil {
			return nil, err
		}
		res.TotalOwned = res.TotalOwned.Add(lot.Quantity)
		res.Allocated = res.Allocated.Add(used)
	}
	res.Available = res.TotalOwned.Sub(res.Allocated)
	return res, nil
}

// logRejection logs business rejections at warn. Other errors are logged by the handler.
func logRejection(ctx context.Context, err error, msg string) {
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
			"total_owned":    capErr.TotalOwned.String(),
			"used_elsewhere": capErr.UsedElsewhere.String(),
			"requested":      capErr.Requested.String(),
		}).Warn(msg)
		return
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrConflict) {
		utils.LoggerFromContext(ctx).WithError(err).Warn(msg)
	}
}
