package services

import (
	"context"
	"errors"
	"strings"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"
	"assetfolio/src/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type PortfolioServiceI interface {
	ListPortfolios(ctx context.Context) ([]models.Portfolio, error)
	GetPortfolio(ctx context.Context, id int) (*models.Portfolio, error)
	CreatePortfolio(ctx context.Context, req *schemas.PortfolioRequest) (*models.Portfolio, error)
	RenamePortfolio(ctx context.Context, id int, req *schemas.PortfolioRequest) (*models.Portfolio, error)
	DeletePortfolio(ctx context.Context, id int) (int, error)
	DeletePortfolioReturnToPool(ctx context.Context, id int) (int, error)
	PortfolioAssets(ctx context.Context, id int) ([]schemas.PortfolioAssetResponse, error)
}

type PortfolioService struct {
	store   repositories.Store
	reports ReportCache
}

func NewPortfolioService(store repositories.Store, reports ReportCache) *PortfolioService {
	return &PortfolioService{store: store, reports: reports}
}

func portfolioName(req *schemas.PortfolioRequest) (string, error) {
	if req == nil {
		return "", invalidArgument("request body is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", invalidArgument("name is required")
	}
	return name, nil
}

// ListPortfolios returns the newest portfolios first.
func (s *PortfolioService) ListPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	return s.store.Portfolios().List(ctx)
}

func (s *PortfolioService) GetPortfolio(ctx context.Context, id int) (*models.Portfolio, error) {
	p, err := s.store.Portfolios().GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "portfolio", id)
	}
	return p, nil
}

func (s *PortfolioService) CreatePortfolio(ctx context.Context, req *schemas.PortfolioRequest) (*models.Portfolio, error) {
	name, err := portfolioName(req)
	if err != nil {
		return nil, err
	}
	p := &models.Portfolio{Name: name}
	if err := s.store.Portfolios().Create(ctx, p); err != nil {
		return nil, err
	}
	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{"portfolio_id": p.ID, "name": p.Name}).Info("Portfolio created")
	invalidateReports(ctx, s.reports)
	return p, nil
}

func (s *PortfolioService) RenamePortfolio(ctx context.Context, id int, req *schemas.PortfolioRequest) (*models.Portfolio, error) {
	name, err := portfolioName(req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Portfolios().Rename(ctx, id, name); err != nil {
		return nil, translateNotFound(err, "portfolio", id)
	}
	return s.GetPortfolio(ctx, id)
}

// DeletePortfolio removes the portfolio and its allocations. Holdings keep their
// owned quantity, so whatever the portfolio claimed becomes available again.
// It returns the number of allocations removed.
func (s *PortfolioService) DeletePortfolio(ctx context.Context, id int) (int, error) {
	var removed int64
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		if _, err := tx.Portfolios().LockByID(ctx, id); err != nil {
			return translateNotFound(err, "portfolio", id)
		}
		n, err := tx.Allocations().DeleteByPortfolio(ctx, id)
		if err != nil {
			return err
		}
		removed = n
		return translateNotFound(tx.Portfolios().Delete(ctx, id), "portfolio", id)
	})
	if err != nil {
		return 0, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id": id,
		"allocations":  removed,
	}).Info("Portfolio deleted")
	return int(removed), nil
}

// DeletePortfolioReturnToPool folds every allocation of the portfolio back into
// its holding, adding the allocated quantity to what the holding owns, and then
// removes the portfolio. It returns the number of allocations returned.
func (s *PortfolioService) DeletePortfolioReturnToPool(ctx context.Context, id int) (int, error) {
	returned := 0
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		returned = 0
		if _, err := tx.Portfolios().LockByID(ctx, id); err != nil {
			return translateNotFound(err, "portfolio", id)
		}
		// Ordered by (asset_type, asset_id) so concurrent cascades lock holdings in the same order.
		allocations, err := tx.Allocations().ListByPortfolio(ctx, id)
		if err != nil {
			return err
		}
		for _, a := range allocations {
			pool, err := repositories.Pool(tx, a.AssetType)
			if err != nil {
				return err
			}
			if err := pool.AddQuantity(ctx, a.AssetID, a.Quantity); err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
						"allocation_id": a.ID,
						"asset_type":    a.AssetType,
						"asset_id":      a.AssetID,
					}).Warn("Allocation points at a missing holding, nothing to return")
					continue
				}
				return err
			}
			returned++
		}
		if _, err := tx.Allocations().DeleteByPortfolio(ctx, id); err != nil {
			return err
		}
		return translateNotFound(tx.Portfolios().Delete(ctx, id), "portfolio", id)
	})
	if err != nil {
		return 0, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"portfolio_id": id,
		"returned":     returned,
	}).Info("Portfolio deleted with assets returned to holdings")
	return returned, nil
}

// PortfolioAssets lists the portfolio's allocations together with the holding
// each one claims. Holdings are loaded concurrently.
func (s *PortfolioService) PortfolioAssets(ctx context.Context, id int) ([]schemas.PortfolioAssetResponse, error) {
	if _, err := s.GetPortfolio(ctx, id); err != nil {
		return nil, err
	}
	allocations, err := s.store.Allocations().ListByPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}

	assets := make([]schemas.PortfolioAssetResponse, len(allocations))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range allocations {
		i, a := i, a
		assets[i] = schemas.PortfolioAssetResponse{
			ID:          a.ID,
			PortfolioID: a.PortfolioID,
			AssetType:   a.AssetType,
			AssetID:     a.AssetID,
			Quantity:    a.Quantity,
		}
		g.Go(func() error {
			switch a.AssetType {
			case models.AssetTypeCash:
				h, err := s.store.Cash().GetByID(gctx, a.AssetID)
				if err != nil {
					return skipMissing(err)
				}
				assets[i].Cash = schemas.NewCashHoldingResponse(h)
			case models.AssetTypeStock:
				h, err := s.store.Stocks().GetByID(gctx, a.AssetID)
				if err != nil {
					return skipMissing(err)
				}
				assets[i].Stock = schemas.NewStockHoldingResponse(h)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// skipMissing tolerates a holding removed between the allocation read and the holding read.
func skipMissing(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}
