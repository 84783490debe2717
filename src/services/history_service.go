package services

import (
	"context"
	"time"

	"assetfolio/src/models"
	"assetfolio/src/repositories"
	"assetfolio/src/schemas"
	"assetfolio/src/utils"

	"github.com/sirupsen/logrus"
)

type HistoryServiceI interface {
	RecordPrice(ctx context.Context, stockID int, req *schemas.RecordPriceRequest) (*models.StockHolding, error)
	SnapshotPrices(ctx context.Context) (int, error)
}

// HistoryService keeps the daily price series of each stock lot.
type HistoryService struct {
	store   repositories.Store
	reports ReportCache
	now     func() time.Time
}

func NewHistoryService(store repositories.Store, reports ReportCache) *HistoryService {
	return &HistoryService{store: store, reports: reports, now: time.Now}
}

func (s *HistoryService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordPrice stores a price point for the lot. A point dated today or later
// also becomes the lot's current price.
func (s *HistoryService) RecordPrice(ctx context.Context, stockID int, req *schemas.RecordPriceRequest) (*models.StockHolding, error) {
	if req == nil || req.Price == nil {
		return nil, invalidArgument("price is required")
	}
	if err := validateAmount("price", *req.Price); err != nil {
		return nil, err
	}
	date := s.today()
	if req.Date != nil {
		date = req.Date.ToTime()
	}

	var stock *models.StockHolding
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		h, err := tx.Stocks().GetByID(ctx, stockID)
		if err != nil {
			return translateNotFound(err, "stock holding", stockID)
		}
		if !date.Before(s.today()) {
			if err := tx.Stocks().SetCurrentPrice(ctx, stockID, *req.Price); err != nil {
				return err
			}
			h.CurrentPrice = *req.Price
		}
		if err := tx.History().Upsert(ctx, stockID, date, *req.Price); err != nil {
			return err
		}
		stock = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateReports(ctx, s.reports)

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"stock_id": stockID,
		"date":     date.Format(schemas.DateLayout),
		"price":    req.Price.String(),
	}).Info("Stock price recorded")
	return stock, nil
}

// SnapshotPrices writes today's history row for every lot from its current price.
func (s *HistoryService) SnapshotPrices(ctx context.Context) (int, error) {
	date := s.today()
	count := 0
	err := s.store.InTx(ctx, func(tx repositories.Repos) error {
		count = 0
		stocks, err := tx.Stocks().List(ctx)
		if err != nil {
			return err
		}
		for _, h := range stocks {
			if err := tx.History().Upsert(ctx, h.ID, date, h.CurrentPrice); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	utils.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"date":   date.Format(schemas.DateLayout),
		"stocks": count,
	}).Info("Stock price snapshot taken")
	return count, nil
}
