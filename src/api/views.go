package api

import (
	"net/http"

	handlers "assetfolio/src/api/handlers"
	"assetfolio/src/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Logger  *logrus.Logger
	Origins []string
}

func NewServer(h *handlers.Handler, logger *logrus.Logger, corsOrigins []string) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: h,
		Logger:  logger,
		Origins: corsOrigins,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	origins := s.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.RealIP)
	s.Router.Use(RequestLogger(s.Logger))
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	s.Router.Get("/alive", handlers.Healthcheck)

	s.Router.Route("/api/cash-assets", func(r chi.Router) {
		r.Get("/", s.Handler.GetAllCashAssets)
		r.Post("/", s.Handler.CreateCashAsset)
		r.Get("/{id}", s.Handler.GetCashAssetByID)
		r.Put("/{id}", s.Handler.UpdateCashAsset)
		r.Delete("/{id}", s.Handler.DeleteCashAsset)
	})

	s.Router.Route("/api/stock-assets", func(r chi.Router) {
		r.Get("/", s.Handler.GetAllStockAssets)
		r.Post("/", s.Handler.CreateStockAsset)
		r.Get("/{id}", s.Handler.GetStockAssetByID)
		r.Put("/{id}", s.Handler.UpdateStockAsset)
		r.Delete("/{id}", s.Handler.DeleteStockAsset)
		r.Post("/{id}/prices", s.Handler.RecordStockPrice)
	})

	s.Router.Route("/api/holdings/{assetType}/{id}", func(r chi.Router) {
		r.Delete("/", s.Handler.DeleteHolding)
		r.Get("/available", s.Handler.GetHoldingAvailability)
		r.Delete("/allocations", s.Handler.ReleaseHoldingAllocations)
	})

	s.Router.Get("/api/available-shares/{ticker}", s.Handler.GetAvailableShares)
	s.Router.Get("/api/stock-price", s.Handler.GetStockPrice)

	s.Router.Route("/api/allocations", func(r chi.Router) {
		r.Get("/", s.Handler.GetAllAllocations)
		r.Post("/", s.Handler.CreateAllocation)
		r.Put("/{id}", s.Handler.UpdateAllocation)
		r.Delete("/{id}", s.Handler.ReleaseAllocation)
	})

	s.Router.Route("/api/portfolios", func(r chi.Router) {
		r.Get("/", s.Handler.GetAllPortfolios)
		r.Post("/", s.Handler.CreatePortfolio)
		r.Put("/{id}", s.Handler.RenamePortfolio)
		r.Delete("/{id}", s.Handler.DeletePortfolio)
		r.Delete("/{id}/delete", s.Handler.DeletePortfolioReturnToPool)
		r.Get("/{id}/assets", s.Handler.GetPortfolioAssets)
		r.Get("/{id}/performance", s.Handler.GetPortfolioPerformance)
		r.Get("/{id}/breakdown", s.Handler.GetPortfolioBreakdown)
	})

	s.Router.Route("/api/reports", func(r chi.Router) {
		r.Get("/summary", s.Handler.GetSummary)
		r.Get("/bank-distribution", s.Handler.GetBankDistribution)
		r.Get("/stock-distribution", s.Handler.GetStockDistribution)
		r.Get("/stock-history/{id}", s.Handler.GetStockHistory)
		r.Get("/distribution.xlsx", s.Handler.GetDistributionFile)
	})
}

func NewHTTPServer(cfg config.ServiceConfig, server http.Handler) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Handler:      server,
	}
	return httpServer
}
