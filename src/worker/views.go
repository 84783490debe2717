package worker

import (
	"net/http"

	"assetfolio/src/api"
	"assetfolio/src/config"
	handlers "assetfolio/src/worker/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Logger  *logrus.Logger
}

func NewServer(h *handlers.Handler, logger *logrus.Logger) *Server {
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: h,
		Logger:  logger,
	}
	server.InitRoutes()
	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(api.RequestLogger(s.Logger))
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Route("/api/history", func(r chi.Router) {
		r.Post("/snapshot", s.Handler.SnapshotPrices)
	})
}

func NewHTTPServer(cfg config.ServiceConfig, server *Server) *http.Server {
	return api.NewHTTPServer(cfg, server)
}
