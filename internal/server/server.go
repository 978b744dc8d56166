package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/middleware"
)

// Server はBFFのHTTPサーバー
type Server struct {
	e   *echo.Echo
	srv *http.Server
	log *zap.Logger
}

// New はミドルウェアとルートを組み立てる
func New(cfg config.Config, log *zap.Logger, sessions middleware.SessionOpener, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))

	// /health 以外はセッション付き
	g := e.Group("", middleware.Session(cfg, sessions))
	RegisterRoutes(e, g, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{e: e, srv: srv, log: log}
}

// Handler はテスト用
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start はブロックする。Shutdown 後は nil。
func (s *Server) Start() error {
	s.log.Info("HTTP listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
