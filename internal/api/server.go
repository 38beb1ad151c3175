// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moonforge/launchpad/internal/storage/models"
	"github.com/moonforge/launchpad/internal/token"
	"github.com/moonforge/launchpad/internal/trade"
)

// TokenService is the token registry surface the API exposes.
type TokenService interface {
	Launch(ctx context.Context, req token.LaunchRequest) (*models.Token, error)
	Get(ctx context.Context, mint string) (*models.Token, error)
	List(ctx context.Context, limit, offset int) ([]*models.Token, error)
}

// TradeService executes curve trades on behalf of API callers.
type TradeService interface {
	ExecuteBuy(ctx context.Context, req trade.BuyRequest) (*trade.Result, error)
	ExecuteSell(ctx context.Context, req trade.SellRequest) (*trade.Result, error)
}

// Server is the platform's HTTP surface: token cards, quotes, trades.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	tokens TokenService
	trades TradeService
	logger *zap.Logger
}

func NewServer(addr string, tokens TokenService, trades TradeService, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		tokens: tokens,
		trades: trades,
		logger: logger.Named("api"),
	}
	s.engine.Use(requestLogger(s.logger), recovery(s.logger))
	s.registerRoutes()

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	{
		api.GET("/tokens", s.handleListTokens)
		api.GET("/tokens/:mint", s.handleGetToken)
		api.GET("/tokens/:mint/quote/buy", s.handleQuoteBuy)
		api.GET("/tokens/:mint/quote/sell", s.handleQuoteSell)
		api.POST("/tokens", s.handleLaunchToken)
		api.POST("/trades", s.handleCreateTrade)
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
