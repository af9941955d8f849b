package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/playpoints/xo-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	echo   *echo.Echo
}

// New - builds the HTTP adapter over the engine. The transport only
// translates requests and error kinds; all rules live in the engine.
func New(logger *slog.Logger, uMatch usecase.MatchUseCase) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	h := newHandlers(uMatch)

	e.GET("/ping", h.Ping)

	api := e.Group("/api")
	api.POST("/challenges", h.CreateChallenge)
	api.POST("/challenges/:id/accept", h.AcceptChallenge)
	api.GET("/matches/:id", h.GetMatch)
	api.POST("/matches/:id/moves", h.SubmitMove)
	api.DELETE("/matches/:id", h.CancelMatch)
	api.POST("/matches/:id/ack", h.AcknowledgeMatch)
	api.GET("/balances/:id", h.GetBalance)
	api.POST("/balances/:id/adjust", h.AdjustBalance)

	return &Server{
		logger: logger.With("component", "rest"),
		echo:   e,
	}
}

// Start - serves until the context is cancelled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := that.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	that.logger.Info("HTTP server stopped")

	return nil
}
