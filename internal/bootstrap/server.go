package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/leadbooking/api"
	"github.com/Domenick1991/leadbooking/config"
	"github.com/Domenick1991/leadbooking/internal/security"
	"github.com/Domenick1991/leadbooking/internal/service/booking"
	"github.com/Domenick1991/leadbooking/internal/service/lead"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Run wires the HTTP surface and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, csrf *security.CSRFManager, leadSvc lead.LeadUseCase, bookingSvc booking.BookingUseCase, log *zap.Logger) error {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	open := router.Group("/api")
	api.NewCSRFHandler(csrf).Register(open)

	// every state-changing route sits behind the CSRF gate
	protected := router.Group("/api")
	protected.Use(csrf.Middleware())
	api.NewLeadHandler(leadSvc).Register(protected)
	api.NewBookingHandler(bookingSvc).Register(protected)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
