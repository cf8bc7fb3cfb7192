package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"homeservices/pkg/logger"
	"homeservices/service"
)

const HeaderUserID = "X-User-ID"

type Handler struct {
	svc service.IServiceManager
	log logger.ILogger
}

func NewRouter(svc service.IServiceManager, log logger.ILogger) *gin.Engine {
	h := &Handler{svc: svc, log: log}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderUserID)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/slots", h.TimeSlots)
		api.GET("/services", h.ListServices)
		api.GET("/services/:id", h.GetService)

		authed := api.Group("", h.actorMiddleware())
		{
			authed.GET("/profile", h.GetProfile)
			authed.PUT("/profile", h.UpdateProfile)

			authed.POST("/services", h.CreateService)
			authed.PUT("/services/:id", h.UpdateService)
			authed.DELETE("/services/:id", h.DeleteService)

			authed.POST("/bookings", h.CreateBooking)
			authed.GET("/bookings", h.ListBookings)
			authed.GET("/bookings/:id", h.GetBooking)
			authed.POST("/bookings/:id/status", h.TransitionBooking)
			authed.POST("/bookings/:id/pay", h.PayBooking)
			authed.POST("/bookings/:id/confirm-payment", h.ConfirmPayment)
			authed.POST("/bookings/:id/paid", h.MarkPaid)

			authed.GET("/earnings", h.Earnings)
			authed.POST("/earnings/payout", h.RequestPayout)
		}
	}

	api.POST("/profiles", h.CreateProfile)

	return r
}

// RunServer serves handler on addr until ctx is cancelled.
func RunServer(ctx context.Context, addr string, handler http.Handler, log logger.ILogger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down http server", logger.Error(err))
		return err
	}
	return nil
}

func requestLogger(log logger.ILogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.FullPath()),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("request failed", fields...)
			return
		}
		log.Debug("request processed", fields...)
	}
}
