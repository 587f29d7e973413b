package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"transferservice/internal/core/domain"
)

// BatchRunner runs one batch of records.
type BatchRunner interface {
	Run(ctx context.Context, records []*domain.Record) (*domain.BatchResult, error)
}

// API exposes the transfer endpoint.
type API struct {
	runner BatchRunner
	logger zerolog.Logger
}

// NewAPI creates a new API instance.
func NewAPI(runner BatchRunner, logger zerolog.Logger) *API {
	return &API{runner: runner, logger: logger}
}

// NewRouter returns a gin engine with the API routes and request logging.
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(api.logger))
	api.SetupRoutes(router)
	return router
}

// SetupRoutes configures all API routes.
func (a *API) SetupRoutes(router *gin.Engine) {
	router.POST("/transfer", a.transfer)
	router.GET("/health", a.healthCheck)
}

// transfer handles POST /transfer
func (a *API) transfer(c *gin.Context) {
	// Decoded without gin's binding: its validator cannot walk null elements.
	var records []*domain.Record
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unexpected data after the job array"})
		return
	}
	if records == nil {
		records = []*domain.Record{}
	}
	for i, rec := range records {
		if rec == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("record %d is null", i)})
			return
		}
	}

	result, err := a.runner.Run(c.Request.Context(), records)
	if err != nil {
		a.logger.Error().Err(err).Msg("batch aborted")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Status != domain.StatusSuccess {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result.Records)
}

// healthCheck handles GET /health
func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request handled")
	}
}
