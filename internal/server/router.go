// Package server exposes the operational HTTP surface that runs alongside
// the chat poller: liveness and version endpoints for deployment probes.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Version is stamped at build time.
var Version = "dev"

var errMissingDatabase = errors.New("database dependency required")

// Dependencies wires the status handler.
type Dependencies struct {
	Database *gorm.DB
	Logger   *zap.Logger
}

// NewHTTPHandler builds the status router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Database == nil {
		return nil, errMissingDatabase
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{db: deps.Database, logger: logger}
	router.GET("/healthz", handler.handleHealth)
	router.GET("/version", handler.handleVersion)

	return router, nil
}

type httpHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": Version})
}
