package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Controller handles the operational HTTP endpoints.
type Controller struct {
	db Pinger
}

// New creates a new Controller checking the given database.
func New(db Pinger) *Controller {
	return &Controller{
		db: db,
	}
}

// Ping handles the HTTP GET request for liveness checks.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Health reports 200 when the database answers a ping and 503 otherwise.
func (con *Controller) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := con.db.PingContext(ctx); err != nil {
		slog.Error("Health check failed", slog.Any("err", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
	})
}
