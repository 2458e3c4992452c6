package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/product-catalog/internal/http/controller"
	"github.com/iyhunko/product-catalog/internal/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter registers the operational endpoints: liveness, database health and metrics.
func InitRouter(server *gin.Engine, ctr *controller.Controller) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.Logger())

	server.GET("/ping", ctr.Ping)
	server.GET("/healthz", ctr.Health)
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return server
}
