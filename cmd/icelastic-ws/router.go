package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

const metricsPath = "/metrics"

func (svc *serviceContext) newRouter() *gin.Engine {
	router := gin.Default()

	router.Use(gzip.Gzip(gzip.DefaultCompression))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddExposeHeaders(requestIDHeader)
	router.Use(cors.New(corsCfg))

	if svc.instrumented {
		p := ginprometheus.NewPrometheus("gin")
		p.MetricsPath = metricsPath
		router.Use(p.HandlerFunc())
	}

	// served directly so the gzip middleware does not compress twice
	h := promhttp.InstrumentMetricHandler(svc.registerer, promhttp.HandlerFor(svc.gatherer, promhttp.HandlerOpts{DisableCompression: true}))

	router.GET(metricsPath, func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	})

	pprof.Register(router)

	router.GET("/favicon.ico", svc.ignoreHandler)

	router.GET("/version", svc.versionHandler)
	router.GET("/healthcheck", svc.healthCheckHandler)

	router.GET("/", svc.searchHandler)
	if api := router.Group("/api"); api != nil {
		api.GET("/search", svc.searchHandler)
	}

	router.NoRoute(svc.notFoundHandler)

	return router
}
