package api

import (
	"github.com/datallboy/gonzb-assembler/internal/api/controllers"
	"github.com/datallboy/gonzb-assembler/internal/app"
	"github.com/datallboy/gonzb-assembler/internal/metrics"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

func RegisterRoutes(e *echo.Echo, app *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			app.Logger.Debug("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	jobs := &controllers.JobsController{App: app}
	e.GET("/api/jobs", jobs.List)
	e.GET("/api/jobs/:id", jobs.Get)
	e.DELETE("/api/jobs/:id", jobs.Delete)

	dl := &controllers.DownloaderController{App: app}
	e.GET("/api/downloader", dl.Status)
	e.POST("/api/downloader/pause", dl.Pause)
	e.POST("/api/downloader/resume", dl.Resume)

	e.GET("/metrics", echo.WrapHandler(metrics.Handler(app.Gatherer)))
}
