package controllers

import (
	"net/http"

	"github.com/datallboy/gonzb-assembler/internal/app"
	"github.com/labstack/echo/v5"
)

type DownloaderController struct {
	App *app.Context
}

func (ctrl *DownloaderController) Status(c *echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Paused: ctrl.App.Gate.Paused()})
}

// Pause stops downloading. ?save=1 keeps it paused across restarts.
func (ctrl *DownloaderController) Pause(c *echo.Context) error {
	save := c.QueryParam("save") == "1" || c.QueryParam("save") == "true"
	ctrl.App.Gate.Pause(save)
	return ctrl.Status(c)
}

func (ctrl *DownloaderController) Resume(c *echo.Context) error {
	ctrl.App.Gate.Resume()
	return ctrl.Status(c)
}
