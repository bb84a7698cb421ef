package controllers

import (
	"net/http"

	"github.com/datallboy/gonzb-assembler/internal/app"
	"github.com/labstack/echo/v5"
)

type JobsController struct {
	App *app.Context
}

// List returns every live and finished job without file details.
func (ctrl *JobsController) List(c *echo.Context) error {
	jobs := ctrl.App.Queue.All()
	res := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		res = append(res, newJobResponse(job, false))
	}
	return c.JSON(http.StatusOK, res)
}

func (ctrl *JobsController) Get(c *echo.Context) error {
	job, ok := ctrl.App.Queue.Get(c.Request().Context(), c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
	}
	return c.JSON(http.StatusOK, newJobResponse(job, true))
}

// Delete flags a live job as deleted. Writers stop at the next article.
func (ctrl *JobsController) Delete(c *echo.Context) error {
	if !ctrl.App.Queue.Delete(c.Param("id")) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
	}
	return c.NoContent(http.StatusNoContent)
}
