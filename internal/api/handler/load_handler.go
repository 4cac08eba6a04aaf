package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

type LoadHandler struct {
	service ports.LoadService
}

func NewLoadHandler(service ports.LoadService) *LoadHandler {
	return &LoadHandler{service: service}
}

// Save handles POST /api/loads/save. The body is stored as-is; numeric
// revenue, profit and profitMargin fields feed the caller's aggregates.
//
// @Summary      Save a load
// @Tags         loads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      object  true  "Load payload"
// @Success      200   {object}  saveLoadResponse
// @Failure      400   {object}  apiError
// @Failure      403   {object}  apiError
// @Router       /api/loads/save [post]
func (h *LoadHandler) Save(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	payload := map[string]any{}
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	res, err := h.service.SaveLoad(c.Request().Context(), email, payload)
	switch {
	case errors.Is(err, domain.ErrSubscriptionRequired):
		metrics.LoadsSavedTotal.WithLabelValues("gated").Inc()
		return err
	case err != nil:
		metrics.LoadsSavedTotal.WithLabelValues("failed").Inc()
		return err
	}
	metrics.LoadsSavedTotal.WithLabelValues("saved").Inc()

	return c.JSON(http.StatusOK, saveLoadResponse{
		Success: true,
		Message: "Load saved successfully",
		LoadID:  res.Load.ID,
		Load:    res.Load,
		Stats:   res.Stats,
	})
}

// List handles GET /api/loads.
//
// @Summary      List the caller's loads
// @Tags         loads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  loadsResponse
// @Router       /api/loads [get]
func (h *LoadHandler) List(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	loads, err := h.service.ListLoads(c.Request().Context(), email)
	if err != nil {
		return err
	}
	if loads == nil {
		loads = []*domain.Load{}
	}

	return c.JSON(http.StatusOK, loadsResponse{Success: true, Loads: loads})
}
