package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// DashboardHandler exposes the operator overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	clock     clock.Provider
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboard *service.DashboardService, clk clock.Provider) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, clock: clk}
}

// Summary godoc
// @Summary Operator dashboard summary
// @Tags Dashboard
// @Produce json
// @Param asOf query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	summary, err := h.dashboard.Summary(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
