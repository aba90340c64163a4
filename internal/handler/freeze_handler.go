package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// FreezeHandler exposes freeze interval lifecycle endpoints.
type FreezeHandler struct {
	freezes *service.FreezeService
	clock   clock.Provider
}

// NewFreezeHandler constructs a freeze handler.
func NewFreezeHandler(freezes *service.FreezeService, clk clock.Provider) *FreezeHandler {
	return &FreezeHandler{freezes: freezes, clock: clk}
}

// Create godoc
// @Summary Freeze enrollments for a member
// @Tags Freezes
// @Accept json
// @Produce json
// @Param payload body service.FreezeRequest true "Freeze payload"
// @Success 201 {object} response.Envelope
// @Router /freezes [post]
func (h *FreezeHandler) Create(c *gin.Context) {
	var req service.FreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	intervals, err := h.freezes.Freeze(c.Request.Context(), req, h.clock.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, intervals)
}

// Close godoc
// @Summary Close a freeze interval
// @Tags Freezes
// @Produce json
// @Param id path string true "Freeze interval ID"
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /freezes/{id}/close [post]
func (h *FreezeHandler) Close(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	interval, err := h.freezes.CloseInterval(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interval, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled freeze interval
// @Tags Freezes
// @Produce json
// @Param id path string true "Freeze interval ID"
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 204 "No Content"
// @Router /freezes/{id} [delete]
func (h *FreezeHandler) Cancel(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	if err := h.freezes.CancelScheduled(c.Request.Context(), c.Param("id"), asOf); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
