package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// PayoutHandler exposes instructor commission payouts.
type PayoutHandler struct {
	payouts *service.PayoutService
}

// NewPayoutHandler constructs a payout handler.
func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

func payoutRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := dates.Parse(c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid from date")
	}
	to, err := dates.Parse(c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid to date")
	}
	return from, to, nil
}

// Payout godoc
// @Summary Instructor commission payout for a date range
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/payout [get]
func (h *PayoutHandler) Payout(c *gin.Context) {
	from, to, err := payoutRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payout, err := h.payouts.Payout(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payout, nil)
}

// Statement godoc
// @Summary Instructor payout statement as PDF
// @Tags Instructors
// @Produce application/pdf
// @Param id path string true "Instructor ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Router /instructors/{id}/payout/statement [get]
func (h *PayoutHandler) Statement(c *gin.Context) {
	from, to, err := payoutRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	pdf, err := h.payouts.Statement(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("payout-%s-%s.pdf", dates.Key(from), dates.Key(to))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
