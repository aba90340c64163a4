package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	"github.com/tanzhaus/backoffice-api/pkg/dates"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// PaymentHandler exposes payment and refund endpoints.
type PaymentHandler struct {
	payments *service.PaymentService
	clock    clock.Provider
}

// NewPaymentHandler constructs a payment handler.
func NewPaymentHandler(payments *service.PaymentService, clk clock.Provider) *PaymentHandler {
	return &PaymentHandler{payments: payments, clock: clk}
}

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Param memberId query string false "Filter by member"
// @Param enrollmentId query string false "Filter by enrollment"
// @Param type query string false "Filter by payment type"
// @Param from query string false "Paid-at lower bound (YYYY-MM-DD)"
// @Param to query string false "Paid-at upper bound (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter models.PaymentFilter
	filter.MemberID = c.Query("memberId")
	filter.EnrollmentID = c.Query("enrollmentId")
	filter.ClassID = c.Query("classId")
	filter.Type = models.PaymentType(strings.ToUpper(c.Query("type")))
	if raw := c.Query("from"); raw != "" {
		if from, err := dates.Parse(raw); err == nil {
			filter.From = &from
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := dates.Parse(raw); err == nil {
			filter.To = &to
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	payments, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, pagination)
}

// Create godoc
// @Summary Record a payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.payments.Record(c.Request.Context(), req, h.clock.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Refund godoc
// @Summary Refund a payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 201 {object} response.Envelope
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	refund, err := h.payments.Refund(c.Request.Context(), c.Param("id"), h.clock.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, refund)
}
