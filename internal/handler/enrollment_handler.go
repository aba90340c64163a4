package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// EnrollmentHandler exposes enrollment lifecycle and schedule endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
	schedules   *service.ScheduleService
	clock       clock.Provider
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService, schedules *service.ScheduleService, clk clock.Provider) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, schedules: schedules, clock: clk}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param memberId query string false "Filter by member"
// @Param classId query string false "Filter by class"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.MemberID = c.Query("memberId")
	filter.ClassID = c.Query("classId")
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Get godoc
// @Summary Get enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Create godoc
// @Summary Enroll a member into a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Transfer godoc
// @Summary Transfer an enrollment to another class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.TransferRequest true "Transfer payload"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/transfer [post]
func (h *EnrollmentHandler) Transfer(c *gin.Context) {
	var req service.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	replacement, err := h.enrollments.Transfer(c.Request.Context(), c.Param("id"), req, h.clock.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, replacement)
}

// Terminate godoc
// @Summary Terminate an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 204 "No Content"
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Terminate(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	if err := h.enrollments.Terminate(c.Request.Context(), c.Param("id"), asOf); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Schedule godoc
// @Summary Derived billing schedule for an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param asOf query string false "Reference date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/schedule [get]
func (h *EnrollmentHandler) Schedule(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	view, err := h.schedules.ComputeSchedule(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
