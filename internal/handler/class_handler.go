package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/service"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// ClassHandler exposes the class catalog.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List active classes
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.classes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Instructors godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *ClassHandler) Instructors(c *gin.Context) {
	instructors, err := h.classes.Instructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}
