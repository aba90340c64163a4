package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tanzhaus/backoffice-api/internal/models"
	"github.com/tanzhaus/backoffice-api/internal/service"
	"github.com/tanzhaus/backoffice-api/pkg/clock"
	appErrors "github.com/tanzhaus/backoffice-api/pkg/errors"
	"github.com/tanzhaus/backoffice-api/pkg/response"
)

// MemberHandler exposes member CRUD and lifecycle endpoints.
type MemberHandler struct {
	members *service.MemberService
	status  *service.StatusService
	freezes *service.FreezeService
	clock   clock.Provider
}

// NewMemberHandler constructs a member handler.
func NewMemberHandler(members *service.MemberService, status *service.StatusService, freezes *service.FreezeService, clk clock.Provider) *MemberHandler {
	return &MemberHandler{members: members, status: status, freezes: freezes, clock: clk}
}

// List godoc
// @Summary List members
// @Tags Members
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /members [get]
func (h *MemberHandler) List(c *gin.Context) {
	var filter models.MemberFilter
	filter.Status = models.MemberStatus(strings.ToUpper(c.Query("status")))
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	members, pagination, err := h.members.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// Get godoc
// @Summary Get member detail
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id} [get]
func (h *MemberHandler) Get(c *gin.Context) {
	member, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Create member
// @Tags Members
// @Accept json
// @Produce json
// @Param payload body service.CreateMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /members [post]
func (h *MemberHandler) Create(c *gin.Context) {
	var req service.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.members.Create(c.Request.Context(), req, h.clock.Today())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update member contact details
// @Tags Members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param payload body service.UpdateMemberRequest true "Member payload"
// @Success 200 {object} response.Envelope
// @Router /members/{id} [put]
func (h *MemberHandler) Update(c *gin.Context) {
	var req service.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.members.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Archive godoc
// @Summary Archive member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 204 "No Content"
// @Router /members/{id}/archive [post]
func (h *MemberHandler) Archive(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	if err := h.members.Archive(c.Request.Context(), c.Param("id"), asOf); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Unfreeze godoc
// @Summary Close every open freeze for a member
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/unfreeze [post]
func (h *MemberHandler) Unfreeze(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	closed, err := h.freezes.UnfreezeMember(c.Request.Context(), c.Param("id"), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"closed_intervals": closed}, nil)
}

// History godoc
// @Summary Member audit trail
// @Tags Members
// @Produce json
// @Param id path string true "Member ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/history [get]
func (h *MemberHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	entries, err := h.members.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// StatusSync godoc
// @Summary Reconcile every member's derived status
// @Tags Members
// @Produce json
// @Param asOf query string false "Effective date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /members/status-sync [post]
func (h *MemberHandler) StatusSync(c *gin.Context) {
	asOf, err := asOfFromQuery(c, h.clock)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid asOf date"))
		return
	}
	result, err := h.status.SyncMemberStatuses(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
