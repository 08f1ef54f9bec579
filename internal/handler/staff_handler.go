package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/service"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
	"github.com/Logan1xl/suivie-academique/pkg/response"
)

// StaffHandler exposes staff directory endpoints.
type StaffHandler struct {
	staff       *service.StaffService
	assignments *service.AssignmentService
}

// NewStaffHandler constructs StaffHandler.
func NewStaffHandler(staff *service.StaffService, assignments *service.AssignmentService) *StaffHandler {
	return &StaffHandler{staff: staff, assignments: assignments}
}

// List godoc
// @Summary List staff
// @Tags Staff
// @Produce json
// @Param search query string false "Search by name or login"
// @Param role query string false "Filter by role"
// @Param sex query string false "Filter by sex"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /staff [get]
func (h *StaffHandler) List(c *gin.Context) {
	var filter models.StaffFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Sex = c.Query("sex")
	if raw := c.Query("role"); raw != "" {
		role, ok := models.ParseStaffRole(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown staff role: "+raw))
			return
		}
		filter.Role = &role
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	staff, pagination, err := h.staff.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, pagination)
}

// Get godoc
// @Summary Get staff member
// @Tags Staff
// @Produce json
// @Param code path string true "Staff code"
// @Success 200 {object} response.Envelope
// @Router /staff/{code} [get]
func (h *StaffHandler) Get(c *gin.Context) {
	staff, err := h.staff.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// GetByLogin godoc
// @Summary Find staff member by login
// @Tags Staff
// @Produce json
// @Param login query string true "Login"
// @Success 200 {object} response.Envelope
// @Router /staff/by-login [get]
func (h *StaffHandler) GetByLogin(c *gin.Context) {
	login := c.Query("login")
	if login == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "login query parameter required"))
		return
	}
	staff, err := h.staff.GetByLogin(c.Request.Context(), login)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// GetByPhone godoc
// @Summary Find staff member by phone
// @Tags Staff
// @Produce json
// @Param phone query string true "Phone number"
// @Success 200 {object} response.Envelope
// @Router /staff/by-phone [get]
func (h *StaffHandler) GetByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "phone query parameter required"))
		return
	}
	staff, err := h.staff.GetByPhone(c.Request.Context(), phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Update godoc
// @Summary Update staff member
// @Tags Staff
// @Accept json
// @Produce json
// @Param code path string true "Staff code"
// @Param payload body service.UpdateStaffRequest true "Staff payload"
// @Success 200 {object} response.Envelope
// @Router /staff/{code} [put]
func (h *StaffHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	staff, err := h.staff.Update(c.Request.Context(), claims.StaffCode, c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, staff, nil)
}

// Delete godoc
// @Summary Delete staff member
// @Tags Staff
// @Produce json
// @Param code path string true "Staff code"
// @Success 204 {object} response.Envelope
// @Router /staff/{code} [delete]
func (h *StaffHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.staff.Delete(c.Request.Context(), claims.StaffCode, c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Counts godoc
// @Summary Staff headcount by role and sex
// @Tags Staff
// @Produce json
// @Param role query string false "Role to count"
// @Param sex query string false "Sex marker to count"
// @Success 200 {object} response.Envelope
// @Router /staff/counts [get]
func (h *StaffHandler) Counts(c *gin.Context) {
	counts := gin.H{}
	if role := c.Query("role"); role != "" {
		n, err := h.staff.CountByRole(c.Request.Context(), role)
		if err != nil {
			response.Error(c, err)
			return
		}
		counts["role"] = gin.H{"value": role, "count": n}
	}
	if sex := c.Query("sex"); sex != "" {
		n, err := h.staff.CountBySex(c.Request.Context(), sex)
		if err != nil {
			response.Error(c, err)
			return
		}
		counts["sex"] = gin.H{"value": sex, "count": n}
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Assignments godoc
// @Summary Courses assigned to a staff member
// @Tags Staff
// @Produce json
// @Param code path string true "Staff code"
// @Success 200 {object} response.Envelope
// @Router /staff/{code}/assignments [get]
func (h *StaffHandler) Assignments(c *gin.Context) {
	assignments, err := h.assignments.ListByStaff(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}
