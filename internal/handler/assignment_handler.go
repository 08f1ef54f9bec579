package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/service"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
	"github.com/Logan1xl/suivie-academique/pkg/response"
)

// AssignmentHandler exposes staff to course assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	assignments, err := h.assignments.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Counts godoc
// @Summary Assignment counts per staff member or course
// @Tags Assignments
// @Produce json
// @Param staff query string false "Staff code"
// @Param course query string false "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/counts [get]
func (h *AssignmentHandler) Counts(c *gin.Context) {
	counts := gin.H{}
	if staffCode := c.Query("staff"); staffCode != "" {
		n, err := h.assignments.CountByStaff(c.Request.Context(), staffCode)
		if err != nil {
			response.Error(c, err)
			return
		}
		counts["staff"] = gin.H{"value": staffCode, "count": n}
	}
	if courseCode := c.Query("course"); courseCode != "" {
		n, err := h.assignments.CountByCourse(c.Request.Context(), courseCode)
		if err != nil {
			response.Error(c, err)
			return
		}
		counts["course"] = gin.H{"value": courseCode, "count": n}
	}
	response.JSON(c, http.StatusOK, counts, nil)
}

// Create godoc
// @Summary Assign staff member to a course
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), claims.StaffCode, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Delete godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Produce json
// @Param courseCode path string true "Course code"
// @Param staffCode path string true "Staff code"
// @Success 204 {object} response.Envelope
// @Router /assignments/{courseCode}/{staffCode} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	key := models.AssignmentKey{CourseCode: c.Param("courseCode"), StaffCode: c.Param("staffCode")}
	if err := h.assignments.Delete(c.Request.Context(), claims.StaffCode, key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
