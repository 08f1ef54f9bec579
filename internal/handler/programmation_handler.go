package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Logan1xl/suivie-academique/internal/models"
	"github.com/Logan1xl/suivie-academique/internal/service"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
	"github.com/Logan1xl/suivie-academique/pkg/response"
)

// ProgrammationHandler exposes course session scheduling endpoints.
type ProgrammationHandler struct {
	programmations *service.ProgrammationService
	exports        *service.ExportService
}

// NewProgrammationHandler constructs ProgrammationHandler.
func NewProgrammationHandler(programmations *service.ProgrammationService, exports *service.ExportService) *ProgrammationHandler {
	return &ProgrammationHandler{programmations: programmations, exports: exports}
}

// List godoc
// @Summary List programmations
// @Tags Programmations
// @Produce json
// @Param status query string false "Filter by status"
// @Param room query string false "Filter by room code"
// @Param course query string false "Filter by course code"
// @Param organizer query string false "Filter by organizer code"
// @Param validator query string false "Filter by validator code"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /programmations [get]
func (h *ProgrammationHandler) List(c *gin.Context) {
	filter, err := parseProgrammationFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	list, err := h.programmations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get programmation
// @Tags Programmations
// @Produce json
// @Param id path int true "Programmation id"
// @Success 200 {object} response.Envelope
// @Router /programmations/{id} [get]
func (h *ProgrammationHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be an integer"))
		return
	}
	prog, err := h.programmations.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prog, nil)
}

// Create godoc
// @Summary Schedule a course session
// @Tags Programmations
// @Accept json
// @Produce json
// @Param payload body service.CreateProgrammationRequest true "Programmation payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programmations [post]
func (h *ProgrammationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateProgrammationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	prog, err := h.programmations.Create(c.Request.Context(), claims.StaffCode, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, prog)
}

// Update godoc
// @Summary Reschedule a course session
// @Tags Programmations
// @Accept json
// @Produce json
// @Param id path int true "Programmation id"
// @Param payload body service.UpdateProgrammationRequest true "Programmation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programmations/{id} [put]
func (h *ProgrammationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be an integer"))
		return
	}

	var req service.UpdateProgrammationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	prog, err := h.programmations.Update(c.Request.Context(), claims.StaffCode, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prog, nil)
}

// Validate godoc
// @Summary Validate a scheduled session
// @Tags Programmations
// @Produce json
// @Param id path int true "Programmation id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /programmations/{id}/validate [post]
func (h *ProgrammationHandler) Validate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be an integer"))
		return
	}
	prog, err := h.programmations.Validate(c.Request.Context(), claims.StaffCode, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prog, nil)
}

// Delete godoc
// @Summary Delete a programmation
// @Tags Programmations
// @Produce json
// @Param id path int true "Programmation id"
// @Success 204 {object} response.Envelope
// @Router /programmations/{id} [delete]
func (h *ProgrammationHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be an integer"))
		return
	}
	if err := h.programmations.Delete(c.Request.Context(), claims.StaffCode, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Pending godoc
// @Summary Sessions awaiting validation
// @Tags Programmations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programmations/pending [get]
func (h *ProgrammationHandler) Pending(c *gin.Context) {
	list, err := h.programmations.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Upcoming godoc
// @Summary Sessions starting from now
// @Tags Programmations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programmations/upcoming [get]
func (h *ProgrammationHandler) Upcoming(c *gin.Context) {
	list, err := h.programmations.ListUpcoming(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Stats godoc
// @Summary Session counts by status
// @Tags Programmations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /programmations/stats [get]
func (h *ProgrammationHandler) Stats(c *gin.Context) {
	stats, err := h.programmations.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Export programmations as CSV or PDF
// @Tags Programmations
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Success 200 {file} byte
// @Router /programmations/export [get]
func (h *ProgrammationHandler) Export(c *gin.Context) {
	format, ok := service.ParseExportFormat(c.DefaultQuery("format", "csv"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}

	filter, err := parseProgrammationFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.exports.ExportProgrammations(c.Request.Context(), format, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func parseProgrammationFilter(c *gin.Context) (models.ProgrammationFilter, error) {
	var filter models.ProgrammationFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseProgrammationStatus(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown status: "+raw)
		}
		filter.Status = &status
	}
	filter.RoomCode = c.Query("room")
	filter.CourseCode = c.Query("course")
	filter.OrganizerCode = c.Query("organizer")
	filter.ValidatorCode = c.Query("validator")
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "from must be RFC3339")
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "to must be RFC3339")
		}
		filter.To = &to
	}
	return filter, nil
}
