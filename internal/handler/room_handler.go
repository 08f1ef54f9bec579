package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Logan1xl/suivie-academique/internal/service"
	appErrors "github.com/Logan1xl/suivie-academique/pkg/errors"
	"github.com/Logan1xl/suivie-academique/pkg/response"
)

// RoomHandler exposes room inventory endpoints.
type RoomHandler struct {
	rooms          *service.RoomService
	programmations *service.ProgrammationService
}

// NewRoomHandler constructs RoomHandler.
func NewRoomHandler(rooms *service.RoomService, programmations *service.ProgrammationService) *RoomHandler {
	return &RoomHandler{rooms: rooms, programmations: programmations}
}

// List godoc
// @Summary List rooms
// @Tags Rooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.rooms.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// Get godoc
// @Summary Get room
// @Tags Rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} response.Envelope
// @Router /rooms/{code} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.rooms.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Create godoc
// @Summary Create room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param payload body service.CreateRoomRequest true "Room payload"
// @Success 201 {object} response.Envelope
// @Router /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.rooms.Create(c.Request.Context(), claims.StaffCode, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update godoc
// @Summary Update room
// @Tags Rooms
// @Accept json
// @Produce json
// @Param code path string true "Room code"
// @Param payload body service.UpdateRoomRequest true "Room payload"
// @Success 200 {object} response.Envelope
// @Router /rooms/{code} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	room, err := h.rooms.Update(c.Request.Context(), claims.StaffCode, c.Param("code"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, room, nil)
}

// Delete godoc
// @Summary Delete room
// @Tags Rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 204 {object} response.Envelope
// @Router /rooms/{code} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.rooms.Delete(c.Request.Context(), claims.StaffCode, c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Availability godoc
// @Summary Check room availability for a window
// @Tags Rooms
// @Produce json
// @Param code path string true "Room code"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {object} response.Envelope
// @Router /rooms/{code}/availability [get]
func (h *RoomHandler) Availability(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start must be RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end must be RFC3339"))
		return
	}

	available, err := h.programmations.CheckRoomAvailability(c.Request.Context(), c.Param("code"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"room": c.Param("code"), "available": available}, nil)
}

// Today godoc
// @Summary Sessions booked in a room today
// @Tags Rooms
// @Produce json
// @Param code path string true "Room code"
// @Success 200 {object} response.Envelope
// @Router /rooms/{code}/today [get]
func (h *RoomHandler) Today(c *gin.Context) {
	list, err := h.programmations.ListTodayByRoom(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}
