package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/internal/service"
	"hostel-backend/internal/store"
)

// ListRooms returns every room with its beds and occupancy counts.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.svc.Inventory.ListRooms(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req service.CreateRoomInput
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.svc.Inventory.CreateRoom(c.Request.Context(), principal(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	deletion, err := h.svc.Inventory.DeleteRoom(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, deletion)
}

// ListBeds supports ?available=true and ?room_id=.
func (h *Handler) ListBeds(c *gin.Context) {
	filter := store.BedFilter{
		RoomID:        c.Query("room_id"),
		AvailableOnly: c.Query("available") == "true",
	}
	beds, err := h.svc.Inventory.ListBeds(c.Request.Context(), principal(c), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, beds)
}

// ToggleBed vacates an occupied bed and its resident.
func (h *Handler) ToggleBed(c *gin.Context) {
	studentID, err := h.svc.Inventory.ToggleBedOccupancy(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bed_id": c.Param("id"), "is_occupied": false, "unassigned_student_id": studentID})
}
