package http

import (
	"net/http"
	"sort"

	"github.com/dkeye/Tune/internal/app"
	"github.com/dkeye/Tune/internal/clock"
	"github.com/dkeye/Tune/internal/core"
	"github.com/dkeye/Tune/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RoomHandlers is the read-mostly REST view over live rooms. Everything
// that changes a room goes through the signal connection.
type RoomHandlers struct {
	Rooms *app.RoomRegistry
	Codes *app.CodeGenerator
}

type RoomsResponse struct {
	Rooms []core.RoomInfo `json:"rooms"`
	Count int             `json:"count"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

func (h *RoomHandlers) Register(api *gin.RouterGroup) {
	api.GET("/rooms", h.listRooms)
	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:id", h.getRoom)
	api.GET("/rooms/:id/participants", h.getParticipants)
}

func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *RoomHandlers) listRooms(c *gin.Context) {
	list := h.Rooms.List()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	c.JSON(http.StatusOK, RoomsResponse{Rooms: list, Count: len(list)})
}

// createRoom only reserves a name: the room appears when someone joins it.
func (h *RoomHandlers) createRoom(c *gin.Context) {
	code, err := h.Codes.Generate(func(code string) bool {
		return h.Rooms.Exists(domain.RoomID(code))
	})
	if err != nil {
		log.Error().Err(err).Str("module", "transport.http").Msg("room code")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no free room code"})
		return
	}
	c.JSON(http.StatusCreated, CreateRoomResponse{RoomID: code})
}

// getRoom re-anchors the position at the response time, so currentTime and
// lastUpdateTime describe the same instant.
func (h *RoomHandlers) getRoom(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}
	snap, ok := h.Rooms.Snapshot(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	now := clock.Millis(h.Rooms.Clock().Now())
	state := app.NewRoomStatePayload(snap, now)
	state.CurrentTime = snap.Playback.PositionAt(now)
	state.LastUpdateTime = now
	c.JSON(http.StatusOK, state)
}

func (h *RoomHandlers) getParticipants(c *gin.Context) {
	id, ok := h.roomID(c)
	if !ok {
		return
	}
	if !h.Rooms.Exists(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	roster := h.Rooms.Roster(id)
	c.JSON(http.StatusOK, app.ParticipantsPayload{Participants: roster, Count: len(roster)})
}

func (h *RoomHandlers) roomID(c *gin.Context) (domain.RoomID, bool) {
	id, err := domain.ParseRoomID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return "", false
	}
	return id, true
}
