package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"party-dice/internal/room"
)

// ListRoomsHandler serves the lobby browser: every room with its member count.
func ListRoomsHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": rm.ListRooms()})
	}
}

// ListPlayersHandler serves the member view of one room.
func ListPlayersHandler(rm *room.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		players, err := rm.ListPlayers(c.Param("name"))
		if err != nil {
			if errors.Is(err, room.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"room": c.Param("name"), "players": players})
	}
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
