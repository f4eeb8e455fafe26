package http

import (
	"github.com/gin-gonic/gin"

	"party-dice/internal/api/ws"
	"party-dice/internal/room"
)

func NewRouter(rm *room.Manager, hub *ws.Hub) *gin.Engine {
	r := gin.Default()

	// WebSocket entry point; everything stateful goes through here.
	r.GET("/ws", hub.HandleWS)

	// Read-only REST surface for lobby browsing.
	r.GET("/rooms", ListRoomsHandler(rm))
	r.GET("/rooms/:name/players", ListPlayersHandler(rm))
	r.GET("/healthz", HealthHandler())

	return r
}
