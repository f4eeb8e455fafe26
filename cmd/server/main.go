package main

import (
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/cors"

	httpapi "party-dice/internal/api/http"
	"party-dice/internal/api/ws"
	"party-dice/internal/config"
	"party-dice/internal/room"
	"party-dice/internal/session"
	"party-dice/internal/store"
)

func main() {
	cfg := config.Load()

	mem := store.NewMemoryStore()
	sessions := session.NewDirectory()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	rm := room.NewManager(mem, sessions, cfg.Colors, rng)
	hub := ws.NewHub(rm, sessions)
	rm.SetBroadcaster(hub)

	r := httpapi.NewRouter(rm, hub)
	handler := cors.Default().Handler(r)

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, handler); err != nil {
		log.Fatal(err)
	}
}
