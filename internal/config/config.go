package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string
	// Colors is the per-room identity palette; its length is the room
	// capacity, one seat per color.
	Colors []string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env")
	}
	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":3000"),
		Colors:   strings.Split(getenv("PLAYER_COLORS", "red,blue,yellow,green"), ","),
	}
}
