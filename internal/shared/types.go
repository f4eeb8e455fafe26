package shared

// Player is the identity behind one connection. It lives in the session
// directory for the whole connection lifetime; rooms only hold its ID.
type Player struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar,omitempty"`
	Color        string `json:"color,omitempty"`
	CurrentRoom  string `json:"current_room,omitempty"`
	Coins        int    `json:"coins"`
	Diamonds     int    `json:"diamonds"`
	MiniGamesWon int    `json:"mini_games_won"`
}

// ResetStats returns the in-room counters to the room-entry default.
func (p *Player) ResetStats() {
	p.Coins = 0
	p.Diamonds = 0
	p.MiniGamesWon = 0
}

// DisplayName falls back to a placeholder until set_username has been called.
func (p *Player) DisplayName() string {
	if p.Username == "" {
		return "Unknown Player"
	}
	return p.Username
}

// PlayerSummary is the per-player view projected to clients.
type PlayerSummary struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar,omitempty"`
	Color        string `json:"color"`
	Coins        int    `json:"coins"`
	Diamonds     int    `json:"diamonds"`
	MiniGamesWon int    `json:"mini_games_won"`
}

// Summary projects a Player into its client-facing view.
func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{
		ID:           p.ID,
		Username:     p.DisplayName(),
		Avatar:       p.Avatar,
		Color:        p.Color,
		Coins:        p.Coins,
		Diamonds:     p.Diamonds,
		MiniGamesWon: p.MiniGamesWon,
	}
}

// RoomSnapshot is the room view broadcast to clients after every mutation.
type RoomSnapshot struct {
	RoomID       string          `json:"room_id"`
	AdminPlayer  *PlayerSummary  `json:"admin_player"`
	IsOngoing    bool            `json:"is_ongoing"`
	CurrentRound int             `json:"current_round"`
	CurrentTurn  *PlayerSummary  `json:"current_turn"`
	Players      []PlayerSummary `json:"players"`
}

// RoomInfo is the lobby-browser entry for one room.
type RoomInfo struct {
	Name        string `json:"name"`
	PlayerCount int    `json:"player_count"`
}
