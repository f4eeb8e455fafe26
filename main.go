package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gorilla/websocket"
)

// Interactive terminal client for poking at a running server. Type "help"
// for the command list.
func main() {
	addr := "ws://localhost:3000/ws"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		fmt.Println("dial failed:", err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		for {
			var msg struct {
				Action string          `json:"action"`
				Data   json.RawMessage `json:"data"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				fmt.Println("\nconnection closed:", err)
				os.Exit(0)
			}
			fmt.Printf("\n<< %s %s\n> ", msg.Action, string(msg.Data))
		}
	}()

	currentRoom := ""
	send := func(action string, data interface{}) {
		if err := conn.WriteJSON(map[string]interface{}{"action": action, "data": data}); err != nil {
			fmt.Println("write failed:", err)
		}
	}

	fmt.Println("connected to", addr)
	reader := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for reader.Scan() {
		parts := strings.Fields(reader.Text())
		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}
		arg := strings.Join(parts[1:], " ")
		switch parts[0] {
		case "help":
			fmt.Println("name <username> | rooms | players <room> | create <room> | join <room>")
			fmt.Println("leave | start | turn | end | roll | say <message> | quit")
		case "name":
			send("set_username", map[string]string{"username": arg})
		case "rooms":
			send("get_rooms", nil)
		case "players":
			send("get_players", map[string]string{"room": arg})
		case "create":
			currentRoom = arg
			send("create_room", map[string]string{"room": arg})
		case "join":
			currentRoom = arg
			send("join_room", map[string]string{"room": arg})
		case "leave":
			send("leave_room", map[string]string{"room": currentRoom})
			currentRoom = ""
		case "start":
			send("start_game", map[string]string{"room": currentRoom})
		case "turn":
			send("advance_turn", map[string]string{"room": currentRoom})
		case "end":
			send("end_game", map[string]string{"room": currentRoom})
		case "roll":
			send("roll_dice", nil)
		case "say":
			send("send_message", map[string]string{"room": currentRoom, "message": arg})
		case "quit":
			return
		default:
			fmt.Println("unknown command, try help")
		}
		fmt.Print("> ")
	}
}
