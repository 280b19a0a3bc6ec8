// Command protocolschema prints the JSON schema of every websocket payload,
// keyed by envelope type, for client code generation.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"lanerush/protocol"
)

type wireMessages struct {
	CreateRoom   protocol.CreateRoom   `json:"createRoom"`
	JoinRoom     protocol.JoinRoom     `json:"joinRoom"`
	StartGame    protocol.StartGame    `json:"startGame"`
	PlayerInput  protocol.PlayerInput  `json:"playerInput"`
	LeaveRoom    protocol.LeaveRoom    `json:"leaveRoom"`
	RoomJoined   protocol.RoomJoined   `json:"roomJoined"`
	PlayerJoined protocol.PlayerInfo   `json:"playerJoined"`
	PlayerLeft   protocol.PlayerLeft   `json:"playerLeft"`
	GameStarted  protocol.GameStarted  `json:"gameStarted"`
	RoomNotFound protocol.RoomNotFound `json:"roomNotFound"`
	GameState    protocol.GameState    `json:"gameState"`
}

func main() {
	out := flag.String("out", "", "write the schema here instead of stdout")
	flag.Parse()

	if err := run(*out); err != nil {
		log.Fatal(err)
	}
}

func run(out string) error {
	if out == "" {
		return writeSchema(os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := writeSchema(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSchema(w io.Writer) error {
	r := jsonschema.Reflector{AllowAdditionalProperties: true}
	schema := r.Reflect(new(wireMessages))
	schema.Title = "lanerush wire messages"

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
