package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanerush/protocol"
)

func TestSchemaCoversEveryMessageType(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSchema(&buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "lanerush wire messages", doc["title"])

	for _, typ := range []string{
		protocol.MsgCreateRoom, protocol.MsgJoinRoom, protocol.MsgStartGame,
		protocol.MsgPlayerInput, protocol.MsgLeaveRoom, protocol.MsgRoomJoined,
		protocol.MsgPlayerJoined, protocol.MsgPlayerLeft, protocol.MsgGameStarted,
		protocol.MsgRoomNotFound, protocol.MsgGameState,
	} {
		assert.Contains(t, buf.String(), `"`+typ+`"`)
	}
	assert.Contains(t, buf.String(), "playerName")
	assert.Contains(t, buf.String(), "respawnTimer")
}
