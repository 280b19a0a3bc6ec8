package network

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lanerush/game"
	"lanerush/protocol"
	"lanerush/room"
)

const (
	readLimit  = 1 << 16
	readWait   = 60 * time.Second
	writeWait  = 10 * time.Second
	pingPeriod = 25 * time.Second
)

var ErrClosed = errors.New("network: connection closed")

type Options struct {
	// AllowedOrigin is matched against the Origin header; "*" or empty
	// allows any.
	AllowedOrigin string
	SendQueue     int
	Logger        *zap.SugaredLogger
}

// Server upgrades /ws requests and routes client messages to the rooms.
type Server struct {
	manager   *room.Manager
	upgrader  websocket.Upgrader
	sendQueue int
	logger    *zap.SugaredLogger
}

func NewServer(m *room.Manager, opts Options) *Server {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 64
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	origin := opts.AllowedOrigin
	return &Server{
		manager: m,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if origin == "" || origin == "*" {
					return true
				}
				o := r.Header.Get("Origin")
				return o == "" || o == origin
			},
		},
		sendQueue: opts.SendQueue,
		logger:    opts.Logger,
	}
}

// Client is one websocket connection. Outbound frames go through a bounded
// queue drained by writePump.
type Client struct {
	id      string
	conn    *websocket.Conn
	codec   protocol.Codec
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

func (c *Client) ID() string            { return c.id }
func (c *Client) Codec() protocol.Codec { return c.codec }
func (c *Client) Dropped() int64        { return c.dropped.Load() }

// Send queues b without blocking. When the queue is full the frame is
// dropped; only a closed connection is an error.
func (c *Client) Send(b []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	select {
	case c.send <- b:
	default:
		c.dropped.Add(1)
	}
	return nil
}

func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Client) sendMessage(t string, payload any) {
	b, err := protocol.EncodeWith(c.codec, t, payload)
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP -> WebSocket
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("upgrade failed", "error", err)
		return
	}

	c := &Client{
		id:    uuid.NewString(),
		conn:  conn,
		codec: protocol.ParseCodec(r.URL.Query().Get("codec")),
		send:  make(chan []byte, s.sendQueue),
		done:  make(chan struct{}),
	}
	log := s.logger.With("conn", c.id, "codec", c.codec.String())
	log.Infow("client connected", "remote", r.RemoteAddr)

	go s.writePump(c)
	s.readPump(c, log)

	s.manager.Leave(c.id)
	_ = c.Close()
	log.Infow("client disconnected", "dropped", c.Dropped())
}

func (s *Server) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.Close()

	msgType := websocket.TextMessage
	if c.codec == protocol.CodecMsgpack {
		msgType = websocket.BinaryMessage
	}
	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msgType, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *Server) readPump(c *Client, log *zap.SugaredLogger) {
	// Basic timeouts + pong handling (keeps connections healthy)
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugw("read failed", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))

		codec := protocol.CodecJSON
		if msgType == websocket.BinaryMessage {
			codec = protocol.CodecMsgpack
		}
		f, err := protocol.DecodeFrame(codec, data)
		if err != nil {
			log.Debugw("dropping malformed frame", "error", err)
			continue
		}
		s.dispatch(c, f, log)
	}
}

// dispatch routes one client message. Malformed or out-of-place messages
// are dropped.
func (s *Server) dispatch(c *Client, f protocol.Frame, log *zap.SugaredLogger) {
	switch f.T {
	case protocol.MsgCreateRoom:
		msg, err := protocol.PayloadOf[protocol.CreateRoom](f)
		if err != nil {
			return
		}
		code, idx, err := s.manager.CreateRoom(c, msg.PlayerName)
		if err != nil {
			log.Warnw("create room failed", "error", err)
			return
		}
		log.Infow("created room", "room", code, "index", idx)

	case protocol.MsgJoinRoom:
		msg, err := protocol.PayloadOf[protocol.JoinRoom](f)
		if err != nil {
			return
		}
		if _, err := s.manager.JoinRoom(msg.RoomID, c, msg.PlayerName); err != nil {
			if errors.Is(err, room.ErrRoomNotFound) {
				c.sendMessage(protocol.MsgRoomNotFound, protocol.RoomNotFound{})
				return
			}
			log.Warnw("join room failed", "room", msg.RoomID, "error", err)
		}

	case protocol.MsgStartGame:
		msg, err := protocol.PayloadOf[protocol.StartGame](f)
		if err != nil {
			return
		}
		code := msg.RoomID
		if code == "" {
			code, _ = s.manager.RoomOf(c.id)
		}
		if _, err := s.manager.StartMatch(code); errors.Is(err, room.ErrRoomNotFound) {
			c.sendMessage(protocol.MsgRoomNotFound, protocol.RoomNotFound{})
		}

	case protocol.MsgPlayerInput:
		msg, err := protocol.PayloadOf[protocol.PlayerInput](f)
		if err != nil {
			return
		}
		if a, ok := game.ParseAction(msg.Action); ok {
			s.manager.SubmitInput(c.id, a)
		}

	case protocol.MsgLeaveRoom:
		s.manager.Leave(c.id)

	default:
		log.Debugw("dropping unknown message", "type", f.T)
	}
}
