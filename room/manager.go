package room

import (
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand/v2"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"lanerush/game"
	"lanerush/score"
)

var ErrRoomNotFound = errors.New("room: not found")

const (
	codeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength = 5
)

// RoomInfo is returned by the API for the server list.
type RoomInfo struct {
	Code    string `json:"code"`
	Players int    `json:"players"`
	Phase   string `json:"phase"`
}

// Manager holds rooms by code and remembers which room each connection is
// in. It never holds its lock while waiting on a room.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	conns map[string]string // connection id -> room code

	settings Settings
	logger   *zap.SugaredLogger
}

type Option func(*Manager)

func WithConfig(cfg game.Config) Option {
	return func(m *Manager) { m.settings.Config = cfg }
}

func WithTickHz(hz int) Option {
	return func(m *Manager) { m.settings.TickHz = hz }
}

func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.settings.Scheduler = s }
}

func WithScoreRecorder(rec score.Recorder) Option {
	return func(m *Manager) { m.settings.Scores = rec }
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Manager) { m.settings.Logger = l }
}

// WithRand overrides how each match's RNG is seeded.
func WithRand(newRand func() *mrand.Rand) Option {
	return func(m *Manager) { m.settings.NewRand = newRand }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		rooms:    make(map[string]*Room),
		conns:    make(map[string]string),
		settings: Settings{Config: game.DefaultConfig()},
	}
	for _, o := range opts {
		o(m)
	}
	m.settings = m.settings.withDefaults()
	m.logger = m.settings.Logger
	return m
}

// NormalizeCode canonicalizes a user-typed room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom makes a fresh waiting room and joins conn to it as the first
// participant. A connection already in another room leaves it once the new
// room has it.
func (m *Manager) CreateRoom(conn Conn, name string) (string, int, error) {
	prev, inPrev := m.RoomOf(conn.ID())

	m.mu.Lock()
	var code string
	for {
		code = generateCode(codeLength)
		if _, exists := m.rooms[code]; !exists {
			break
		}
	}
	r := New(code, m.settings)
	r.OnEmpty = m.removeRoom
	r.OnLeave = m.forget
	m.rooms[code] = r
	m.mu.Unlock()

	go r.Run()
	m.logger.Infow("room created", "room", code)

	idx, err := m.join(r, conn, name)
	if err != nil {
		m.removeRoom(code)
		return "", 0, err
	}
	if inPrev {
		m.leaveRoom(prev, conn.ID())
	}
	return code, idx, nil
}

// JoinRoom adds conn to the waiting room with the given code. Unknown codes
// and rooms whose match already started report ErrRoomNotFound, and leave
// the connection where it was. A successful join moves it out of its
// previous room.
func (m *Manager) JoinRoom(code string, conn Conn, name string) (int, error) {
	code = NormalizeCode(code)
	r := m.room(code)
	if r == nil {
		return 0, ErrRoomNotFound
	}
	prev, inPrev := m.RoomOf(conn.ID())
	idx, err := m.join(r, conn, name)
	if err != nil {
		return 0, err
	}
	if inPrev && prev != code {
		m.leaveRoom(prev, conn.ID())
	}
	return idx, nil
}

func (m *Manager) join(r *Room, conn Conn, name string) (int, error) {
	reply := make(chan JoinResult, 1)
	if !r.send(Join{Conn: conn, Name: name, Reply: reply}) {
		return 0, ErrRoomNotFound
	}
	res, ok := await(r, reply)
	if !ok {
		return 0, ErrRoomNotFound
	}
	if res.Err != nil {
		return 0, res.Err
	}
	m.mu.Lock()
	if _, live := m.rooms[r.Code]; !live {
		m.mu.Unlock()
		return 0, ErrRoomNotFound
	}
	m.conns[conn.ID()] = r.Code
	m.mu.Unlock()
	return res.Index, nil
}

// StartMatch starts the room's match. It reports false when the match was
// already started or the room has nobody in it.
func (m *Manager) StartMatch(code string) (bool, error) {
	r := m.room(NormalizeCode(code))
	if r == nil {
		return false, ErrRoomNotFound
	}
	reply := make(chan bool, 1)
	if !r.send(Start{Reply: reply}) {
		return false, ErrRoomNotFound
	}
	started, ok := await(r, reply)
	if !ok {
		return false, ErrRoomNotFound
	}
	return started, nil
}

// SubmitInput forwards a lane change to the connection's room without
// waiting. Inputs for unknown connections or a full inbox are dropped.
func (m *Manager) SubmitInput(connID string, a game.Action) {
	m.mu.RLock()
	r := m.rooms[m.conns[connID]]
	m.mu.RUnlock()
	if r == nil {
		return
	}
	select {
	case r.Inbox <- Input{ConnID: connID, Action: a}:
	default:
	}
}

// Leave removes the connection from its room, if any. The room is torn
// down when it was the last participant.
func (m *Manager) Leave(connID string) {
	m.mu.Lock()
	code, ok := m.conns[connID]
	delete(m.conns, connID)
	m.mu.Unlock()
	if ok {
		m.leaveRoom(code, connID)
	}
}

// leaveRoom removes connID from the room with the given code without
// touching the connection mapping.
func (m *Manager) leaveRoom(code, connID string) {
	r := m.room(code)
	if r == nil {
		return
	}
	reply := make(chan LeaveResult, 1)
	if !r.send(Leave{ConnID: connID, Reply: reply}) {
		return
	}
	await(r, reply)
}

// RoomOf returns the code of the room the connection is in.
func (m *Manager) RoomOf(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.conns[connID]
	return code, ok
}

// ListRooms returns all active rooms with code, player count and phase.
func (m *Manager) ListRooms() []RoomInfo {
	m.mu.RLock()
	out := make([]RoomInfo, 0, len(m.rooms))
	for code, r := range m.rooms {
		out = append(out, RoomInfo{Code: code, Players: r.NumPlayers(), Phase: r.Phase().String()})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Shutdown stops every room and waits for their loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	clear(m.rooms)
	clear(m.conns)
	m.mu.Unlock()

	for _, r := range rooms {
		r.Stop()
		<-r.Done()
	}
	m.logger.Infow("rooms shut down", "count", len(rooms))
}

func (m *Manager) room(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[code]
}

// forget clears the mapping for a connection its room dropped, unless the
// connection has since moved on to another room.
func (m *Manager) forget(code, connID string) {
	m.mu.Lock()
	if m.conns[connID] == code {
		delete(m.conns, connID)
	}
	m.mu.Unlock()
}

func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	if ok {
		delete(m.rooms, code)
		for id, c := range m.conns {
			if c == code {
				delete(m.conns, id)
			}
		}
	}
	m.mu.Unlock()
	if ok {
		r.Stop()
		m.logger.Infow("room removed", "room", code)
	}
}

// await waits for a reply, or for the room to stop. A reply that raced
// the shutdown still wins.
func await[T any](r *Room, reply <-chan T) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-r.Done():
		select {
		case v := <-reply:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
