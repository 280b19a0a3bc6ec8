package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lanerush/game"
	"lanerush/protocol"
	"lanerush/score"
)

type frame struct {
	t   string
	raw []byte
}

type fakeConn struct {
	id     string
	codec  protocol.Codec
	refuse atomic.Bool
	closed atomic.Bool

	mu     sync.Mutex
	frames []frame
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string            { return f.id }
func (f *fakeConn) Codec() protocol.Codec { return f.codec }
func (f *fakeConn) Close() error          { f.closed.Store(true); return nil }
func (f *fakeConn) Send(b []byte) error {
	if f.refuse.Load() {
		return errors.New("fake: queue full")
	}
	cp := append([]byte(nil), b...)
	var t string
	if f.codec == protocol.CodecMsgpack {
		t, _, _ = protocol.DecodeBinary[map[string]any](cp)
	} else if env, err := protocol.DecodeEnvelope(cp); err == nil {
		t = env.T
	}
	f.mu.Lock()
	f.frames = append(f.frames, frame{t: t, raw: cp})
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.frames))
	for _, fr := range f.frames {
		out = append(out, fr.t)
	}
	return out
}

// last returns the most recent frame of type t.
func (f *fakeConn) last(t string) (frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.frames) - 1; i >= 0; i-- {
		if f.frames[i].t == t {
			return f.frames[i], true
		}
	}
	return frame{}, false
}

func (f *fakeConn) waitFor(tb testing.TB, t string) frame {
	tb.Helper()
	var fr frame
	require.Eventually(tb, func() bool {
		var ok bool
		fr, ok = f.last(t)
		return ok
	}, time.Second, 5*time.Millisecond, "no %s frame for %s", t, f.id)
	return fr
}

func decodeJSON[T any](tb testing.TB, fr frame) T {
	tb.Helper()
	env, err := protocol.DecodeEnvelope(fr.raw)
	require.NoError(tb, err)
	v, err := protocol.DecodePayload[T](env)
	require.NoError(tb, err)
	return v
}

func (f *fakeConn) gameStates(tb testing.TB) []protocol.GameState {
	tb.Helper()
	f.mu.Lock()
	frames := append([]frame(nil), f.frames...)
	f.mu.Unlock()
	var out []protocol.GameState
	for _, fr := range frames {
		if fr.t == protocol.MsgGameState {
			out = append(out, decodeJSON[protocol.GameState](tb, fr))
		}
	}
	return out
}

type manualTask struct {
	ch      chan time.Time
	once    sync.Once
	cancels atomic.Int32
}

func (t *manualTask) C() <-chan time.Time { return t.ch }

func (t *manualTask) Cancel() bool {
	did := false
	t.once.Do(func() {
		did = true
		t.cancels.Add(1)
	})
	return did
}

// tick hands the room one tick; false means the room stopped listening.
func (t *manualTask) tick() bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(200 * time.Millisecond):
		return false
	}
}

type manualScheduler struct {
	started chan *manualTask
}

func (s *manualScheduler) Start(time.Duration) Task {
	t := &manualTask{ch: make(chan time.Time)}
	s.started <- t
	return t
}

func (s *manualScheduler) task(tb testing.TB) *manualTask {
	tb.Helper()
	select {
	case t := <-s.started:
		return t
	case <-time.After(time.Second):
		tb.Fatalf("no tick task started")
		return nil
	}
}

type recorded struct {
	name    string
	score   int
	matchID string
}

type fakeScores struct {
	got chan recorded
}

func (f *fakeScores) RecordScore(_ context.Context, name string, sc int, matchID string) (bool, error) {
	f.got <- recorded{name, sc, matchID}
	return true, nil
}

func (f *fakeScores) TopScores(context.Context, int) ([]score.Entry, error) {
	return nil, nil
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{started: make(chan *manualTask, 4)}
	cfg := game.DefaultConfig()
	cfg.InitialFallSpeed = 1500
	cfg.PowerUpChance = 0
	base := []Option{
		WithConfig(cfg),
		WithScheduler(sched),
		WithRand(func() *rand.Rand { return rand.New(rand.NewPCG(7, 11)) }),
	}
	m := NewManager(append(base, opts...)...)
	t.Cleanup(m.Shutdown)
	return m, sched
}

func TestCreateAndJoinAssignSequentialIndices(t *testing.T) {
	m, _ := newTestManager(t)
	a, b := newFakeConn("a"), newFakeConn("b")

	code, idx, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, 0, idx)

	idx, err = m.JoinRoom(" "+code+" ", b, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	joined := decodeJSON[protocol.RoomJoined](t, b.waitFor(t, protocol.MsgRoomJoined))
	assert.Equal(t, code, joined.RoomID)
	assert.Equal(t, 1, joined.PlayerIndex)
	require.Len(t, joined.Players, 2)
	assert.Equal(t, "alice", joined.Players[0].Name)

	pj := decodeJSON[protocol.PlayerInfo](t, a.waitFor(t, protocol.MsgPlayerJoined))
	assert.Equal(t, protocol.PlayerInfo{Name: "bob", ID: "b", Index: 1}, pj)

	rooms := m.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, RoomInfo{Code: code, Players: 2, Phase: "waiting"}, rooms[0])
}

func TestJoinLowercaseCode(t *testing.T) {
	m, _ := newTestManager(t)
	code, _, err := m.CreateRoom(newFakeConn("a"), "alice")
	require.NoError(t, err)

	lower := []byte(code)
	for i, c := range lower {
		if c >= 'A' && c <= 'Z' {
			lower[i] = c + ('a' - 'A')
		}
	}
	_, err = m.JoinRoom(string(lower), newFakeConn("b"), "bob")
	assert.NoError(t, err)
}

func TestJoinUnknownRoom(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.JoinRoom("ZZZZZ", newFakeConn("a"), "alice")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = m.StartMatch("ZZZZZ")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestStartBroadcastsGameStartedThenState(t *testing.T) {
	m, sched := newTestManager(t)
	a := newFakeConn("a")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)

	started, err := m.StartMatch(code)
	require.NoError(t, err)
	assert.True(t, started)

	again, err := m.StartMatch(code)
	require.NoError(t, err)
	assert.False(t, again, "duplicate start must be a no-op")

	task := sched.task(t)
	require.True(t, task.tick())
	a.waitFor(t, protocol.MsgGameState)

	types := a.types()
	iStart, iState := -1, -1
	for i, typ := range types {
		if typ == protocol.MsgGameStarted && iStart < 0 {
			iStart = i
		}
		if typ == protocol.MsgGameState && iState < 0 {
			iState = i
		}
	}
	require.GreaterOrEqual(t, iStart, 0)
	assert.Less(t, iStart, iState)

	states := a.gameStates(t)
	require.NotEmpty(t, states)
	assert.Equal(t, 1, states[0].Tick)
	assert.Equal(t, protocol.StatePlaying, states[0].GameState)
	require.Len(t, states[0].Players, 1)
	assert.Equal(t, "alice", states[0].Players[0].Name)
	assert.NotEmpty(t, states[0].Obstacles)

	select {
	case <-sched.started:
		t.Fatalf("duplicate start scheduled a second tick task")
	default:
	}
}

func roomInfo(tb testing.TB, m *Manager, code string) RoomInfo {
	tb.Helper()
	for _, info := range m.ListRooms() {
		if info.Code == code {
			return info
		}
	}
	tb.Fatalf("room %s not listed", code)
	return RoomInfo{}
}

func TestFailedJoinKeepsCurrentRoom(t *testing.T) {
	m, _ := newTestManager(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.JoinRoom(code, b, "bob")
	require.NoError(t, err)
	require.NotEqual(t, "QQQQQ", code)

	_, err = m.JoinRoom("QQQQQ", b, "bob")
	require.ErrorIs(t, err, ErrRoomNotFound)

	cur, ok := m.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, code, cur)
	assert.Equal(t, 2, roomInfo(t, m, code).Players)
	_, left := a.last(protocol.MsgPlayerLeft)
	assert.False(t, left)
}

func TestJoinStartedRoomKeepsCurrentRoom(t *testing.T) {
	m, _ := newTestManager(t)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	home, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.JoinRoom(home, b, "bob")
	require.NoError(t, err)
	busy, _, err := m.CreateRoom(c, "carol")
	require.NoError(t, err)
	_, err = m.StartMatch(busy)
	require.NoError(t, err)

	_, err = m.JoinRoom(busy, b, "bob")
	require.ErrorIs(t, err, ErrRoomNotFound)

	cur, ok := m.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, home, cur)
	assert.Equal(t, 2, roomInfo(t, m, home).Players)
	assert.Equal(t, 1, roomInfo(t, m, busy).Players)
}

func TestJoinOtherRoomMovesConn(t *testing.T) {
	m, _ := newTestManager(t)
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	home, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.JoinRoom(home, b, "bob")
	require.NoError(t, err)
	other, _, err := m.CreateRoom(c, "carol")
	require.NoError(t, err)

	idx, err := m.JoinRoom(other, b, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	cur, ok := m.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, other, cur)
	assert.Equal(t, 1, roomInfo(t, m, home).Players)
	assert.Equal(t, 2, roomInfo(t, m, other).Players)
	left := decodeJSON[protocol.PlayerLeft](t, a.waitFor(t, protocol.MsgPlayerLeft))
	assert.Equal(t, "b", left.PlayerID)
}

func TestJoinAfterStartIsRejected(t *testing.T) {
	m, _ := newTestManager(t)
	code, _, err := m.CreateRoom(newFakeConn("a"), "alice")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)

	_, err = m.JoinRoom(code, newFakeConn("b"), "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMatchEndsWithGameOverAndCancelsTickOnce(t *testing.T) {
	scores := &fakeScores{got: make(chan recorded, 4)}
	m, sched := newTestManager(t, WithScoreRecorder(scores))
	a := newFakeConn("a")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)

	task := sched.task(t)
	ticks := 0
	for ticks < 5000 && task.tick() {
		ticks++
	}
	require.Less(t, ticks, 5000, "match never ended")

	require.Eventually(t, func() bool {
		fr, ok := a.last(protocol.MsgGameState)
		if !ok {
			return false
		}
		return decodeJSON[protocol.GameState](t, fr).GameState == protocol.StateGameOver
	}, time.Second, 5*time.Millisecond)

	final := decodeJSON[protocol.GameState](t, a.waitFor(t, protocol.MsgGameState))
	require.Len(t, final.Players, 1)
	assert.False(t, final.Players[0].IsAlive)
	assert.Nil(t, final.Players[0].RespawnTimer)

	assert.Equal(t, int32(1), task.cancels.Load())
	assert.False(t, task.tick(), "no tick after the match ended")

	select {
	case rec := <-scores.got:
		assert.Equal(t, "alice", rec.name)
		assert.NotEmpty(t, rec.matchID)
	case <-time.After(time.Second):
		t.Fatalf("score was not recorded")
	}

	rooms := m.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, "ended", rooms[0].Phase)

	m.Leave("a")
	assert.Empty(t, m.ListRooms())
	assert.Equal(t, int32(1), task.cancels.Load())
}

func TestLeaveLastParticipantDestroysRoom(t *testing.T) {
	m, _ := newTestManager(t)
	code, _, err := m.CreateRoom(newFakeConn("a"), "alice")
	require.NoError(t, err)

	m.Leave("a")
	assert.Empty(t, m.ListRooms())

	_, err = m.JoinRoom(code, newFakeConn("b"), "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, ok := m.RoomOf("a")
	assert.False(t, ok)
}

func TestLeaveDuringMatchCancelsTickWhenEmpty(t *testing.T) {
	m, sched := newTestManager(t)
	code, _, err := m.CreateRoom(newFakeConn("a"), "alice")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)
	task := sched.task(t)
	require.True(t, task.tick())

	m.Leave("a")
	assert.Empty(t, m.ListRooms())
	assert.Equal(t, int32(1), task.cancels.Load())
}

func TestLeaveMidMatchFlagsAbandoned(t *testing.T) {
	m, sched := newTestManager(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.JoinRoom(code, b, "bob")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)
	task := sched.task(t)

	m.Leave("b")
	left := decodeJSON[protocol.PlayerLeft](t, a.waitFor(t, protocol.MsgPlayerLeft))
	assert.Equal(t, "b", left.PlayerID)

	require.True(t, task.tick())
	a.waitFor(t, protocol.MsgGameState)
	states := a.gameStates(t)
	st := states[len(states)-1]
	require.Len(t, st.Players, 2, "an abandoned player stays in the simulation")
	assert.False(t, st.Players[0].Abandoned)
	assert.True(t, st.Players[1].Abandoned)

	rooms := m.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].Players)
}

func TestInputMovesLaneOnlyWhilePlaying(t *testing.T) {
	m, sched := newTestManager(t)
	a := newFakeConn("a")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)

	m.SubmitInput("a", game.ActionRight)
	m.SubmitInput("nobody", game.ActionRight)
	_, err = m.StartMatch(code)
	require.NoError(t, err)
	task := sched.task(t)

	require.True(t, task.tick())
	a.waitFor(t, protocol.MsgGameState)
	assert.Equal(t, game.LaneCount/2, a.gameStates(t)[0].Players[0].Lane)

	m.SubmitInput("a", game.ActionRight)
	// A duplicate start is a synchronous no-op; it flushes the input ahead of it.
	again, err := m.StartMatch(code)
	require.NoError(t, err)
	require.False(t, again)

	require.True(t, task.tick())
	require.Eventually(t, func() bool { return len(a.gameStates(t)) >= 2 }, time.Second, 5*time.Millisecond)
	states := a.gameStates(t)
	assert.Equal(t, game.LaneCount/2+1, states[len(states)-1].Players[0].Lane)
}

func TestUnreachableConnIsDropped(t *testing.T) {
	m, sched := newTestManager(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.JoinRoom(code, b, "bob")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)
	task := sched.task(t)

	b.refuse.Store(true)
	require.True(t, task.tick())
	require.True(t, task.tick(), "room keeps ticking past a refusing conn")

	require.Eventually(t, b.closed.Load, time.Second, 5*time.Millisecond)
	rooms := m.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 1, rooms[0].Players)
	a.waitFor(t, protocol.MsgGameState)

	left := decodeJSON[protocol.PlayerLeft](t, a.waitFor(t, protocol.MsgPlayerLeft))
	assert.Equal(t, "b", left.PlayerID)
	_, ok := m.RoomOf("b")
	assert.False(t, ok, "dropped conn must not stay mapped to the room")
}

func TestCreateRoomLeavesPreviousRoom(t *testing.T) {
	m, _ := newTestManager(t)
	a := newFakeConn("a")
	first, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	second, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	rooms := m.ListRooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, second, rooms[0].Code)
	code, ok := m.RoomOf("a")
	assert.True(t, ok)
	assert.Equal(t, second, code)
}

func TestMsgpackConnGetsBinaryFrames(t *testing.T) {
	m, sched := newTestManager(t)
	a := newFakeConn("a")
	a.codec = protocol.CodecMsgpack
	code, _, err := m.CreateRoom(a, "alice")
	require.NoError(t, err)
	_, err = m.StartMatch(code)
	require.NoError(t, err)
	require.True(t, sched.task(t).tick())

	fr := a.waitFor(t, protocol.MsgGameState)
	typ, st, err := protocol.DecodeBinary[protocol.GameState](fr.raw)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgGameState, typ)
	assert.Equal(t, protocol.StatePlaying, st.GameState)
	require.Len(t, st.Players, 1)
	assert.Equal(t, "alice", st.Players[0].Name)
}

func TestShutdownStopsRooms(t *testing.T) {
	m, _ := newTestManager(t)
	_, _, err := m.CreateRoom(newFakeConn("a"), "alice")
	require.NoError(t, err)
	_, _, err = m.CreateRoom(newFakeConn("b"), "bob")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("shutdown hung")
	}
	assert.Empty(t, m.ListRooms())
}

func TestTickTaskCancelIsIdempotent(t *testing.T) {
	task := NewTickTask(time.Millisecond)
	assert.False(t, task.Cancelled())
	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel())
	assert.True(t, task.Cancelled())
}

func TestGenerateCodeAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := generateCode(codeLength)
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeChars, string(c))
		}
	}
	assert.Equal(t, "AB3CD", NormalizeCode("  ab3cd "))
}
