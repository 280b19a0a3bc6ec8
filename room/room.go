package room

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lanerush/game"
	"lanerush/protocol"
	"lanerush/score"
)

const scoreTimeout = 5 * time.Second

// Settings configures every room a Manager creates.
type Settings struct {
	Config    game.Config
	TickHz    int
	Scheduler Scheduler
	Scores    score.Recorder
	Logger    *zap.SugaredLogger
	// NewRand seeds each match; nil means a random PCG seed.
	NewRand func() *rand.Rand
}

func (s Settings) withDefaults() Settings {
	if s.TickHz <= 0 {
		s.TickHz = protocol.SimTickHz
	}
	if s.Scheduler == nil {
		s.Scheduler = TickerScheduler{}
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop().Sugar()
	}
	if s.NewRand == nil {
		s.NewRand = func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		}
	}
	return s
}

type participant struct {
	conn  Conn
	name  string
	index int
}

// Room owns one match. All of its state is touched only by the Run
// goroutine; other goroutines talk to it through Inbox.
type Room struct {
	Inbox chan any

	Code    string                    // room code (e.g. "K7QX2")
	OnEmpty func(code string)         // called when last participant leaves
	OnLeave func(code, connID string) // called for every participant removed

	settings Settings
	interval time.Duration
	dt       float64
	logger   *zap.SugaredLogger

	participants []*participant
	nextIndex    int
	emptied      bool

	match   *game.Match
	matchID string
	task    Task

	members atomic.Int32
	phase   atomic.Uint32

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func New(code string, s Settings) *Room {
	s = s.withDefaults()
	return &Room{
		Inbox:    make(chan any, 256),
		Code:     code,
		settings: s,
		interval: time.Second / time.Duration(s.TickHz),
		dt:       1 / float64(s.TickHz),
		logger:   s.Logger.With("room", code),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Stop asks Run to exit. Safe to call more than once and from Run itself.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done is closed once Run has returned.
func (r *Room) Done() <-chan struct{} {
	return r.done
}

// NumPlayers returns the current number of participants.
func (r *Room) NumPlayers() int {
	return int(r.members.Load())
}

func (r *Room) Phase() game.Phase {
	return game.Phase(r.phase.Load())
}

func (r *Room) Run() {
	defer close(r.done)
	defer r.cancelTick()

	for {
		var tick <-chan time.Time
		if r.task != nil && r.Phase() == game.PhasePlaying {
			tick = r.task.C()
		}
		select {
		case <-r.quit:
			return
		case cmd := <-r.Inbox:
			r.handleCommand(cmd)
		case <-tick:
			r.tick()
		}
	}
}

// send delivers cmd unless the room has already shut down.
func (r *Room) send(cmd any) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.Inbox <- cmd:
		return true
	case <-r.done:
		return false
	}
}

func (r *Room) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		idx, err := r.handleJoin(c.Conn, c.Name)
		c.Reply <- JoinResult{Index: idx, Err: err}
	case Start:
		ok := r.handleStart()
		if c.Reply != nil {
			c.Reply <- ok
		}
	case Input:
		r.handleInput(c.ConnID, c.Action)
	case Leave:
		res := r.handleLeave(c.ConnID)
		if c.Reply != nil {
			c.Reply <- res
		}
	}
}

func (r *Room) find(connID string) (int, *participant) {
	for i, p := range r.participants {
		if p.conn.ID() == connID {
			return i, p
		}
	}
	return -1, nil
}

func (r *Room) playerInfos() []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, protocol.PlayerInfo{Name: p.name, ID: p.conn.ID(), Index: p.index})
	}
	return out
}

func (r *Room) handleJoin(c Conn, name string) (int, error) {
	if r.emptied || r.Phase() != game.PhaseWaiting {
		return 0, ErrRoomNotFound
	}
	if _, p := r.find(c.ID()); p != nil {
		return p.index, nil
	}
	if name == "" {
		name = "Guest"
	}
	p := &participant{conn: c, name: name, index: r.nextIndex}
	r.nextIndex++

	r.participants = append(r.participants, p)
	r.members.Store(int32(len(r.participants)))

	info := protocol.PlayerInfo{Name: name, ID: c.ID(), Index: p.index}
	r.broadcastExcept(c.ID(), protocol.MsgPlayerJoined, info)

	r.sendTo(p, protocol.MsgRoomJoined, protocol.RoomJoined{
		RoomID:      r.Code,
		Players:     r.playerInfos(),
		PlayerIndex: p.index,
	})
	r.logger.Infow("participant joined", "conn", c.ID(), "index", p.index, "name", name)
	return p.index, nil
}

func (r *Room) handleStart() bool {
	if r.emptied || r.Phase() != game.PhaseWaiting || len(r.participants) == 0 {
		return false
	}
	entrants := make([]game.Entrant, 0, len(r.participants))
	for _, p := range r.participants {
		entrants = append(entrants, game.Entrant{Index: p.index, Name: p.name})
	}
	m, err := game.NewMatch(r.settings.Config, entrants, r.settings.NewRand())
	if err != nil {
		r.logger.Errorw("failed to build match", "error", err)
		return false
	}
	m.Start()
	r.match = m
	r.matchID = uuid.NewString()
	r.phase.Store(uint32(game.PhasePlaying))

	r.broadcast(protocol.MsgGameStarted, protocol.GameStarted{})
	r.task = r.settings.Scheduler.Start(r.interval)
	r.logger.Infow("match started", "match", r.matchID, "players", len(entrants))
	return true
}

func (r *Room) handleInput(connID string, a game.Action) {
	if r.match == nil || r.Phase() != game.PhasePlaying {
		return
	}
	_, p := r.find(connID)
	if p == nil {
		return
	}
	r.match.ApplyInput(p.index, a)
}

func (r *Room) handleLeave(connID string) LeaveResult {
	i, p := r.find(connID)
	if p == nil {
		return LeaveResult{Remaining: len(r.participants)}
	}
	r.remove(i)
	r.logger.Infow("participant left", "conn", connID, "index", p.index)
	r.checkEmpty()
	return LeaveResult{Found: true, Remaining: len(r.participants)}
}

// remove drops participant i and tells the others. Its player, if a match
// is running, stays in the simulation flagged as abandoned.
func (r *Room) remove(i int) {
	p := r.participants[i]
	r.participants = append(r.participants[:i], r.participants[i+1:]...)
	r.members.Store(int32(len(r.participants)))
	if r.match != nil {
		r.match.Abandon(p.index)
	}
	if r.OnLeave != nil {
		r.OnLeave(r.Code, p.conn.ID())
	}
	r.broadcast(protocol.MsgPlayerLeft, protocol.PlayerLeft{PlayerID: p.conn.ID()})
}

func (r *Room) checkEmpty() {
	if len(r.participants) > 0 || r.emptied {
		return
	}
	r.emptied = true
	r.cancelTick()
	if r.OnEmpty != nil && r.Code != "" {
		r.OnEmpty(r.Code)
	}
}

func (r *Room) cancelTick() {
	if r.task != nil && r.task.Cancel() {
		r.logger.Debugw("tick cancelled", "match", r.matchID)
	}
}

func (r *Room) tick() {
	if r.match == nil || !r.match.Step(r.dt) {
		return
	}
	snap := r.match.Snapshot()
	r.broadcast(protocol.MsgGameState, buildGameState(snap))
	if snap.Phase == game.PhaseEnded {
		r.phase.Store(uint32(game.PhaseEnded))
		r.cancelTick()
		r.logger.Infow("match ended", "match", r.matchID, "tick", snap.Tick)
		r.recordScores(snap)
	}
}

func (r *Room) recordScores(snap game.Snapshot) {
	rec := r.settings.Scores
	if rec == nil {
		return
	}
	matchID := r.matchID
	logger := r.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
		defer cancel()
		for _, p := range snap.Players {
			ok, err := rec.RecordScore(ctx, p.Name, p.Score, matchID)
			if err != nil {
				logger.Warnw("failed to record score", "match", matchID, "player", p.Name, "error", err)
				continue
			}
			logger.Debugw("score recorded", "match", matchID, "player", p.Name, "score", p.Score, "best", ok)
		}
	}()
}

func (r *Room) sendTo(p *participant, t string, payload any) {
	b, err := protocol.EncodeWith(p.conn.Codec(), t, payload)
	if err != nil {
		r.logger.Errorw("encode failed", "type", t, "error", err)
		return
	}
	if err := p.conn.Send(b); err != nil {
		r.logger.Debugw("send failed", "conn", p.conn.ID(), "type", t, "error", err)
	}
}

func (r *Room) broadcast(t string, payload any) {
	r.broadcastExcept("", t, payload)
}

// broadcastExcept encodes payload once per codec in use. Participants whose
// connection refuses the frame are dropped and closed.
func (r *Room) broadcastExcept(skip, t string, payload any) {
	frames := make(map[protocol.Codec][]byte, 2)
	var failed []string
	for _, p := range r.participants {
		if skip != "" && p.conn.ID() == skip {
			continue
		}
		c := p.conn.Codec()
		b, ok := frames[c]
		if !ok {
			var err error
			b, err = protocol.EncodeWith(c, t, payload)
			if err != nil {
				r.logger.Errorw("encode failed", "type", t, "codec", c.String(), "error", err)
				return
			}
			frames[c] = b
		}
		if err := p.conn.Send(b); err != nil {
			failed = append(failed, p.conn.ID())
		}
	}
	for _, id := range failed {
		if i, p := r.find(id); p != nil {
			r.remove(i)
			_ = p.conn.Close()
			r.logger.Warnw("dropped unreachable participant", "conn", id)
		}
	}
	if len(failed) > 0 {
		r.checkEmpty()
	}
}
