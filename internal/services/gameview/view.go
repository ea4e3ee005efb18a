package gameview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/tictactoe-go/internal/dependencies/clock"
	"github.com/mcoot/tictactoe-go/internal/model"
)

// GameAPI is the slice of the remote API a View drives
type GameAPI interface {
	NewGame(ctx context.Context, opponent model.OpponentType, opponentUsername string) (model.GameID, error)
	GameState(ctx context.Context, id model.GameID) (*model.GameSnapshot, error)
	MakeMove(ctx context.Context, id model.GameID, row, col int) (*model.GameSnapshot, error)
}

// IdentitySource tells the View who is playing. The session store
// satisfies it.
type IdentitySource interface {
	Username() string
}

// Config holds View settings
type Config struct {
	PollInterval time.Duration
}

// DefaultConfig returns the default View settings
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
	}
}

// binding is one bound game id and its cancellation token. A binding is
// never reused: rebinding the same id creates a new one.
type binding struct {
	id     model.GameID
	ctx    context.Context
	cancel context.CancelFunc
	ticker clock.Ticker
}

// View keeps a local copy of one game in sync with the server by polling,
// and issues move and new-game commands. Each View owns its snapshot.
type View struct {
	api      GameAPI
	identity IdentitySource
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	binding   *binding
	snapshot  *model.GameSnapshot
	errMsg    string
	stats     Stats
	listeners map[int]func()
	nextID    int
	closed    bool
	// startGen identifies the current NewGame attempt; unbinding bumps it
	// so a start still in flight is never bound
	startGen uint64

	// life is cancelled by Close and aborts fetches still in flight
	life     context.Context
	lifeStop context.CancelFunc
	loops    sync.WaitGroup
}

// New creates an idle View
func New(api GameAPI, identity IdentitySource, clk clock.Clock, cfg Config, logger *slog.Logger) *View {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	life, lifeStop := context.WithCancel(context.Background())
	return &View{
		life:      life,
		lifeStop:  lifeStop,
		api:       api,
		identity:  identity,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "game_view")),
		state:     StateIdle,
		listeners: make(map[int]func()),
	}
}

// Bind starts polling id: one fetch immediately, then one per interval.
// Any previously bound game is unbound first. Binding a closed View does
// nothing.
func (v *View) Bind(id model.GameID) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		v.logger.Debug("bind on closed view ignored", slog.Int64("game_id", int64(id)))
		return
	}
	v.unbindLocked()
	v.bindLocked(id)
	v.mu.Unlock()

	v.notify()
}

// Unbind stops polling and discards the snapshot. A new game still being
// started will not be bound. Fetches already in flight are not aborted;
// their results are dropped when they arrive.
func (v *View) Unbind() {
	v.mu.Lock()
	changed := v.unbindLocked()
	v.mu.Unlock()

	if changed {
		v.notify()
	}
}

// Close unbinds, aborts fetches in flight and waits for the polling loop
// and fetch goroutines to exit. A closed View cannot be bound again.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()

	v.Unbind()
	v.lifeStop()
	v.loops.Wait()
}

// NewGame asks the server for a new game and binds it. A human opponent
// needs a username. On failure the View goes back to what it was doing
// before and the display error is set.
func (v *View) NewGame(ctx context.Context, opponent model.OpponentType, opponentUsername string) (model.GameID, error) {
	switch opponent {
	case model.OpponentAI:
	case model.OpponentHuman:
		if strings.TrimSpace(opponentUsername) == "" {
			return 0, model.ErrOpponentRequired
		}
	default:
		return 0, fmt.Errorf("%w: %q", model.ErrInvalidOpponentType, opponent)
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, fmt.Errorf("%w: view is closed", model.ErrNoGameBound)
	}
	if v.state == StateStarting {
		v.mu.Unlock()
		return 0, model.ErrGameStarting
	}
	v.startGen++
	gen := v.startGen
	v.state = StateStarting
	v.errMsg = ""
	v.mu.Unlock()
	v.notify()

	id, err := v.api.NewGame(ctx, opponent, strings.TrimSpace(opponentUsername))

	v.mu.Lock()
	if gen != v.startGen {
		v.mu.Unlock()
		v.logger.Debug("new game result dropped, view was unbound while starting",
			slog.String("opponent_type", string(opponent)))
		if err != nil {
			return 0, &model.GameStartError{Err: err}
		}
		return 0, fmt.Errorf("%w: game %d was started after the view was unbound", model.ErrNoGameBound, id)
	}
	if err != nil {
		if v.binding != nil {
			v.state = StatePolling
		} else {
			v.state = StateIdle
		}
		v.errMsg = model.MsgGameStartFailed
		v.mu.Unlock()

		v.logger.Warn("new game failed",
			slog.String("opponent_type", string(opponent)),
			slog.String("error", err.Error()))
		v.notify()
		return 0, &model.GameStartError{Err: err}
	}

	v.unbindLocked()
	v.bindLocked(id)
	v.mu.Unlock()

	v.logger.Info("new game started",
		slog.Int64("game_id", int64(id)),
		slog.String("opponent_type", string(opponent)))
	v.notify()
	return id, nil
}

// MakeMove plays at (row, col). The move is only sent when CanMove allows
// it; otherwise ErrInvalidPosition, ErrNoGameBound or ErrMoveNotAllowed is
// returned and nothing changes. A move the server rejects sets the display
// error and leaves the snapshot as it was.
func (v *View) MakeMove(ctx context.Context, row, col int) (*model.GameSnapshot, error) {
	pos := model.Position{Row: row, Col: col}

	v.mu.Lock()
	if err := v.checkMoveLocked(pos); err != nil {
		v.mu.Unlock()
		return nil, err
	}
	b := v.binding
	v.mu.Unlock()

	snap, err := v.api.MakeMove(ctx, b.id, row, col)

	v.mu.Lock()
	if v.binding != b {
		v.mu.Unlock()
		if err != nil {
			return nil, &model.MoveError{Position: pos, Err: err}
		}
		return nil, fmt.Errorf("%w: game %d was unbound during the move", model.ErrNoGameBound, b.id)
	}
	if err != nil {
		v.errMsg = model.MsgInvalidMove
		v.mu.Unlock()

		v.logger.Debug("move rejected",
			slog.Int64("game_id", int64(b.id)),
			slog.Int("row", row),
			slog.Int("col", col),
			slog.String("error", err.Error()))
		v.notify()
		return nil, &model.MoveError{Position: pos, Err: err}
	}
	v.snapshot = snap
	v.errMsg = ""
	out := snap.Clone()
	v.mu.Unlock()

	v.notify()
	return out, nil
}

// Refresh fetches the bound game now and waits for the result. Unlike a
// polled fetch, a failure is returned to the caller.
func (v *View) Refresh(ctx context.Context) (*model.GameSnapshot, error) {
	v.mu.Lock()
	b := v.binding
	if b == nil {
		v.mu.Unlock()
		return nil, model.ErrNoGameBound
	}
	v.stats.Fetches++
	v.mu.Unlock()

	snap, err := v.api.GameState(ctx, b.id)
	if err != nil {
		v.mu.Lock()
		v.stats.Failed++
		v.mu.Unlock()
		return nil, err
	}
	if !v.apply(b, snap, nil) {
		return nil, fmt.Errorf("%w: game %d was unbound during the refresh", model.ErrNoGameBound, b.id)
	}
	return snap.Clone(), nil
}

// CanMove reports whether a move at (row, col) would be sent: a game is
// bound and polled, its snapshot is not finished, it is the current user's
// turn and the cell is empty.
func (v *View) CanMove(row, col int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checkMoveLocked(model.Position{Row: row, Col: col}) == nil
}

// State returns the current lifecycle state
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// GameID returns the bound game id
func (v *View) GameID() (model.GameID, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.binding == nil {
		return 0, false
	}
	return v.binding.id, true
}

// Snapshot returns a copy of the displayed snapshot, or nil before the
// first successful fetch
func (v *View) Snapshot() *model.GameSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot.Clone()
}

// Error returns the display error, empty when there is none
func (v *View) Error() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.errMsg
}

// Stats returns polling counters
func (v *View) Stats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Subscribe registers fn to run after any change to state, snapshot or
// display error. fn may run on a polling goroutine. The returned func
// unsubscribes.
func (v *View) Subscribe(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *View) checkMoveLocked(pos model.Position) error {
	if !pos.IsValid() {
		return fmt.Errorf("%w: (%d, %d)", model.ErrInvalidPosition, pos.Row, pos.Col)
	}
	if v.state != StatePolling || v.binding == nil {
		return model.ErrNoGameBound
	}

	snap := v.snapshot
	switch {
	case snap == nil:
		return fmt.Errorf("%w: game state not loaded yet", model.ErrMoveNotAllowed)
	case snap.IsTerminal():
		return fmt.Errorf("%w: game is over", model.ErrMoveNotAllowed)
	case !snap.IsTurnOf(v.identity.Username()):
		return fmt.Errorf("%w: not your turn", model.ErrMoveNotAllowed)
	case !snap.Board.IsEmpty(pos):
		return fmt.Errorf("%w: cell (%d, %d) is taken", model.ErrMoveNotAllowed, pos.Row, pos.Col)
	}
	return nil
}

func (v *View) bindLocked(id model.GameID) {
	ctx, cancel := context.WithCancel(context.Background())
	b := &binding{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		ticker: v.clock.NewTicker(v.cfg.PollInterval),
	}

	v.binding = b
	v.snapshot = nil
	v.errMsg = ""
	v.state = StatePolling

	v.logger.Debug("polling started",
		slog.Int64("game_id", int64(id)),
		slog.Duration("interval", v.cfg.PollInterval))

	v.fetchLocked(b)

	v.loops.Add(1)
	go v.poll(b)
}

// unbindLocked reports whether anything was bound or starting
func (v *View) unbindLocked() bool {
	changed := false
	if v.state == StateStarting {
		v.startGen++
		v.state = StateIdle
		changed = true
	}

	b := v.binding
	if b == nil {
		return changed
	}

	b.cancel()
	b.ticker.Stop()
	v.binding = nil
	v.snapshot = nil
	v.state = StateIdle

	v.logger.Debug("polling stopped", slog.Int64("game_id", int64(b.id)))
	return true
}

func (v *View) poll(b *binding) {
	defer v.loops.Done()

	for {
		select {
		case <-b.ctx.Done():
			return
		case <-b.ticker.C():
			v.mu.Lock()
			if v.binding == b {
				v.fetchLocked(b)
			}
			v.mu.Unlock()
		}
	}
}

// fetchLocked issues one fetch on its own goroutine so a slow response
// never holds back the next tick
func (v *View) fetchLocked(b *binding) {
	v.stats.Fetches++

	v.loops.Add(1)
	go func() {
		defer v.loops.Done()
		// Unbinding does not abort requests already sent, closing does
		snap, err := v.api.GameState(v.life, b.id)
		v.apply(b, snap, err)
	}()
}

// apply installs a fetched snapshot if its binding is still current and
// reports whether it did. Within one binding the last response to arrive
// wins, even if it was sent first.
func (v *View) apply(b *binding, snap *model.GameSnapshot, err error) bool {
	v.mu.Lock()
	if v.binding != b {
		v.stats.Discarded++
		v.mu.Unlock()
		v.logger.Debug("discarding fetch for unbound game", slog.Int64("game_id", int64(b.id)))
		return false
	}
	if err != nil {
		v.stats.Suppressed++
		v.mu.Unlock()
		v.logger.Debug("fetch suppressed",
			slog.Int64("game_id", int64(b.id)),
			slog.String("error", err.Error()))
		return false
	}
	v.snapshot = snap
	v.stats.Applied++
	v.mu.Unlock()

	v.notify()
	return true
}

func (v *View) notify() {
	v.mu.Lock()
	listeners := make([]func(), 0, len(v.listeners))
	for id := 0; id < v.nextID; id++ {
		if fn, ok := v.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	v.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
