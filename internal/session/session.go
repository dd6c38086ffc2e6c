// Package session runs the guidance loop: capture the screen, ask the
// assistant for one step, display it, wait for the user's confirmation, and
// repeat until a terminal reply or the user closes the overlay.
package session

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/assistant"
)

var (
	// ErrBusy is returned when a round is already in flight; the loop is
	// strictly single-flight.
	ErrBusy = errors.New("session busy")
	// ErrTerminal is returned once the session reached a final state.
	ErrTerminal = errors.New("session finished")
)

// fallbackStep is shown when the backend answers with an empty step.
const fallbackStep = "請依畫面提示操作下一步"

// Config tunes one session.
type Config struct {
	Sentinels Sentinels
	// DismissDelay is how long a terminal message stays visible before the
	// overlay goes away.
	DismissDelay time.Duration
	// SettleDelay is the pause between hiding the overlay and capturing,
	// so the capture does not include the overlay itself.
	SettleDelay time.Duration
	// MaxFailures ends the session after this many consecutive failed
	// rounds. Zero means 3.
	MaxFailures int
	// Listener, when set, observes every state transition. Called from the
	// dispatcher goroutine.
	Listener func(State)
}

type eventKind int

const (
	evSubmit eventKind = iota
	evAck
	evClose
)

type event struct {
	kind    eventKind
	message string
}

// Session is one guidance conversation. All mutation happens on the
// dispatcher goroutine; exported methods only enqueue.
type Session struct {
	id      string
	client  assistant.Client
	capture CaptureProvider
	overlay Overlay
	cfg     Config
	log     *zap.Logger

	events chan event
	done   chan struct{}
	// closed flips the moment the user asks to close, so a round already
	// past capture can drop its reply instead of rendering it.
	closed atomic.Bool
	// busy enforces single-flight: held from Submit/Ack until the round's
	// event has been fully handled.
	busy atomic.Bool

	// Dispatcher-owned fields below.
	state    State
	goal     string
	lastStep string
	round    int
	failures int
	rounds   *RoundLog
	started  time.Time
}

func New(client assistant.Client, capture CaptureProvider, overlay Overlay, cfg Config, log *zap.Logger) *Session {
	if cfg.DismissDelay <= 0 {
		cfg.DismissDelay = 1500 * time.Millisecond
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 300 * time.Millisecond
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Sentinels == (Sentinels{}) {
		cfg.Sentinels = DefaultSentinels()
	}
	return &Session{
		id:      uuid.NewString(),
		client:  client,
		capture: capture,
		overlay: overlay,
		cfg:     cfg,
		log:     log,
		events:  make(chan event, 8),
		done:    make(chan struct{}),
		state:   StateIdle,
		rounds:  NewRoundLog(5, 2),
	}
}

func (s *Session) ID() string { return s.id }

// Done closes when the session reaches a terminal state or its context ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the final state. Only meaningful after Done has closed; the
// dispatcher owns the field until then.
func (s *Session) State() State { return s.state }

// Submit starts a guidance round for one user message. The first message of
// the session becomes the goal; confirmations keep sending it.
func (s *Session) Submit(message string) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	if err := s.enqueue(event{kind: evSubmit, message: message}); err != nil {
		s.busy.Store(false)
		return err
	}
	return nil
}

// Ack confirms the displayed step and asks for the next one.
func (s *Session) Ack() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	if err := s.enqueue(event{kind: evAck}); err != nil {
		s.busy.Store(false)
		return err
	}
	return nil
}

// Close ends the session on the user's request. A round already in flight
// finishes silently: its reply is not rendered.
func (s *Session) Close() {
	s.closed.Store(true)
	_ = s.enqueue(event{kind: evClose})
}

func (s *Session) enqueue(ev event) error {
	select {
	case <-s.done:
		return ErrTerminal
	case s.events <- ev:
		return nil
	default:
		return ErrBusy
	}
}

// Run owns the dispatcher loop. It returns when the session terminates or
// ctx is done.
func (s *Session) Run(ctx context.Context) {
	s.log = s.log.With(zap.String("session", s.id))
	s.started = time.Now()
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			s.setState(StateClosed)
			return
		case ev := <-s.events:
			s.handle(ctx, ev)
			if ev.kind != evClose {
				s.busy.Store(false)
			}
			if s.state.Terminal() {
				return
			}
		}
	}
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.log.Debug("state transition",
		zap.Stringer("from", s.state),
		zap.Stringer("to", st))
	s.state = st
	if s.cfg.Listener != nil {
		s.cfg.Listener(st)
	}
}

func (s *Session) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evClose:
		s.finish(StateClosed, s.cfg.Sentinels.Closed)
	case evSubmit:
		msg := strings.TrimSpace(ev.message)
		if msg == "" {
			return
		}
		if s.goal == "" {
			s.goal = msg
		}
		s.runRound(ctx, msg)
	case evAck:
		if s.state != StateAwaitingAck {
			s.log.Debug("ack ignored", zap.Stringer("state", s.state))
			return
		}
		// The displayed step may already be the success message; confirm
		// it without another backend call.
		if s.cfg.Sentinels.Classify(s.lastStep) == ReplySuccess {
			s.finish(StateSuccess, s.lastStep)
			return
		}
		s.overlay.ClearHighlight()
		s.runRound(ctx, s.goal)
	}
}

// runRound is one full capture → advise → display cycle.
func (s *Session) runRound(ctx context.Context, userMsg string) {
	s.round++
	log := s.log.With(zap.Int("round", s.round))

	s.setState(StateCapturing)
	s.overlay.Hide()
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.cfg.SettleDelay):
	}

	info, err := s.capture.Capture(ctx)
	if err != nil {
		log.Warn("capture failed", zap.Error(err))
		s.roundFailed("無法讀取目前畫面，請再試一次")
		return
	}

	s.overlay.ShowWaiting()
	s.setState(StateAsking)

	// The goal travels verbatim every round; a stuck-step note rides along
	// with the screen summary instead.
	if stuck, note := s.rounds.Stuck(); stuck {
		info.SummaryText = info.SummaryText + "\n" + note
	}

	res, err := s.client.Advise(ctx, assistant.Request{
		UserMessage: userMsg,
		Goal:        s.goal,
		ScreenInfo:  info,
	})
	if err != nil {
		log.Warn("advise failed", zap.Error(err))
		s.roundFailed("取得下一步失敗，請再試一次")
		return
	}
	s.failures = 0

	// A close that raced the round wins: drop the reply unrendered and let
	// the queued close event finish the session.
	if s.closed.Load() {
		log.Debug("reply dropped, session closing")
		return
	}

	message := strings.TrimSpace(res.Message)
	kind := s.cfg.Sentinels.Classify(message)
	s.rounds.Add(s.round, kind, message)
	log.Info("guidance step",
		zap.Int("kind", int(kind)),
		zap.String("message", message))

	switch kind {
	case ReplySuccess:
		s.finish(StateSuccess, message)
	case ReplyClosed:
		s.finish(StateClosed, message)
	case ReplyUnclear:
		// An unclear goal ends the session: the explanation lingers briefly
		// and the overlay dismisses without an acknowledgement control.
		s.finish(StateClosed, message)
	default:
		if message == "" {
			message = fallbackStep
		}
		s.lastStep = message
		s.overlay.ShowStep(message, true)
		if res.Bounds != nil {
			s.overlay.ShowHighlight(*res.Bounds)
		}
		s.setState(StateAwaitingAck)
	}
}

// roundFailed restores the previous step if there was one, or idles the
// overlay; repeated failures terminate the session.
func (s *Session) roundFailed(notice string) {
	s.failures++
	if s.failures >= s.cfg.MaxFailures {
		s.finish(StateErrored, notice)
		return
	}
	if s.lastStep != "" {
		s.overlay.ShowStep(s.lastStep, true)
		s.setState(StateAwaitingAck)
		return
	}
	s.overlay.ShowStep(notice, false)
	s.setState(StateIdle)
}

// finish shows the terminal message, lets it linger, then dismisses.
func (s *Session) finish(st State, message string) {
	s.closed.Store(true)
	if message != "" {
		s.overlay.ShowStep(message, false)
	}
	time.Sleep(s.cfg.DismissDelay)
	s.overlay.Dismiss()
	s.setState(st)
}
