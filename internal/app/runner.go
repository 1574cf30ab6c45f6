package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

// Default timings of the event loop.
const (
	DefaultTick  = time.Second
	DefaultDwell = 2500 * time.Millisecond
)

// Runner is the event loop of one player. It owns the controller, one countdown
// ticker and one dwell timer; inputs and timer fires are serialized on its goroutine.
type Runner struct {
	ctl     *Controller
	tick    time.Duration
	dwell   time.Duration
	actions chan Action
	events  chan Event
	done    chan struct{}
	log     *zap.Logger
}

func NewRunner(ctl *Controller, tick, dwell time.Duration, log *zap.Logger) *Runner {
	if tick <= 0 {
		tick = DefaultTick
	}
	if dwell <= 0 {
		dwell = DefaultDwell
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		ctl:     ctl,
		tick:    tick,
		dwell:   dwell,
		actions: make(chan Action, 16),
		events:  make(chan Event, 32),
		done:    make(chan struct{}),
		log:     log,
	}
}

// Send enqueues an action. It fails once Run has returned.
func (r *Runner) Send(ctx context.Context, a Action) error {
	select {
	case <-r.done:
		return domain.ErrRunnerStopped
	default:
	}
	select {
	case r.actions <- a:
		return nil
	case <-r.done:
		return domain.ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events streams controller output. The channel is closed when Run returns.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Run processes actions until ctx is cancelled. Pending timers and the session
// are discarded on return.
func (r *Runner) Run(ctx context.Context) {
	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
		dwell  *time.Timer
		dwellC <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	stopDwell := func() {
		if dwell != nil {
			dwell.Stop()
			dwell, dwellC = nil, nil
		}
	}
	defer close(r.events)
	defer close(r.done)
	defer func() {
		stopDwell()
		r.ctl.Session().Reset()
		stopTicker()
	}()

	for {
		var a Action
		select {
		case <-ctx.Done():
			return
		case a = <-r.actions:
		case <-tickC:
			a = Action{Type: ActionTick}
		case <-dwellC:
			dwell, dwellC = nil, nil
			a = Action{Type: ActionContinue}
		}

		events, err := r.ctl.Dispatch(ctx, a)
		if err != nil {
			r.log.Debug("action rejected", zap.String("action", string(a.Type)), zap.Error(err))
			events = []Event{{Type: EventError, Payload: ErrorView{Message: err.Error()}}}
		}

		for _, ev := range events {
			switch ev.Type {
			case EventQuestion:
				stopDwell()
				// Attaching stops the previous countdown first.
				r.ctl.Session().AttachTimer(stopTicker)
				ticker = time.NewTicker(r.tick)
				tickC = ticker.C
			case EventFeedback:
				stopTicker()
				stopDwell()
				dwell = time.NewTimer(r.dwell)
				dwellC = dwell.C
			case EventScreen:
				if view, ok := ev.Payload.(ScreenView); ok && view.Screen != ScreenQuiz {
					stopTicker()
					stopDwell()
				}
			}
			select {
			case r.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}
