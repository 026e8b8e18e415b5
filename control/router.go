package control

import (
	"log/slog"
	"time"

	"github.com/opsix/opsix"
)

type (
	// Enqueuer accepts commands without blocking, returning false when a
	// command had to be dropped. *fm.Engine implements it.
	Enqueuer interface {
		Enqueue(opsix.Command) bool
	}

	// Router is the single producer of engine commands. Input sources send
	// events to Events from any goroutine; the Router goroutine translates
	// them and enqueues the commands.
	//
	// Close has a capacity of 1, so a close request never blocks: if the
	// channel is already full, someone else has already asked the router to
	// close. Finished is closed when Run returns.
	Router struct {
		Events   chan any
		Close    chan struct{}
		Finished chan struct{}

		engine     Enqueuer
		translator *Translator
		logger     *slog.Logger
		cmds       []opsix.Command
		dropped    int
	}
)

// EventQueueSize is the capacity of Router.Events.
const EventQueueSize = 1024

func NewRouter(engine Enqueuer, translator *Translator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	if translator == nil {
		translator = &Translator{Channel: OmniChannel}
	}
	return &Router{
		Events:     make(chan any, EventQueueSize),
		Close:      make(chan struct{}, 1),
		Finished:   make(chan struct{}),
		engine:     engine,
		translator: translator,
		logger:     logger,
	}
}

// Send queues an event for the router without blocking. It returns false if
// the event queue was full.
func (r *Router) Send(event any) bool {
	return TrySend(r.Events, event)
}

// Run processes events until a value is sent to Close.
func (r *Router) Run() {
	defer close(r.Finished)
	for {
		select {
		case <-r.Close:
			return
		case e := <-r.Events:
			r.handle(e)
		}
	}
}

// Stop asks the router to close and waits for it, at most timeout. It
// returns false if the router did not finish in time.
func (r *Router) Stop(timeout time.Duration) bool {
	TrySend(r.Close, struct{}{})
	select {
	case <-r.Finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *Router) handle(event any) {
	var err error
	r.cmds, err = r.translator.Translate(event, r.cmds[:0])
	if err != nil {
		r.logger.Warn("could not translate event", "event", event, "err", err)
	}
	for _, c := range r.cmds {
		if !r.engine.Enqueue(c) {
			r.dropped++
			r.logger.Warn("command queue full, command dropped", "command", c, "dropped", r.dropped)
		}
	}
	// release the references to algorithms held by the buffer
	clear(r.cmds)
}
