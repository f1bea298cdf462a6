package deeplink

import (
	"sync"

	"go.uber.org/zap"
)

// Handler receives classified auth callbacks from a Listener. Only success
// and error results are delivered; absent and unrecognized URLs are dropped
// after parsing.
type Handler func(Result)

// Listener wires a Parser to a Source. On Start it checks the source's
// launch URL exactly once, then subscribes to live deliveries. Identical
// URLs delivered more than once within a single activation are suppressed;
// Stop clears that dedup state so a re-activation starts clean.
//
// The registered handler lives in a single mutable cell: re-binding while
// active swaps the handler without touching the live subscription
// (last-registered-wins).
type Listener struct {
	parser *Parser
	source Source
	logger *zap.Logger

	mu        sync.Mutex
	handler   Handler
	processed map[string]struct{}
	unsub     func()
	active    bool
}

// NewListener builds a listener over the given parser and source.
func NewListener(parser *Parser, source Source, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		parser: parser,
		source: source,
		logger: logger,
	}
}

// Start activates the listener and returns a stop function. If the listener
// is already active, only the handler cell is updated and the returned stop
// function is a no-op for the subscription.
//
// The launch URL, if any, is parsed and delivered before live listening
// begins. The handler may do asynchronous work; the listener does not wait
// for it before accepting the next delivery.
func (l *Listener) Start(handler Handler) (stop func()) {
	l.mu.Lock()

	l.handler = handler
	if l.active {
		l.mu.Unlock()
		return func() {}
	}

	l.active = true
	l.processed = make(map[string]struct{})
	l.mu.Unlock()

	if raw, ok := l.source.LaunchURL(); ok {
		l.deliver(raw)
	}

	unsub := l.source.Subscribe(l.deliver)

	l.mu.Lock()
	if !l.active {
		// Stopped while we were subscribing.
		l.mu.Unlock()
		unsub()
		return func() {}
	}
	l.unsub = unsub
	l.mu.Unlock()

	return l.Stop
}

// Stop releases the live subscription and clears the dedup set.
func (l *Listener) Stop() {
	l.mu.Lock()
	unsub := l.unsub
	l.unsub = nil
	l.processed = nil
	l.active = false
	l.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Active reports whether the listener currently holds a live subscription.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Listener) deliver(raw string) {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		return
	}
	if _, seen := l.processed[raw]; seen {
		l.mu.Unlock()
		l.logger.Debug("dropping duplicate URL delivery", zap.String("url", raw))
		return
	}
	l.processed[raw] = struct{}{}
	handler := l.handler
	l.mu.Unlock()

	result := l.parser.Parse(raw)
	if !result.IsAuthEvent() {
		l.logger.Debug("ignoring non-auth URL", zap.String("kind", string(result.Kind)))
		return
	}

	if handler != nil {
		handler(result)
	}
}
