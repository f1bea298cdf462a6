package deeplink

import "sync"

// Source is the seam to the platform's URL dispatch. LaunchURL exposes the
// URL that started the process (cold start), if any; Subscribe registers for
// URLs arriving while the process runs (warm start).
type Source interface {
	// LaunchURL returns the cold-start URL and whether one exists.
	LaunchURL() (string, bool)
	// Subscribe registers fn for live URL deliveries and returns a cancel
	// function releasing the registration.
	Subscribe(fn func(url string)) (cancel func())
}

// StaticSource is a Source with a fixed launch URL and no live channel.
// It backs the handle-url cold-start path and tests.
type StaticSource struct {
	URL string
}

func (s StaticSource) LaunchURL() (string, bool) {
	return s.URL, s.URL != ""
}

func (s StaticSource) Subscribe(func(url string)) func() {
	return func() {}
}

// Hub is a fan-out Source: producers push URLs with Publish, subscribers
// receive them in order. An optional launch URL covers the cold-start check.
type Hub struct {
	mu     sync.Mutex
	launch string
	subs   map[int]func(string)
	nextID int
}

// NewHub returns a Hub with an optional cold-start URL (empty for none).
func NewHub(launchURL string) *Hub {
	return &Hub{
		launch: launchURL,
		subs:   make(map[int]func(string)),
	}
}

func (h *Hub) LaunchURL() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.launch, h.launch != ""
}

func (h *Hub) Subscribe(fn func(url string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish delivers a URL to every current subscriber. Deliveries from a
// single producer are serial; subscriber ordering is unspecified.
func (h *Hub) Publish(url string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(url)
	}
}
