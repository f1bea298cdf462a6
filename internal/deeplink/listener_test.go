package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestListener(launchURL string) (*Listener, *Hub) {
	hub := NewHub(launchURL)
	l := NewListener(NewParser("ifitclub"), hub, zap.NewNop())
	return l, hub
}

func collect(results *[]Result) Handler {
	return func(r Result) {
		*results = append(*results, r)
	}
}

func TestListenerDeliversLaunchURLFirst(t *testing.T) {
	l, hub := newTestListener("ifitclub://auth-success?athleteId=1&token=t")

	var got []Result
	stop := l.Start(collect(&got))
	defer stop()

	require.Len(t, got, 1)
	assert.Equal(t, KindSuccess, got[0].Kind)

	hub.Publish("ifitclub://auth-error?error=nope")
	require.Len(t, got, 2)
	assert.Equal(t, KindError, got[1].Kind)
}

func TestListenerNoLaunchURL(t *testing.T) {
	l, _ := newTestListener("")

	var got []Result
	stop := l.Start(collect(&got))
	defer stop()

	assert.Empty(t, got)
}

func TestListenerSuppressesDuplicates(t *testing.T) {
	l, hub := newTestListener("")

	var got []Result
	stop := l.Start(collect(&got))
	defer stop()

	raw := "ifitclub://auth-success?athleteId=1&token=t"
	hub.Publish(raw)
	hub.Publish(raw)

	assert.Len(t, got, 1)
}

func TestListenerDedupResetsOnRestart(t *testing.T) {
	l, hub := newTestListener("")
	raw := "ifitclub://auth-success?athleteId=1&token=t"

	var got []Result
	stop := l.Start(collect(&got))
	hub.Publish(raw)
	hub.Publish(raw)
	stop()

	stop = l.Start(collect(&got))
	defer stop()
	hub.Publish(raw)

	assert.Len(t, got, 2)
}

func TestListenerFiltersNonAuthURLs(t *testing.T) {
	l, hub := newTestListener("")

	var got []Result
	stop := l.Start(collect(&got))
	defer stop()

	hub.Publish("https://example.com/other")
	hub.Publish("ifitclub://settings")
	hub.Publish("")

	assert.Empty(t, got)
}

func TestListenerStopReleasesSubscription(t *testing.T) {
	l, hub := newTestListener("")

	var got []Result
	stop := l.Start(collect(&got))
	stop()

	hub.Publish("ifitclub://auth-success?athleteId=1&token=t")
	assert.Empty(t, got)
	assert.False(t, l.Active())
}

func TestListenerLastRegisteredHandlerWins(t *testing.T) {
	l, hub := newTestListener("")

	var first, second []Result
	stop := l.Start(collect(&first))
	defer stop()

	// Re-binding while active swaps the handler cell without a new
	// subscription.
	l.Start(collect(&second))

	hub.Publish("ifitclub://auth-success?athleteId=1&token=t")
	assert.Empty(t, first)
	assert.Len(t, second, 1)
}

func TestListenerLaunchURLCountsTowardDedup(t *testing.T) {
	raw := "ifitclub://auth-success?athleteId=1&token=t"
	l, hub := newTestListener(raw)

	var got []Result
	stop := l.Start(collect(&got))
	defer stop()

	hub.Publish(raw)
	assert.Len(t, got, 1)
}
