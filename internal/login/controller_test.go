package login

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/ifitclub/ifit-agent/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) ShowError(message string) {
	n.messages = append(n.messages, message)
}

type recordingNavigator struct {
	homeShown int
}

func (n *recordingNavigator) ShowAuthenticatedHome() {
	n.homeShown++
}

type fixture struct {
	store    *storage.Memory
	sessions *session.Manager
	notifier *recordingNotifier
	nav      *recordingNavigator
	ctrl     *Controller
}

func newFixture(t *testing.T, apiHandler http.Handler) (*fixture, func()) {
	t.Helper()

	srv := httptest.NewServer(apiHandler)

	store := storage.NewMemory()
	parser := deeplink.NewParser("ifitclub")
	sessions := session.NewManager(store, parser, zap.NewNop())
	sessions.Bootstrap(context.Background())

	notifier := &recordingNotifier{}
	nav := &recordingNavigator{}
	client := api.NewClient(srv.URL, sessions, 0)
	ctrl := NewController(sessions, client, store, notifier, nav, zap.NewNop(), 0)
	ctrl.delay = 0

	return &fixture{
		store:    store,
		sessions: sessions,
		notifier: notifier,
		nav:      nav,
		ctrl:     ctrl,
	}, srv.Close
}

func okAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/athletes/42/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"athleteId":42,"firstName":"Jane","lastName":"Doe","profile":"https://cdn/a.jpg"}}`))
	})
	mux.HandleFunc("/athletes/42/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"athleteId":42,"totalActivities":10}}`))
	})
	mux.HandleFunc("/athletes/42/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"id":1,"name":"Morning Run"}]}`))
	})
	return mux
}

func pendingSuccess(f *fixture, raw string) {
	res := deeplink.NewParser("ifitclub").Parse(raw)
	f.sessions.SetPendingEvent(res)
}

func TestProcessNoPendingEvent(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	assert.Equal(t, OutcomeNone, f.ctrl.Process(context.Background()))
	assert.Equal(t, 0, f.nav.homeShown)
}

func TestProcessSuccessCommitsSessionAndPrefetches(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	pendingSuccess(f, "ifitclub://auth-success?athleteId=42&token=abc&firstName=Jane&lastName=Doe")

	outcome := f.ctrl.Process(context.Background())
	assert.Equal(t, OutcomeLoggedIn, outcome)
	assert.Equal(t, 1, f.nav.homeShown)
	assert.Empty(t, f.notifier.messages)

	require.True(t, f.sessions.IsAuthenticated())
	sess, _ := f.sessions.Current()
	assert.Equal(t, int64(42), sess.AthleteID)
	assert.Equal(t, "abc", sess.Token)

	ctx := context.Background()
	for _, key := range []string{
		session.KeyCachedProfile,
		session.KeyCachedStats,
		session.KeyCachedActivities,
	} {
		v, err := f.store.Get(ctx, key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, v, key)
	}

	// The event was consumed; a second Process finds nothing.
	assert.Equal(t, OutcomeNone, f.ctrl.Process(context.Background()))
}

func TestProcessSuccessPrefetchFailureIsSwallowed(t *testing.T) {
	f, done := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer done()

	pendingSuccess(f, "ifitclub://auth-success?athleteId=42&token=abc")

	outcome := f.ctrl.Process(context.Background())
	assert.Equal(t, OutcomeLoggedIn, outcome)
	assert.True(t, f.sessions.IsAuthenticated())
	assert.Empty(t, f.notifier.messages)
	assert.Equal(t, 1, f.nav.homeShown)

	// Cache keys were skipped, not errored.
	_, err := f.store.Get(context.Background(), session.KeyCachedStats)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestProcessSuccessMissingAthleteID(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	pendingSuccess(f, "ifitclub://auth-success?token=abc")

	outcome := f.ctrl.Process(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	assert.False(t, f.sessions.IsAuthenticated())
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, 0, f.nav.homeShown)
}

func TestProcessSuccessMissingToken(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	pendingSuccess(f, "ifitclub://auth-success?athleteId=42")

	assert.Equal(t, OutcomeFailed, f.ctrl.Process(context.Background()))
	assert.False(t, f.sessions.IsAuthenticated())
}

func TestProcessSuccessNonNumericAthleteID(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	pendingSuccess(f, "ifitclub://auth-success?athleteId=forty-two&token=abc")

	assert.Equal(t, OutcomeFailed, f.ctrl.Process(context.Background()))
	assert.False(t, f.sessions.IsAuthenticated())
}

func TestProcessErrorEventSurfacesMessage(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	res := deeplink.NewParser("ifitclub").Parse("ifitclub://auth-error?error=User%20cancelled")
	f.sessions.SetPendingEvent(res)

	outcome := f.ctrl.Process(context.Background())
	assert.Equal(t, OutcomeFailed, outcome)
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, "User cancelled", f.notifier.messages[0])
	assert.False(t, f.sessions.IsAuthenticated())
	assert.Equal(t, 0, f.nav.homeShown)
}

func TestProcessErrorEventFallbackMessage(t *testing.T) {
	f, done := newFixture(t, okAPI())
	defer done()

	res := deeplink.NewParser("ifitclub").Parse("ifitclub://auth-error")
	f.sessions.SetPendingEvent(res)

	assert.Equal(t, OutcomeFailed, f.ctrl.Process(context.Background()))
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, fallbackErrorMessage, f.notifier.messages[0])
}

type failingLoginStore struct {
	*storage.Memory
}

func (f failingLoginStore) SetMulti(context.Context, map[string]string) error {
	return errors.New("disk full")
}

func TestProcessSuccessLoginPersistenceFailure(t *testing.T) {
	srv := httptest.NewServer(okAPI())
	defer srv.Close()

	store := failingLoginStore{storage.NewMemory()}
	parser := deeplink.NewParser("ifitclub")
	sessions := session.NewManager(store, parser, zap.NewNop())
	sessions.Bootstrap(context.Background())

	notifier := &recordingNotifier{}
	nav := &recordingNavigator{}
	ctrl := NewController(sessions, api.NewClient(srv.URL, sessions, 0), store, notifier, nav, zap.NewNop(), 0)
	ctrl.delay = 0

	sessions.SetPendingEvent(parser.Parse("ifitclub://auth-success?athleteId=42&token=abc"))

	assert.Equal(t, OutcomeFailed, ctrl.Process(context.Background()))
	assert.False(t, sessions.IsAuthenticated())
	require.Len(t, notifier.messages, 1)
	assert.Equal(t, fallbackErrorMessage, notifier.messages[0])
	assert.Equal(t, 0, nav.homeShown)
}
