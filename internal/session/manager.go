package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/storage"
	"go.uber.org/zap"
)

// Manager is the single owner of session state for the process. It is
// constructed once, bootstrapped before any consumer reads State, and
// shared by reference with every component that needs it.
type Manager struct {
	store  storage.Store
	parser *deeplink.Parser
	logger *zap.Logger

	mu            sync.Mutex
	state         State
	session       *Session
	pending       *deeplink.Result
	launchChecked bool
}

// NewManager creates a manager in StateUnknown.
func NewManager(store storage.Store, parser *deeplink.Parser, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		parser: parser,
		logger: logger,
		state:  StateUnknown,
	}
}

// Bootstrap loads any persisted session from storage. It runs once at
// process start; until it returns, State reports StateUnknown. Storage
// failures fail open: the process comes up unauthenticated rather than
// crashing on a storage hiccup.
func (m *Manager) Bootstrap(ctx context.Context) {
	sess := m.loadStoredSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess != nil {
		m.session = sess
		m.state = StateAuthenticated
		m.logger.Info("restored session from storage", zap.Int64("athlete_id", sess.AthleteID))
	} else {
		m.state = StateUnauthenticated
	}
}

func (m *Manager) loadStoredSession(ctx context.Context) *Session {
	flag, err := m.store.Get(ctx, KeyLoggedIn)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("storage read failed during bootstrap, treating as logged out", zap.Error(err))
		}
		return nil
	}
	if flag != "true" {
		return nil
	}

	token, err := m.store.Get(ctx, KeyAuthToken)
	if err != nil || token == "" {
		return nil
	}

	idRaw, err := m.store.Get(ctx, KeyAthleteID)
	if err != nil {
		return nil
	}
	athleteID, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		m.logger.Warn("stored athlete id is not numeric, treating as logged out", zap.String("value", idRaw))
		return nil
	}

	sess := &Session{Token: token, AthleteID: athleteID}

	// Profile cache is optional enrichment; its absence leaves the name
	// fields empty.
	if raw, err := m.store.Get(ctx, KeyCachedProfile); err == nil {
		var profile cachedProfile
		if err := json.Unmarshal([]byte(raw), &profile); err == nil {
			sess.FirstName = profile.FirstName
			sess.LastName = profile.LastName
			sess.AvatarURL = profile.AvatarURL
		}
	}

	return sess
}

// Login commits a new authenticated session. The persisted fields are
// written as one atomic batch; if that write fails, in-memory state is left
// exactly as it was.
func (m *Manager) Login(ctx context.Context, token string, user User) error {
	if token == "" {
		return fmt.Errorf("login requires a token")
	}

	profileJSON, err := json.Marshal(cachedProfile{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarURL,
	})
	if err != nil {
		return fmt.Errorf("failed to encode profile fragment: %w", err)
	}

	err = m.store.SetMulti(ctx, map[string]string{
		KeyAuthToken:     token,
		KeyAthleteID:     strconv.FormatInt(user.AthleteID, 10),
		KeyLoggedIn:      "true",
		KeyCachedProfile: string(profileJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.mu.Lock()
	m.session = &Session{
		Token:     token,
		AthleteID: user.AthleteID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarURL,
	}
	m.state = StateAuthenticated
	m.mu.Unlock()

	m.logger.Info("session committed", zap.Int64("athlete_id", user.AthleteID))
	return nil
}

// Logout erases every key this component and its collaborators ever wrote.
// In-memory state flips only after the erase succeeds, so a failed logout
// does not strand a half-cleared session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, AllKeys...); err != nil {
		return fmt.Errorf("failed to erase session: %w", err)
	}

	m.mu.Lock()
	m.session = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()

	m.logger.Info("session cleared")
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether a committed session exists.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// Current returns a copy of the committed session, if any.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Token returns the current bearer credential for outgoing API requests.
// It satisfies the API client's token provider seam.
func (m *Manager) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return "", false
	}
	return m.session.Token, true
}

// SetPendingEvent stores an auth callback for the active consumer. The slot
// holds at most one event; a second arrival before consumption overwrites
// the first (last-write-wins, no queue). Non-auth results are ignored.
func (m *Manager) SetPendingEvent(res deeplink.Result) {
	if !res.IsAuthEvent() {
		return
	}

	m.mu.Lock()
	if m.pending != nil {
		m.logger.Debug("overwriting unconsumed pending auth event",
			zap.String("previous", string(m.pending.Kind)),
			zap.String("next", string(res.Kind)),
		)
	}
	m.pending = &res
	m.mu.Unlock()
}

// ConsumePendingEvent returns the pending auth event and clears the slot in
// the same step, so an event is processed at most once.
func (m *Manager) ConsumePendingEvent() (deeplink.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil {
		return deeplink.Result{}, false
	}
	res := *m.pending
	m.pending = nil
	return res, true
}

// HasPendingEvent reports whether an unconsumed auth event is waiting.
func (m *Manager) HasPendingEvent() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// CheckLaunchURL inspects the source's cold-start URL and, if it is an auth
// callback, parks it in the pending slot. This duplicates the listener's
// own launch check on purpose: whichever of the two fires first wins, and
// the second arrival of the same URL produces the identical event, so the
// overlap is harmless. The check itself runs at most once per process.
func (m *Manager) CheckLaunchURL(source deeplink.Source) {
	m.mu.Lock()
	if m.launchChecked {
		m.mu.Unlock()
		return
	}
	m.launchChecked = true
	m.mu.Unlock()

	raw, ok := source.LaunchURL()
	if !ok {
		return
	}

	res := m.parser.Parse(raw)
	if res.IsAuthEvent() {
		m.logger.Info("captured auth callback from launch URL", zap.String("kind", string(res.Kind)))
		m.SetPendingEvent(res)
	}
}
