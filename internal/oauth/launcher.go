// Package oauth starts the external sign-in flow. The provider page opens
// in the system browser; the result comes back later as a deep link, never
// as a return value here.
package oauth

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// softTimeout is how long we wait before noting that no callback has
// arrived. Logged only; the app keeps waiting indefinitely by design.
const softTimeout = 60 * time.Second

// ErrNoBrowser reports that no handler could open the provider URL. This is
// the one launch failure detected synchronously, before any callback is in
// play.
var ErrNoBrowser = fmt.Errorf("no browser available to open the sign-in page; install a browser and retry")

// opener abstracts browser.OpenURL for tests.
type opener func(url string) error

// Launcher opens the provider's authorize page.
type Launcher struct {
	config oauth2.Config
	logger *zap.Logger
	open   opener

	mu    sync.Mutex
	timer *time.Timer
}

// NewLauncher builds a launcher. authURL is the provider's authorize
// endpoint; redirectURL is where the provider sends the browser afterwards
// (the loopback callback server in agent mode).
func NewLauncher(clientID, authURL, redirectURL string, logger *zap.Logger) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{
		config: oauth2.Config{
			ClientID:    clientID,
			Endpoint:    oauth2.Endpoint{AuthURL: authURL},
			RedirectURL: redirectURL,
			Scopes:      []string{"profile", "activity:read"},
		},
		logger: logger,
		open:   browser.OpenURL,
	}
}

// AuthorizeURL renders the provider URL with a fresh state nonce.
func (l *Launcher) AuthorizeURL() (authorizeURL, state string) {
	state = uuid.NewString()
	return l.config.AuthCodeURL(state), state
}

// Launch opens the authorize page in the external browser. Success of the
// sign-in itself is only ever inferred from the deep-link callback; Launch
// returns once the page is handed to the browser.
//
// A soft timer notes when no callback has arrived within a minute. It only
// logs; no state changes and the wait continues.
func (l *Launcher) Launch() (state string, err error) {
	authorizeURL, state := l.AuthorizeURL()

	if err := l.open(authorizeURL); err != nil {
		l.logger.Error("could not open browser for sign-in", zap.Error(err))
		return "", ErrNoBrowser
	}

	l.logger.Info("opened provider sign-in page", zap.String("state", state))

	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(softTimeout, func() {
		l.logger.Warn("no auth callback received yet", zap.Duration("waited", softTimeout))
	})
	l.mu.Unlock()

	return state, nil
}

// Cancel stops the soft-timeout log. It does not and cannot abort the
// external flow; a late callback is still honored.
func (l *Launcher) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
		l.logger.Debug("sign-in wait timer cancelled")
	}
}
