// Package login turns pending auth callbacks into committed sessions. It is
// the single consumer of the session manager's pending-event slot.
package login

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/ifitclub/ifit-agent/internal/storage"
	"go.uber.org/zap"
)

// fallbackErrorMessage is shown when an auth-error callback carries no
// message of its own.
const fallbackErrorMessage = "Authentication failed. Please try again."

// navigateDelay smooths the transition to the authenticated view so the
// success state is visible for a moment. Purely cosmetic.
const navigateDelay = 300 * time.Millisecond

// Notifier surfaces user-facing messages. The CLI writes to the terminal; a
// richer shell would show a dialog.
type Notifier interface {
	// ShowError presents a blocking, acknowledgeable error. The user may
	// retry by re-launching the OAuth flow; retry is offered, never
	// automatic.
	ShowError(message string)
}

// Navigator moves the shell between its unauthenticated and authenticated
// roots.
type Navigator interface {
	ShowAuthenticatedHome()
}

// Outcome reports what a Process call did.
type Outcome int

const (
	// OutcomeNone means no pending event was waiting.
	OutcomeNone Outcome = iota
	// OutcomeLoggedIn means a session was committed.
	OutcomeLoggedIn
	// OutcomeFailed means the event was consumed but no session resulted;
	// the user has been notified.
	OutcomeFailed
)

// Controller consumes pending auth events.
type Controller struct {
	sessions *session.Manager
	client   *api.Client
	store    storage.Store
	notifier Notifier
	nav      Navigator
	logger   *zap.Logger

	pageSize int
	delay    time.Duration
}

// NewController wires the consumer. pageSize bounds the activity prefetch;
// zero means api.DefaultPageSize.
func NewController(
	sessions *session.Manager,
	client *api.Client,
	store storage.Store,
	notifier Notifier,
	nav Navigator,
	logger *zap.Logger,
	pageSize int,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = api.DefaultPageSize
	}
	return &Controller{
		sessions: sessions,
		client:   client,
		store:    store,
		notifier: notifier,
		nav:      nav,
		logger:   logger,
		pageSize: pageSize,
		delay:    navigateDelay,
	}
}

// Process consumes at most one pending auth event. The slot is cleared
// before any network or storage work starts, so a second delivery racing in
// during a slow step can never cause the same event to run twice.
func (c *Controller) Process(ctx context.Context) Outcome {
	event, ok := c.sessions.ConsumePendingEvent()
	if !ok {
		return OutcomeNone
	}

	switch event.Kind {
	case deeplink.KindSuccess:
		return c.processSuccess(ctx, event)
	case deeplink.KindError:
		message := fallbackErrorMessage
		if event.Params.Error != nil && *event.Params.Error != "" {
			message = *event.Params.Error
		}
		c.logger.Info("auth callback reported an error", zap.String("message", message))
		c.notifier.ShowError(message)
		return OutcomeFailed
	default:
		// The listener never forwards these; guard anyway.
		c.logger.Warn("ignoring non-auth event in pending slot", zap.String("kind", string(event.Kind)))
		return OutcomeNone
	}
}

func (c *Controller) processSuccess(ctx context.Context, event deeplink.Result) Outcome {
	params := event.Params

	// A success marker without both identifiers is a validation failure,
	// not a crash.
	if params.AthleteID == nil || params.Token == nil {
		c.logger.Warn("success callback missing required fields",
			zap.Bool("has_athlete_id", params.AthleteID != nil),
			zap.Bool("has_token", params.Token != nil),
		)
		c.notifier.ShowError("The sign-in response was incomplete. Please try again.")
		return OutcomeFailed
	}

	athleteID, err := strconv.ParseInt(*params.AthleteID, 10, 64)
	if err != nil {
		c.logger.Warn("success callback athlete id is not numeric", zap.String("value", *params.AthleteID))
		c.notifier.ShowError("The sign-in response was incomplete. Please try again.")
		return OutcomeFailed
	}

	user := session.User{AthleteID: athleteID}
	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Profile != nil {
		user.AvatarURL = *params.Profile
	}

	if err := c.sessions.Login(ctx, *params.Token, user); err != nil {
		c.logger.Error("failed to commit session", zap.Error(err))
		c.notifier.ShowError(fallbackErrorMessage)
		return OutcomeFailed
	}

	// Login is committed; everything from here is best-effort enrichment
	// and must never surface as a failure. Steps run sequentially so the
	// cache write order stays predictable.
	c.prefetch(ctx, athleteID)

	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
		}
	}
	c.nav.ShowAuthenticatedHome()
	return OutcomeLoggedIn
}

func (c *Controller) prefetch(ctx context.Context, athleteID int64) {
	if profile, err := c.client.GetProfile(ctx, athleteID); err != nil {
		c.logger.Warn("profile prefetch skipped", zap.Error(err))
	} else {
		c.cache(ctx, session.KeyCachedProfile, profile)
	}

	if stats, err := c.client.GetStats(ctx, athleteID); err != nil {
		c.logger.Warn("stats prefetch skipped", zap.Error(err))
	} else {
		c.cache(ctx, session.KeyCachedStats, stats)
	}

	if activities, err := c.client.GetActivities(ctx, athleteID, 1, c.pageSize); err != nil {
		c.logger.Warn("activities prefetch skipped", zap.Error(err))
	} else {
		c.cache(ctx, session.KeyCachedActivities, activities)
	}
}

func (c *Controller) cache(ctx context.Context, key string, value any) {
	blob, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode skipped", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, string(blob)); err != nil {
		c.logger.Warn("cache write skipped", zap.String("key", key), zap.Error(err))
	}
}
