// Package session owns the authenticated/unauthenticated state machine,
// credential persistence, and the single pending-event slot consumed by the
// login flow.
package session

// Storage keys owned by the session manager and its collaborators. Session
// keys are written only by Login; cache keys are written by Login and the
// post-login prefetch. Logout removes all of them.
const (
	KeyAuthToken        = "authToken"
	KeyAthleteID        = "athleteId"
	KeyLoggedIn         = "isLoggedIn"
	KeyCachedProfile    = "cachedProfile"
	KeyCachedStats      = "cachedStats"
	KeyCachedActivities = "cachedActivities"
)

// AllKeys lists every key this component and its collaborators ever write,
// in logout-erasure order.
var AllKeys = []string{
	KeyAuthToken,
	KeyAthleteID,
	KeyLoggedIn,
	KeyCachedProfile,
	KeyCachedStats,
	KeyCachedActivities,
}

// State is the manager's lifecycle state. StateUnknown covers the window
// between process start and bootstrap completion, so consumers can show a
// loading view instead of flashing the login screen.
type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// User is the identity fragment carried by a successful auth callback.
type User struct {
	AthleteID int64  `json:"athleteId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"profile"`
}

// Session is the committed authenticated identity.
type Session struct {
	Token     string
	AthleteID int64
	FirstName string
	LastName  string
	AvatarURL string
}

// cachedProfile is the JSON shape of the cachedProfile storage key. The
// same shape is written by Login (from callback params) and refined by the
// profile prefetch.
type cachedProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"profile"`
}
