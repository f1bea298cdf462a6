package deeplink

// Kind classifies an incoming URL.
type Kind string

const (
	// KindAbsent means no URL was available at all (nil/empty input).
	KindAbsent Kind = "absent"
	// KindSuccess is an auth-success callback.
	KindSuccess Kind = "success"
	// KindError is an auth-error callback.
	KindError Kind = "error"
	// KindUnrecognized is any URL that is not an auth callback of ours.
	KindUnrecognized Kind = "unrecognized"
)

// Params holds the query fields an auth callback may carry. Every field is
// optional; nil means the key was absent from the query string, which is
// distinct from a key present with an empty value.
type Params struct {
	AthleteID *string
	Token     *string
	FirstName *string
	LastName  *string
	Profile   *string
	Error     *string
}

// Result is the classified form of an incoming URL.
//
// RawURL is empty exactly when Kind is KindAbsent; for every other kind it
// preserves the original input string.
type Result struct {
	Kind   Kind
	Params Params
	RawURL string
}

// IsAuthEvent reports whether the result should reach auth consumers.
// Absent and unrecognized URLs are parsed but never forwarded.
func (r Result) IsAuthEvent() bool {
	return r.Kind == KindSuccess || r.Kind == KindError
}
