package deeplink

import (
	"net/url"
	"strings"
)

// DefaultScheme is the URL scheme the platform registers for the app.
const DefaultScheme = "ifitclub"

// Route markers the provider redirects to after the OAuth flow.
const (
	routeSuccess = "auth-success"
	routeError   = "auth-error"
)

// Parser classifies incoming URLs. It is pure: no I/O, no shared state,
// deterministic on its input.
type Parser struct {
	scheme string
}

// NewParser returns a parser for the given scheme. An empty scheme falls
// back to DefaultScheme.
func NewParser(scheme string) *Parser {
	if scheme == "" {
		scheme = DefaultScheme
	}
	return &Parser{scheme: scheme}
}

// Scheme returns the scheme this parser matches against.
func (p *Parser) Scheme() string {
	return p.scheme
}

// Parse classifies and decodes a raw URL string.
//
// An empty input yields KindAbsent. Input that does not start with the
// registered scheme, or that names a route other than auth-success or
// auth-error, yields KindUnrecognized with all-nil params. Malformed
// percent-encoding in a query value never fails the parse; the affected
// field decodes to nil instead.
func (p *Parser) Parse(raw string) Result {
	if raw == "" {
		return Result{Kind: KindAbsent}
	}

	prefix := p.scheme + "://"
	if !strings.HasPrefix(raw, prefix) {
		return Result{Kind: KindUnrecognized, RawURL: raw}
	}

	rest := strings.TrimPrefix(raw, prefix)
	route, query, _ := strings.Cut(rest, "?")
	route = strings.Trim(route, "/")

	var kind Kind
	switch route {
	case routeSuccess:
		kind = KindSuccess
	case routeError:
		kind = KindError
	default:
		return Result{Kind: KindUnrecognized, RawURL: raw}
	}

	return Result{
		Kind:   kind,
		Params: decodeQuery(query),
		RawURL: raw,
	}
}

// decodeQuery splits a raw query string into the recognized callback params.
// It deliberately avoids url.ParseQuery, which rejects the whole query on the
// first bad escape: here a value that fails percent-decoding only nils out
// its own field.
func decodeQuery(query string) Params {
	var params Params
	if query == "" {
		return params
	}

	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")

		decoded, err := url.QueryUnescape(value)
		if err != nil {
			// Keep the key's presence but drop the undecodable value.
			continue
		}

		switch key {
		case "athleteId":
			params.AthleteID = &decoded
		case "token":
			params.Token = &decoded
		case "firstName":
			params.FirstName = &decoded
		case "lastName":
			params.LastName = &decoded
		case "profile":
			params.Profile = &decoded
		case "error":
			params.Error = &decoded
		}
	}

	return params
}

// EncodeQuery renders params back into a query string. Nil fields are
// omitted; present-but-empty fields are kept. Used by the loopback callback
// server to rebuild the scheme URL from a provider redirect, and by tests
// for the encode/decode round trip.
func EncodeQuery(params Params) string {
	values := url.Values{}
	set := func(key string, v *string) {
		if v != nil {
			values.Set(key, *v)
		}
	}
	set("athleteId", params.AthleteID)
	set("token", params.Token)
	set("firstName", params.FirstName)
	set("lastName", params.LastName)
	set("profile", params.Profile)
	set("error", params.Error)
	return values.Encode()
}
