package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestParseAbsent(t *testing.T) {
	p := NewParser("")

	res := p.Parse("")
	assert.Equal(t, KindAbsent, res.Kind)
	assert.Equal(t, "", res.RawURL)
	assert.Equal(t, Params{}, res.Params)
}

func TestParseUnrecognizedScheme(t *testing.T) {
	p := NewParser("ifitclub")

	for _, raw := range []string{
		"https://example.com/other",
		"mailto:support@example.com",
		"ifitclubx://auth-success?token=abc",
		"not a url at all",
	} {
		res := p.Parse(raw)
		assert.Equal(t, KindUnrecognized, res.Kind, raw)
		assert.Equal(t, raw, res.RawURL, raw)
		assert.Equal(t, Params{}, res.Params, raw)
	}
}

func TestParseUnknownRoute(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://settings?athleteId=1")
	assert.Equal(t, KindUnrecognized, res.Kind)
	assert.Equal(t, Params{}, res.Params)
}

func TestParseSuccess(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success?athleteId=42&token=abc&firstName=Jane&lastName=Doe")
	require.Equal(t, KindSuccess, res.Kind)

	require.NotNil(t, res.Params.AthleteID)
	assert.Equal(t, "42", *res.Params.AthleteID)
	require.NotNil(t, res.Params.Token)
	assert.Equal(t, "abc", *res.Params.Token)
	require.NotNil(t, res.Params.FirstName)
	assert.Equal(t, "Jane", *res.Params.FirstName)
	require.NotNil(t, res.Params.LastName)
	assert.Equal(t, "Doe", *res.Params.LastName)
	assert.Nil(t, res.Params.Profile)
	assert.Nil(t, res.Params.Error)
}

func TestParseError(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-error?error=User%20cancelled")
	require.Equal(t, KindError, res.Kind)
	require.NotNil(t, res.Params.Error)
	assert.Equal(t, "User cancelled", *res.Params.Error)
	assert.Nil(t, res.Params.AthleteID)
	assert.Nil(t, res.Params.Token)
}

func TestParseEmptyValueIsNotNil(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success?token=&athleteId=7")
	require.Equal(t, KindSuccess, res.Kind)
	require.NotNil(t, res.Params.Token)
	assert.Equal(t, "", *res.Params.Token)
}

func TestParsePercentDecoding(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success?athleteId=42&token=abc&profile=https%3A%2F%2Fcdn.example.com%2Fa.jpg")
	require.Equal(t, KindSuccess, res.Kind)
	require.NotNil(t, res.Params.Profile)
	assert.Equal(t, "https://cdn.example.com/a.jpg", *res.Params.Profile)
}

func TestParseMalformedEscapeDropsFieldOnly(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success?athleteId=42&token=abc&firstName=%zz&lastName=Doe")
	require.Equal(t, KindSuccess, res.Kind)
	assert.Nil(t, res.Params.FirstName)
	require.NotNil(t, res.Params.LastName)
	assert.Equal(t, "Doe", *res.Params.LastName)
	require.NotNil(t, res.Params.AthleteID)
	assert.Equal(t, "42", *res.Params.AthleteID)
}

func TestParseUnrecognizedKeysIgnored(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success?athleteId=1&token=t&utm_source=email")
	require.Equal(t, KindSuccess, res.Kind)
	require.NotNil(t, res.Params.AthleteID)
	require.NotNil(t, res.Params.Token)
}

func TestParseRouteWithSlashes(t *testing.T) {
	p := NewParser("ifitclub")

	res := p.Parse("ifitclub://auth-success/?token=t&athleteId=1")
	assert.Equal(t, KindSuccess, res.Kind)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := NewParser("ifitclub")

	params := Params{
		AthleteID: strptr("42"),
		Token:     strptr("abc"),
		Profile:   strptr("https://cdn.example.com/avatar.jpg?size=big"),
		Error:     strptr("something went wrong & gave up"),
	}

	res := p.Parse("ifitclub://auth-success?" + EncodeQuery(params))
	require.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, params.AthleteID, res.Params.AthleteID)
	assert.Equal(t, params.Token, res.Params.Token)
	assert.Equal(t, params.Profile, res.Params.Profile)
	assert.Equal(t, params.Error, res.Params.Error)
	assert.Nil(t, res.Params.FirstName)
	assert.Nil(t, res.Params.LastName)
}

func TestParseIsDeterministic(t *testing.T) {
	p := NewParser("ifitclub")
	raw := "ifitclub://auth-success?athleteId=42&token=abc"

	first := p.Parse(raw)
	second := p.Parse(raw)
	assert.Equal(t, first, second)
}
