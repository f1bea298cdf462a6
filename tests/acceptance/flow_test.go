package acceptance

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ifitclub/ifit-agent/internal/session"
)

func (s *Suite) TestCallback_CommitsSession() {
	resp, err := http.Get(s.BaseURL + "/callback?athleteId=42&token=tok-123&firstName=Jane&lastName=Doe")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), "Signed in")

	s.Require().True(s.Nav.WaitForHome(3*time.Second), "Login should navigate to the authenticated home")

	ctx := context.Background()

	flag, err := s.Store.Get(ctx, session.KeyLoggedIn)
	s.Require().NoError(err)
	s.Equal("true", flag)

	token, err := s.Store.Get(ctx, session.KeyAuthToken)
	s.Require().NoError(err)
	s.Equal("tok-123", token)

	athleteID, err := s.Store.Get(ctx, session.KeyAthleteID)
	s.Require().NoError(err)
	s.Equal("42", athleteID)

	// The post-login prefetch caches profile, stats and one activities page.
	profile, err := s.Store.Get(ctx, session.KeyCachedProfile)
	s.Require().NoError(err)
	s.Contains(profile, "Jane")

	_, err = s.Store.Get(ctx, session.KeyCachedStats)
	s.NoError(err)

	activities, err := s.Store.Get(ctx, session.KeyCachedActivities)
	s.Require().NoError(err)
	s.Contains(activities, "Morning Run")
}

func (s *Suite) TestCallback_ErrorShowsMessage() {
	resp, err := http.Get(s.BaseURL + "/callback?error=User+cancelled")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	message, ok := s.Notifier.WaitForError(3 * time.Second)
	s.Require().True(ok, "Error callback should surface a message")
	s.Equal("User cancelled", message)

	s.Equal(0, s.Nav.Count(), "Error callback must not navigate")

	_, err = s.Store.Get(context.Background(), session.KeyAuthToken)
	s.Error(err, "Error callback must not persist a session")
}

func (s *Suite) TestCallback_MissingFieldsRejected() {
	resp, err := http.Get(s.BaseURL + "/callback?athleteId=42")
	s.Require().NoError(err)
	resp.Body.Close()

	message, ok := s.Notifier.WaitForError(3 * time.Second)
	s.Require().True(ok)
	s.True(strings.Contains(message, "incomplete"), "Got message: %s", message)

	_, err = s.Store.Get(context.Background(), session.KeyLoggedIn)
	s.Error(err)
}

func (s *Suite) TestCallback_DuplicateDeliveryProcessedOnce() {
	const target = "/callback?athleteId=42&token=tok-dup"

	for i := 0; i < 2; i++ {
		resp, err := http.Get(s.BaseURL + target)
		s.Require().NoError(err)
		resp.Body.Close()
	}

	s.Require().True(s.Nav.WaitForHome(3 * time.Second))

	// Give a hypothetical second run time to surface, then confirm the
	// duplicate was suppressed.
	time.Sleep(300 * time.Millisecond)
	s.Equal(1, s.Nav.Count())
	s.Equal(1, s.ProfileHits())
}

func (s *Suite) TestHealthEndpoint() {
	resp, err := http.Get(s.BaseURL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	s.Contains(string(body), "unauthenticated")
}

func (s *Suite) TestMetricsEndpoint() {
	resp, err := http.Get(s.BaseURL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}
