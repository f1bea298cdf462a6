package api

// envelope is the platform's uniform response wrapper. Callers treat
// Success=false and a transport error identically: skip and continue.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

// Profile is the athlete profile returned by the platform.
type Profile struct {
	AthleteID int64  `json:"athleteId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"profile"`
	City      string `json:"city"`
	Country   string `json:"country"`
}

// Stats is the aggregate statistics blob for an athlete.
type Stats struct {
	AthleteID        int64   `json:"athleteId"`
	TotalActivities  int     `json:"totalActivities"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalDurationSec int64   `json:"totalDurationSec"`
	TotalElevationM  float64 `json:"totalElevationM"`
	WeeklyStreak     int     `json:"weeklyStreak"`
}

// Activity is one entry of an athlete's activity history.
type Activity struct {
	ID          int64   `json:"id"`
	AthleteID   int64   `json:"athleteId"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	StartDate   string  `json:"startDate"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationSec int64   `json:"durationSec"`
	ElevationM  float64 `json:"elevationM"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	AthleteID  int64   `json:"athleteId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	DistanceKm float64 `json:"distanceKm"`
	Points     int     `json:"points"`
}

// Challenge is a platform challenge an athlete can join.
type Challenge struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	GoalKm       float64 `json:"goalKm"`
	ProgressKm   float64 `json:"progressKm"`
	Participants int     `json:"participants"`
	Joined       bool    `json:"joined"`
}
