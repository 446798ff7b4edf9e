package domain

// PointsPerLevel is the number of points needed to climb one level.
const PointsPerLevel = 100

// Profile holds the gamification state of a user.
type Profile struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

// LevelFor derives the level for a cumulative point total.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// NewProfile returns the starting profile for a user.
func NewProfile(userID string) Profile {
	return Profile{UserID: userID, Points: 0, Level: 1}
}
