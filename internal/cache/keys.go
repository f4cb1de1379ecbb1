package cache

import (
	"fmt"
	"time"

	"arena/internal/models"
)

const (
	LeaderboardKeyPrefix = "leaderboard:%s"
	// LeaderboardVersionKey is bumped whenever scores change.
	LeaderboardVersionKey = "leaderboard:version"
)

const (
	DefaultLeaderboardTTL = 30 * time.Second
)

func LeaderboardKey(window models.LeaderboardWindow) string {
	return fmt.Sprintf(LeaderboardKeyPrefix, window)
}

// LeaderboardKeys lists the keys of every leaderboard window.
func LeaderboardKeys() []string {
	return []string{
		LeaderboardKey(models.WindowAll),
		LeaderboardKey(models.WindowWeek),
		LeaderboardKey(models.WindowMonth),
	}
}
