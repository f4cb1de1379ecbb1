package models

import (
	"fmt"
	"strings"
	"time"
)

// User is a registered account. ID is the opaque identifier the debate
// engine trusts.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardWindow selects the time range a leaderboard covers.
type LeaderboardWindow string

const (
	WindowAll   LeaderboardWindow = "all"
	WindowWeek  LeaderboardWindow = "week"
	WindowMonth LeaderboardWindow = "month"
)

// ParseLeaderboardWindow defaults an empty value to WindowAll.
func ParseLeaderboardWindow(raw string) (LeaderboardWindow, error) {
	switch w := LeaderboardWindow(strings.ToLower(strings.TrimSpace(raw))); w {
	case "":
		return WindowAll, nil
	case WindowAll, WindowWeek, WindowMonth:
		return w, nil
	default:
		return "", fmt.Errorf("window must be one of all, week, month")
	}
}

// Since returns the start of the window relative to now. The zero time
// means no lower bound.
func (w LeaderboardWindow) Since(now time.Time) time.Time {
	switch w {
	case WindowWeek:
		return now.Add(-7 * 24 * time.Hour)
	case WindowMonth:
		return now.Add(-30 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

// LeaderboardEntry aggregates one author's standing.
type LeaderboardEntry struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Votes   int    `json:"votes"`
	Debates int    `json:"debates"`
}
