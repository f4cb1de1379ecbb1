package models

import (
	"slices"
	"time"
)

// EditWindow is how long after posting an author may edit or delete.
const EditWindow = 5 * time.Minute

// Argument is a single post on one side of a debate.
type Argument struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	DebateID     string    `gorm:"size:36;index;not null" json:"debate_id"`
	AuthorID     string    `gorm:"size:36;index;not null" json:"author_id"`
	Side         Side      `gorm:"size:16;not null" json:"side"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	PostedAt     time.Time `gorm:"not null;index" json:"posted_at"`
	Edited       bool      `gorm:"not null;default:false" json:"edited"`
	VoteScore    int       `gorm:"not null;default:0" json:"vote_score"`
	UpvoterIDs   []string  `gorm:"-" json:"upvoter_ids"`
	DownvoterIDs []string  `gorm:"-" json:"downvoter_ids"`
}

// HasVoted reports whether userID appears in either voter set.
func (a *Argument) HasVoted(userID string) bool {
	return slices.Contains(a.UpvoterIDs, userID) || slices.Contains(a.DownvoterIDs, userID)
}

// WithinEditWindow reports whether now is less than EditWindow after PostedAt.
func (a *Argument) WithinEditWindow(now time.Time) bool {
	return now.Sub(a.PostedAt) < EditWindow
}

// ApplyVote records the vote on the in-memory voter sets and score.
func (a *Argument) ApplyVote(userID string, dir Direction) {
	if dir == DirectionUp {
		a.UpvoterIDs = append(a.UpvoterIDs, userID)
	} else {
		a.DownvoterIDs = append(a.DownvoterIDs, userID)
	}
	a.VoteScore += dir.Delta()
}

// Clone returns a deep copy.
func (a *Argument) Clone() *Argument {
	cp := *a
	cp.UpvoterIDs = slices.Clone(a.UpvoterIDs)
	cp.DownvoterIDs = slices.Clone(a.DownvoterIDs)
	return &cp
}

// ArgumentVote is one user's vote on one argument. The composite key
// enforces a single vote per (argument, user).
type ArgumentVote struct {
	ArgumentID string    `gorm:"primaryKey;size:36" json:"argument_id"`
	UserID     string    `gorm:"primaryKey;size:36" json:"user_id"`
	DebateID   string    `gorm:"size:36;index;not null" json:"debate_id"`
	Direction  Direction `gorm:"size:8;not null" json:"direction"`
	CreatedAt  time.Time `json:"created_at"`
}
