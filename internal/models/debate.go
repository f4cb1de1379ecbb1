// Package models defines the persistent and wire types of the debate arena.
package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Side is the position a participant argues for.
type Side string

const (
	SideSupport Side = "support"
	SideOppose  Side = "oppose"
)

// Valid reports whether s is one of the two debate sides.
func (s Side) Valid() bool {
	return s == SideSupport || s == SideOppose
}

// ParseSide normalizes user input into a Side.
func ParseSide(raw string) (Side, error) {
	s := Side(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("side must be %q or %q", SideSupport, SideOppose)
	}
	return s, nil
}

// Direction is the polarity of a vote.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is up or down.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Delta is the score change a vote in this direction applies.
func (d Direction) Delta() int {
	if d == DirectionDown {
		return -1
	}
	return 1
}

// ParseDirection normalizes user input into a Direction.
func ParseDirection(raw string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("direction must be %q or %q", DirectionUp, DirectionDown)
	}
	return d, nil
}

// Winner is the outcome of a closed debate.
type Winner string

const (
	WinnerSupport Winner = "Support"
	WinnerOppose  Winner = "Oppose"
	WinnerTie     Winner = "Tie"
)

// DecideWinner compares the summed side scores.
func DecideWinner(supportScore, opposeScore int) Winner {
	switch {
	case supportScore > opposeScore:
		return WinnerSupport
	case opposeScore > supportScore:
		return WinnerOppose
	default:
		return WinnerTie
	}
}

// AllowedDurations lists the debate lengths, in hours, a creator may pick.
var AllowedDurations = []int{1, 12, 24}

// Debate is a timed, two-sided topic. It is never mutated after creation;
// open/closed is derived from CreatedAt and DurationHours.
type Debate struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Tags          []string  `gorm:"serializer:json" json:"tags"`
	Category      string    `gorm:"size:64;index" json:"category"`
	ImageURL      string    `gorm:"size:2048" json:"image,omitempty"`
	DurationHours int       `gorm:"not null" json:"duration_hours"`
	CreatorID     string    `gorm:"size:36;index;not null" json:"creator_id"`
	CreatedAt     time.Time `gorm:"not null;index" json:"created_at"`
}

// Duration is the configured lifetime of the debate.
func (d *Debate) Duration() time.Duration {
	return time.Duration(d.DurationHours) * time.Hour
}

// EndsAt is the instant the debate closes.
func (d *Debate) EndsAt() time.Time {
	return d.CreatedAt.Add(d.Duration())
}

// IsOpen reports whether now is strictly before EndsAt.
func (d *Debate) IsOpen(now time.Time) bool {
	return now.Before(d.EndsAt())
}

// Remaining is the time left before closing, never negative.
func (d *Debate) Remaining(now time.Time) time.Duration {
	left := d.EndsAt().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// DisplayTags returns the tags with duplicates removed, keeping first occurrence.
func (d *Debate) DisplayTags() []string {
	seen := make(map[string]struct{}, len(d.Tags))
	out := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Clone returns a deep copy.
func (d *Debate) Clone() *Debate {
	cp := *d
	cp.Tags = slices.Clone(d.Tags)
	return &cp
}

// Participation records the single side a user joined in a debate.
type Participation struct {
	DebateID string    `gorm:"primaryKey;size:36" json:"debate_id"`
	UserID   string    `gorm:"primaryKey;size:36" json:"user_id"`
	Side     Side      `gorm:"size:16;not null" json:"side"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

// DebateResult is the settled outcome of a closed debate. It is written once.
type DebateResult struct {
	DebateID         string    `gorm:"primaryKey;size:36" json:"debate_id"`
	Winner           Winner    `gorm:"size:16;not null" json:"winner"`
	SupportScore     int       `json:"support_score"`
	OpposeScore      int       `json:"oppose_score"`
	SupportArguments int       `json:"support_arguments"`
	OpposeArguments  int       `json:"oppose_arguments"`
	SettledAt        time.Time `gorm:"not null" json:"settled_at"`
}

// Tally is a live view of the scores of a debate.
type Tally struct {
	DebateID         string    `json:"debate_id"`
	SupportScore     int       `json:"support_score"`
	OpposeScore      int       `json:"oppose_score"`
	SupportArguments int       `json:"support_arguments"`
	OpposeArguments  int       `json:"oppose_arguments"`
	Winner           Winner    `json:"winner"`
	Open             bool      `json:"open"`
	EndsAt           time.Time `json:"ends_at"`
}

// TallyArguments sums scores and counts per side.
func TallyArguments(debateID string, args []*Argument) Tally {
	t := Tally{DebateID: debateID}
	for _, a := range args {
		switch a.Side {
		case SideSupport:
			t.SupportScore += a.VoteScore
			t.SupportArguments++
		case SideOppose:
			t.OpposeScore += a.VoteScore
			t.OpposeArguments++
		}
	}
	t.Winner = DecideWinner(t.SupportScore, t.OpposeScore)
	return t
}

// Result converts a tally into a settled result.
func (t Tally) Result(settledAt time.Time) *DebateResult {
	return &DebateResult{
		DebateID:         t.DebateID,
		Winner:           t.Winner,
		SupportScore:     t.SupportScore,
		OpposeScore:      t.OpposeScore,
		SupportArguments: t.SupportArguments,
		OpposeArguments:  t.OpposeArguments,
		SettledAt:        settledAt,
	}
}

// DebateFilter narrows a debate listing. Zero values match everything.
type DebateFilter struct {
	Search        string
	Tag           string
	Category      string
	DurationHours int
	Open          *bool
}

// Facets are the distinct categories and tags across all debates.
type Facets struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}
