package server

import (
	"time"

	"arena/internal/models"

	"github.com/dustin/go-humanize"
)

// debateView adds the derived lifecycle fields clients render.
type debateView struct {
	*models.Debate
	Tags             []string  `json:"tags"`
	EndsAt           time.Time `json:"ends_at"`
	Open             bool      `json:"open"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	TimeRemaining    string    `json:"time_remaining"`
}

func newDebateView(d *models.Debate, now time.Time) debateView {
	v := debateView{
		Debate:           d,
		Tags:             d.DisplayTags(),
		EndsAt:           d.EndsAt(),
		Open:             d.IsOpen(now),
		RemainingSeconds: int64(d.Remaining(now) / time.Second),
		TimeRemaining:    "Debate ended",
	}
	if v.Open {
		v.TimeRemaining = humanize.RelTime(now, v.EndsAt, "left", "ago")
	}
	return v
}

func newDebateViews(debates []*models.Debate, now time.Time) []debateView {
	out := make([]debateView, 0, len(debates))
	for _, d := range debates {
		out = append(out, newDebateView(d, now))
	}
	return out
}
