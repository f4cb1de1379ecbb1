package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"arena/internal/clock"
	"arena/internal/database"
	"arena/internal/models"
	"arena/internal/repository"
	"arena/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	seeder *Seeder
	engine *service.DebateEngine
	repo   repository.DebateRepository
	clock  *clock.Manual
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.OpenTestDB()
	require.NoError(t, err)

	clk := clock.NewManual(now)
	repo := repository.NewDebateRepository(db)
	users := service.NewUserService(repository.NewUserRepository(db), clk).WithHashCost(bcrypt.MinCost)
	engine := service.NewDebateEngine(repo, clk, nil)
	return &harness{
		seeder: NewSeeder(users, engine, clk, 42),
		engine: engine,
		repo:   repo,
		clock:  clk,
	}
}

func TestSeeder_Random(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	summary, err := h.seeder.Random(ctx, Options{Users: 6, Debates: 4, ArgumentsPerDebate: 3, VotesPerArgument: 4, MaxDays: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, summary.Users)
	assert.Equal(t, 4, summary.Debates)
	assert.Positive(t, summary.Arguments)
	assert.Equal(t, now, h.clock.Now(), "clock is restored")

	debates, err := h.repo.ListDebates(ctx)
	require.NoError(t, err)
	require.Len(t, debates, 4)

	for _, d := range debates {
		assert.False(t, d.CreatedAt.After(now))
		assert.False(t, d.CreatedAt.Before(now.Add(-3*24*time.Hour)))

		args, err := h.repo.ListArguments(ctx, d.ID)
		require.NoError(t, err)
		for _, a := range args {
			assert.True(t, d.IsOpen(a.PostedAt), "argument posted while debate open")
			assert.False(t, a.HasVoted(a.AuthorID), "no self votes")

			side, joined, err := h.engine.SideOf(ctx, d.ID, a.AuthorID)
			require.NoError(t, err)
			assert.True(t, joined)
			assert.Equal(t, side, a.Side)
		}
	}
}

func TestSeeder_RandomDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, 20, opts.Users)
	assert.Equal(t, 10, opts.Debates)
	assert.Equal(t, DefaultPassword, opts.Password)
}

const scenarioYAML = `
users:
  - name: Ada
    email: ada@example.com
  - name: Grace
    email: grace@example.com
  - name: Linus
    email: linus@example.com
debates:
  - title: Should schools teach AI literacy?
    description: Whether AI literacy belongs in the core curriculum.
    category: Education
    tags: [ai, education]
    duration_hours: 1
    creator: Ada
    started_hours_ago: 2
    arguments:
      - author: Ada
        side: support
        content: Students already use these tools every day.
        at_minute: 5
        upvotes: [Grace, Linus]
      - author: Grace
        side: oppose
        content: Teachers need training first.
        at_minute: 10
        downvotes: [Linus]
  - title: Remote work is here to stay
    description: Offices versus kitchens, round two.
    category: Technology
    duration_hours: 24
    creator: Linus
    started_hours_ago: 1
`

func TestSeeder_ApplyScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	summary, err := h.seeder.ApplyScenario(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 3, Debates: 2, Arguments: 2, Votes: 3}, *summary)

	debates, err := h.engine.ListDebates(ctx, models.DebateFilter{})
	require.NoError(t, err)
	require.Len(t, debates, 2)

	var closed, open *models.Debate
	for _, d := range debates {
		if d.IsOpen(now) {
			open = d
		} else {
			closed = d
		}
	}
	require.NotNil(t, closed)
	require.NotNil(t, open)
	assert.Equal(t, "Remote work is here to stay", open.Title)

	res, err := h.engine.Result(ctx, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WinnerSupport, res.Winner)
}

func TestSeeder_ApplyScenarioUnknownUser(t *testing.T) {
	h := newHarness(t)
	sc := &Scenario{
		Users: []ScenarioUser{{Name: "Ada", Email: "ada@example.com"}},
		Debates: []ScenarioDebate{{
			Title: "Cats or dogs", Description: "The eternal question.", Category: "Pets",
			DurationHours: 1, Creator: "Nobody",
		}},
	}
	_, err := h.seeder.ApplyScenario(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nobody")
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o600))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Debates, 2)
	assert.Equal(t, []string{"Grace", "Linus"}, sc.Debates[0].Arguments[0].Upvotes)
	assert.Equal(t, 2.0, sc.Debates[0].StartedHoursAgo)

	_, err = ParseScenario([]byte("users: [unterminated"))
	assert.Error(t, err)
}
