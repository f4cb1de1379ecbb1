package server

import (
	"net/http"
	"testing"
	"time"

	"arena/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type debateResponse struct {
	models.Debate
	Open          bool   `json:"open"`
	TimeRemaining string `json:"time_remaining"`
}

func (e *testEnv) createDebate(t *testing.T, token string, body fiber.Map) debateResponse {
	t.Helper()
	var d debateResponse
	require.Equal(t, http.StatusCreated, e.call(t, http.MethodPost, "/api/debates", token, body, &d))
	return d
}

func defaultDebate() fiber.Map {
	return fiber.Map{
		"title":          "AI in education",
		"description":    "Should schools lean on AI tutors?",
		"tags":           "ai, education, ai",
		"category":       "Technology",
		"duration_hours": 1,
	}
}

func TestDebateFlow(t *testing.T) {
	env := newTestEnv(t, testConfig())
	alice, aliceID := env.signup(t, "alice")
	bob, _ := env.signup(t, "bob")
	carol, _ := env.signup(t, "carol")

	d := env.createDebate(t, alice, defaultDebate())
	assert.True(t, d.Open)
	assert.Equal(t, []string{"ai", "education"}, d.Tags)
	assert.Equal(t, aliceID, d.CreatorID)
	assert.Equal(t, "1 hour left", d.TimeRemaining)

	base := "/api/debates/" + d.ID

	var joined map[string]string
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, base+"/join", alice, fiber.Map{"side": "support"}, &joined))
	assert.Equal(t, "support", joined["side"])
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, base+"/join", bob, fiber.Map{"side": "oppose"}, nil))

	var a1, b1 models.Argument
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, base+"/arguments", alice,
		fiber.Map{"side": "support", "content": "AI will help education"}, &a1))
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, base+"/arguments", bob,
		fiber.Map{"side": "oppose", "content": "AI will harm critical thinking"}, &b1))

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodPost, base+"/arguments", carol,
		fiber.Map{"side": "support", "content": "I never joined"}, &errBody))
	assert.Equal(t, models.CodeNotParticipant, errBody.Code)

	var voted models.Argument
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, "/api/arguments/"+a1.ID+"/vote", carol,
		fiber.Map{"direction": "up"}, &voted))
	assert.Equal(t, 1, voted.VoteScore)
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, "/api/arguments/"+b1.ID+"/vote", carol,
		fiber.Map{"direction": "down"}, nil))

	assert.Equal(t, http.StatusConflict, env.call(t, http.MethodPost, "/api/arguments/"+a1.ID+"/vote", carol,
		fiber.Map{"direction": "down"}, &errBody))
	assert.Equal(t, models.CodeDuplicateVote, errBody.Code)

	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodPost, "/api/arguments/"+a1.ID+"/vote", alice,
		fiber.Map{"direction": "up"}, &errBody))
	assert.Equal(t, models.CodeSelfVote, errBody.Code)

	assert.Equal(t, http.StatusConflict, env.call(t, http.MethodGet, base+"/result", "", nil, &errBody))
	assert.Equal(t, models.CodeDebateOpen, errBody.Code)

	var args []models.Argument
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/arguments?side=oppose", "", nil, &args))
	require.Len(t, args, 1)
	assert.Equal(t, b1.ID, args[0].ID)

	env.clock.Advance(time.Hour)

	assert.Equal(t, http.StatusConflict, env.call(t, http.MethodPost, base+"/arguments", alice,
		fiber.Map{"side": "support", "content": "Too late"}, &errBody))
	assert.Equal(t, models.CodeDebateClosed, errBody.Code)

	var result models.DebateResult
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/result", "", nil, &result))
	assert.Equal(t, models.WinnerSupport, result.Winner)
	assert.Equal(t, 1, result.SupportScore)
	assert.Equal(t, -1, result.OpposeScore)

	var tally models.Tally
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/tally", "", nil, &tally))
	assert.False(t, tally.Open)
	assert.Equal(t, models.WinnerSupport, tally.Winner)

	var closed debateResponse
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base, "", nil, &closed))
	assert.False(t, closed.Open)
	assert.Equal(t, "Debate ended", closed.TimeRemaining)

	var board struct {
		Window  string                    `json:"window"`
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/leaderboard", "", nil, &board))
	assert.Equal(t, "all", board.Window)
	require.Len(t, board.Entries, 2)
	assert.Equal(t, "alice", board.Entries[0].Name)
	assert.Equal(t, 1, board.Entries[0].Votes)
	assert.Equal(t, "bob", board.Entries[1].Name)
}

func TestArgumentEditAndDelete(t *testing.T) {
	env := newTestEnv(t, testConfig())
	alice, _ := env.signup(t, "alice")
	bob, _ := env.signup(t, "bob")

	d := env.createDebate(t, alice, defaultDebate())
	base := "/api/debates/" + d.ID
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, base+"/join", alice, fiber.Map{"side": "support"}, nil))

	var arg models.Argument
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, base+"/arguments", alice,
		fiber.Map{"side": "support", "content": "Original"}, &arg))

	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodPut, "/api/arguments/"+arg.ID, bob,
		fiber.Map{"content": "Hijacked"}, &errBody))
	assert.Equal(t, models.CodeForbidden, errBody.Code)

	var edited models.Argument
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPut, "/api/arguments/"+arg.ID, alice,
		fiber.Map{"content": "Revised"}, &edited))
	assert.Equal(t, "Revised", edited.Content)
	assert.True(t, edited.Edited)

	env.clock.Advance(6 * time.Minute)
	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodPut, "/api/arguments/"+arg.ID, alice,
		fiber.Map{"content": "Too late"}, &errBody))
	assert.Equal(t, models.CodeEditWindowExpired, errBody.Code)
	assert.Equal(t, http.StatusForbidden, env.call(t, http.MethodDelete, "/api/arguments/"+arg.ID, alice, nil, nil))

	var fresh models.Argument
	require.Equal(t, http.StatusCreated, env.call(t, http.MethodPost, base+"/arguments", alice,
		fiber.Map{"side": "support", "content": "Second thought"}, &fresh))
	assert.Equal(t, http.StatusNoContent, env.call(t, http.MethodDelete, "/api/arguments/"+fresh.ID, alice, nil, nil))

	var args []models.Argument
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/arguments", "", nil, &args))
	require.Len(t, args, 1)
	assert.Equal(t, "Revised", args[0].Content)
}

func TestJoinSideIsStable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	alice, _ := env.signup(t, "alice")
	d := env.createDebate(t, alice, defaultDebate())
	base := "/api/debates/" + d.ID

	var side struct {
		Joined bool   `json:"joined"`
		Side   string `json:"side"`
	}
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/side", alice, nil, &side))
	assert.False(t, side.Joined)

	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, base+"/join", alice, fiber.Map{"side": "oppose"}, nil))
	var joined map[string]string
	require.Equal(t, http.StatusOK, env.call(t, http.MethodPost, base+"/join", alice, fiber.Map{"side": "support"}, &joined))
	assert.Equal(t, "oppose", joined["side"])

	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, base+"/side", alice, nil, &side))
	assert.True(t, side.Joined)
	assert.Equal(t, "oppose", side.Side)

	assert.Equal(t, http.StatusBadRequest, env.call(t, http.MethodPost, base+"/join", alice, fiber.Map{"side": "neutral"}, nil))
}

func TestDebateRequestValidation(t *testing.T) {
	env := newTestEnv(t, testConfig())
	alice, _ := env.signup(t, "alice")

	assert.Equal(t, http.StatusUnauthorized, env.call(t, http.MethodPost, "/api/debates", "", defaultDebate(), nil))

	bad := defaultDebate()
	bad["duration_hours"] = 3
	var errBody models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, env.call(t, http.MethodPost, "/api/debates", alice, bad, &errBody))
	assert.Equal(t, models.CodeValidation, errBody.Code)

	assert.Equal(t, http.StatusNotFound, env.call(t, http.MethodGet, "/api/debates/missing", "", nil, &errBody))
	assert.Equal(t, models.CodeNotFound, errBody.Code)

	assert.Equal(t, http.StatusNotFound, env.call(t, http.MethodPost, "/api/debates/missing/join", alice,
		fiber.Map{"side": "support"}, nil))

	assert.Equal(t, http.StatusBadRequest, env.call(t, http.MethodGet, "/api/leaderboard?window=year", "", nil, nil))
}

func TestListDebatesQuery(t *testing.T) {
	env := newTestEnv(t, testConfig())
	alice, _ := env.signup(t, "alice")

	short := env.createDebate(t, alice, defaultDebate())
	long := env.createDebate(t, alice, fiber.Map{
		"title":          "Remote work forever",
		"description":    "Offices are obsolete now",
		"tags":           []string{"work"},
		"category":       "Society",
		"duration_hours": 24,
	})
	env.clock.Advance(2 * time.Hour)

	ids := func(path string) []string {
		var list []debateResponse
		require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, path, "", nil, &list))
		out := make([]string, 0, len(list))
		for _, d := range list {
			out = append(out, d.ID)
		}
		return out
	}

	assert.Equal(t, []string{short.ID, long.ID}, ids("/api/debates"))
	assert.Equal(t, []string{long.ID}, ids("/api/debates?search=remote"))
	assert.Equal(t, []string{long.ID}, ids("/api/debates?tag=work"))
	assert.Equal(t, []string{short.ID}, ids("/api/debates?category=Technology"))
	assert.Equal(t, []string{long.ID}, ids("/api/debates?duration=24"))
	assert.Equal(t, []string{long.ID}, ids("/api/debates?open=true"))
	assert.Equal(t, []string{short.ID}, ids("/api/debates?open=false"))

	var facets models.Facets
	require.Equal(t, http.StatusOK, env.call(t, http.MethodGet, "/api/debates/facets", "", nil, &facets))
	assert.Equal(t, []string{"Society", "Technology"}, facets.Categories)
	assert.Equal(t, []string{"ai", "education", "work"}, facets.Tags)
}
