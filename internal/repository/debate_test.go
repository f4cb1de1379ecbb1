package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"arena/internal/database"
	"arena/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// eachStore runs fn against every DebateRepository implementation.
func eachStore(t *testing.T, fn func(t *testing.T, repo DebateRepository)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		fn(t, NewMemoryDebateRepository())
	})
	t.Run("gorm", func(t *testing.T) {
		t.Parallel()
		db, err := database.OpenTestDB()
		require.NoError(t, err)
		fn(t, NewDebateRepository(db))
	})
}

func seedDebate(t *testing.T, repo DebateRepository, id string, createdAt time.Time) *models.Debate {
	t.Helper()
	d := &models.Debate{
		ID:            id,
		Title:         "Debate " + id,
		Description:   "A debate used in repository tests",
		Tags:          []string{"ai", "ai", "education"},
		Category:      "Tech",
		DurationHours: 1,
		CreatorID:     "creator",
		CreatedAt:     createdAt,
	}
	require.NoError(t, repo.CreateDebate(context.Background(), d))
	return d
}

func seedArgument(t *testing.T, repo DebateRepository, id, debateID, author string, side models.Side, postedAt time.Time) *models.Argument {
	t.Helper()
	a := &models.Argument{
		ID:       id,
		DebateID: debateID,
		AuthorID: author,
		Side:     side,
		Content:  "Argument " + id,
		PostedAt: postedAt,
	}
	require.NoError(t, repo.CreateArgument(context.Background(), a))
	return a
}

func TestDebateRepository_CreateGetList(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)
		seedDebate(t, repo, "d-2", baseTime.Add(time.Second))

		got, err := repo.GetDebate(ctx, "d-1")
		require.NoError(t, err)
		assert.Equal(t, "Debate d-1", got.Title)
		assert.Equal(t, []string{"ai", "ai", "education"}, got.Tags)
		assert.True(t, got.CreatedAt.Equal(baseTime))

		list, err := repo.ListDebates(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "d-1", list[0].ID)
		assert.Equal(t, "d-2", list[1].ID)

		_, err = repo.GetDebate(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestDebateRepository_CopiesOnRead(t *testing.T) {
	t.Parallel()
	repo := NewMemoryDebateRepository()
	ctx := context.Background()
	seedDebate(t, repo, "d-1", baseTime)

	got, err := repo.GetDebate(ctx, "d-1")
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := repo.GetDebate(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "ai", again.Tags[0])
}

func TestDebateRepository_Participation(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)

		none, err := repo.GetParticipation(ctx, "d-1", "alice")
		require.NoError(t, err)
		assert.Nil(t, none)

		first, err := repo.CreateParticipation(ctx, &models.Participation{
			DebateID: "d-1", UserID: "alice", Side: models.SideSupport, JoinedAt: baseTime,
		})
		require.NoError(t, err)
		assert.Equal(t, models.SideSupport, first.Side)

		second, err := repo.CreateParticipation(ctx, &models.Participation{
			DebateID: "d-1", UserID: "alice", Side: models.SideOppose, JoinedAt: baseTime.Add(time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, models.SideSupport, second.Side)
	})
}

func TestDebateRepository_ArgumentsLifecycle(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)
		seedArgument(t, repo, "a-1", "d-1", "alice", models.SideSupport, baseTime.Add(time.Minute))
		seedArgument(t, repo, "a-2", "d-1", "bob", models.SideOppose, baseTime.Add(2*time.Minute))
		seedArgument(t, repo, "a-3", "d-1", "alice", models.SideSupport, baseTime.Add(3*time.Minute))

		args, err := repo.ListArguments(ctx, "d-1")
		require.NoError(t, err)
		require.Len(t, args, 3)
		assert.Equal(t, []string{"a-1", "a-2", "a-3"}, []string{args[0].ID, args[1].ID, args[2].ID})

		updated, err := repo.UpdateArgumentContent(ctx, "a-1", "Refined point")
		require.NoError(t, err)
		assert.Equal(t, "Refined point", updated.Content)
		assert.True(t, updated.Edited)

		require.NoError(t, repo.DeleteArgument(ctx, "a-2"))
		_, err = repo.GetArgument(ctx, "a-2")
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteArgument(ctx, "a-2"), models.ErrNotFound)

		_, err = repo.UpdateArgumentContent(ctx, "missing", "x")
		assert.ErrorIs(t, err, models.ErrNotFound)

		args, err = repo.ListArguments(ctx, "d-1")
		require.NoError(t, err)
		assert.Len(t, args, 2)
	})
}

func TestDebateRepository_SameInstantKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()

		debateIDs := make([]string, 4)
		for i := range debateIDs {
			debateIDs[i] = NewID()
			seedDebate(t, repo, debateIDs[i], baseTime)
		}
		debates, err := repo.ListDebates(ctx)
		require.NoError(t, err)
		gotDebates := make([]string, 0, len(debates))
		for _, d := range debates {
			gotDebates = append(gotDebates, d.ID)
		}
		assert.Equal(t, debateIDs, gotDebates)

		argIDs := make([]string, 8)
		for i := range argIDs {
			argIDs[i] = NewID()
			seedArgument(t, repo, argIDs[i], debateIDs[0], "alice", models.SideSupport, baseTime)
		}
		args, err := repo.ListArguments(ctx, debateIDs[0])
		require.NoError(t, err)
		gotArgs := make([]string, 0, len(args))
		for _, a := range args {
			gotArgs = append(gotArgs, a.ID)
		}
		assert.Equal(t, argIDs, gotArgs)
	})
}

func TestNewID_Ordered(t *testing.T) {
	t.Parallel()
	prev := NewID()
	for i := 0; i < 1000; i++ {
		next := NewID()
		require.Less(t, prev, next)
		prev = next
	}
}

func TestDebateRepository_ListArgumentsSince(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)
		seedArgument(t, repo, "old", "d-1", "alice", models.SideSupport, baseTime)
		seedArgument(t, repo, "new", "d-1", "bob", models.SideOppose, baseTime.Add(10*24*time.Hour))

		all, err := repo.ListArgumentsSince(ctx, time.Time{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		recent, err := repo.ListArgumentsSince(ctx, baseTime.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "new", recent[0].ID)
	})
}

func TestDebateRepository_RecordVote(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)
		seedArgument(t, repo, "a-1", "d-1", "alice", models.SideSupport, baseTime)

		arg, err := repo.RecordVote(ctx, &models.ArgumentVote{
			ArgumentID: "a-1", UserID: "carol", DebateID: "d-1", Direction: models.DirectionUp, CreatedAt: baseTime,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, arg.VoteScore)
		assert.Equal(t, []string{"carol"}, arg.UpvoterIDs)

		arg, err = repo.RecordVote(ctx, &models.ArgumentVote{
			ArgumentID: "a-1", UserID: "dave", DebateID: "d-1", Direction: models.DirectionDown, CreatedAt: baseTime.Add(time.Second),
		})
		require.NoError(t, err)
		assert.Equal(t, 0, arg.VoteScore)
		assert.Equal(t, []string{"dave"}, arg.DownvoterIDs)

		_, err = repo.RecordVote(ctx, &models.ArgumentVote{
			ArgumentID: "a-1", UserID: "carol", DebateID: "d-1", Direction: models.DirectionDown, CreatedAt: baseTime.Add(2 * time.Second),
		})
		assert.ErrorIs(t, err, models.ErrDuplicateVote)

		stored, err := repo.GetArgument(ctx, "a-1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.VoteScore)
		assert.True(t, stored.HasVoted("carol"))
		assert.False(t, stored.HasVoted("erin"))
	})
}

func TestMemoryDebateRepository_ConcurrentVotes(t *testing.T) {
	t.Parallel()
	repo := NewMemoryDebateRepository()
	ctx := context.Background()
	seedDebate(t, repo, "d-1", baseTime)
	seedArgument(t, repo, "a-1", "d-1", "alice", models.SideSupport, baseTime)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordVote(ctx, &models.ArgumentVote{
				ArgumentID: "a-1", UserID: "carol", DebateID: "d-1", Direction: models.DirectionUp,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, models.ErrDuplicateVote)
		}
	}
	assert.Equal(t, 1, ok)

	arg, err := repo.GetArgument(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 1, arg.VoteScore)
}

func TestDebateRepository_Results(t *testing.T) {
	t.Parallel()
	eachStore(t, func(t *testing.T, repo DebateRepository) {
		ctx := context.Background()
		seedDebate(t, repo, "d-1", baseTime)

		none, err := repo.GetResult(ctx, "d-1")
		require.NoError(t, err)
		assert.Nil(t, none)

		first, err := repo.SaveResult(ctx, &models.DebateResult{
			DebateID: "d-1", Winner: models.WinnerSupport, SupportScore: 1, OpposeScore: -1, SettledAt: baseTime,
		})
		require.NoError(t, err)
		assert.Equal(t, models.WinnerSupport, first.Winner)

		second, err := repo.SaveResult(ctx, &models.DebateResult{
			DebateID: "d-1", Winner: models.WinnerOppose, SettledAt: baseTime.Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, models.WinnerSupport, second.Winner)
		assert.Equal(t, 1, second.SupportScore)
	})
}
