package service

import (
	"context"
	"slices"
	"time"

	"arena/internal/cache"
	"arena/internal/clock"
	"arena/internal/models"
	"arena/internal/repository"
)

// NameResolver maps user ids to display names.
type NameResolver interface {
	NamesByID(ctx context.Context, ids []string) (map[string]string, error)
}

// LeaderboardService ranks argument authors by the net score their
// arguments earned and the number of debates they argued in.
type LeaderboardService struct {
	repo  repository.DebateRepository
	names NameResolver
	cache *cache.Cache
	clock clock.Clock
	ttl   time.Duration
}

// NewLeaderboardService builds the service. names and c may be nil.
func NewLeaderboardService(repo repository.DebateRepository, names NameResolver, c *cache.Cache, clk clock.Clock, ttl time.Duration) *LeaderboardService {
	if clk == nil {
		clk = clock.Real{}
	}
	if ttl <= 0 {
		ttl = cache.DefaultLeaderboardTTL
	}
	return &LeaderboardService{repo: repo, names: names, cache: c, clock: clk, ttl: ttl}
}

// Leaderboard returns the ranking for the window, served from Redis when cached.
func (s *LeaderboardService) Leaderboard(ctx context.Context, window models.LeaderboardWindow) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.cache.Aside(ctx, cache.LeaderboardKey(window), cache.LeaderboardVersionKey, &entries, s.ttl, func() error {
		var err error
		entries, err = s.compute(ctx, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return entries, nil
}

func (s *LeaderboardService) compute(ctx context.Context, window models.LeaderboardWindow) ([]models.LeaderboardEntry, error) {
	args, err := s.repo.ListArgumentsSince(ctx, window.Since(s.clock.Now()))
	if err != nil {
		return nil, err
	}

	byAuthor := make(map[string]*models.LeaderboardEntry)
	debates := make(map[string]map[string]struct{})
	for _, a := range args {
		entry, ok := byAuthor[a.AuthorID]
		if !ok {
			entry = &models.LeaderboardEntry{UserID: a.AuthorID}
			byAuthor[a.AuthorID] = entry
			debates[a.AuthorID] = make(map[string]struct{})
		}
		entry.Votes += a.VoteScore
		debates[a.AuthorID][a.DebateID] = struct{}{}
	}

	entries := make([]models.LeaderboardEntry, 0, len(byAuthor))
	ids := make([]string, 0, len(byAuthor))
	for id, entry := range byAuthor {
		entry.Debates = len(debates[id])
		entries = append(entries, *entry)
		ids = append(ids, id)
	}

	if s.names != nil && len(ids) > 0 {
		names, err := s.names.NamesByID(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range entries {
			entries[i].Name = names[entries[i].UserID]
		}
	}

	slices.SortFunc(entries, compareEntries)
	return entries, nil
}

func compareEntries(a, b models.LeaderboardEntry) int {
	switch {
	case a.Votes != b.Votes:
		return b.Votes - a.Votes
	case a.Debates != b.Debates:
		return b.Debates - a.Debates
	case a.UserID < b.UserID:
		return -1
	case a.UserID > b.UserID:
		return 1
	}
	return 0
}
