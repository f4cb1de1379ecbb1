package repository

import (
	"context"
	"sync"
	"time"

	"arena/internal/models"
)

type participationKey struct {
	debateID string
	userID   string
}

type memoryDebateRepository struct {
	mu            sync.RWMutex
	debates       []*models.Debate
	debateIndex   map[string]*models.Debate
	arguments     map[string][]*models.Argument
	argumentIndex map[string]*models.Argument
	participation map[participationKey]*models.Participation
	results       map[string]*models.DebateResult
}

// NewMemoryDebateRepository returns an in-process DebateRepository. Values
// are copied on the way in and out, so callers never share state with the store.
func NewMemoryDebateRepository() DebateRepository {
	return &memoryDebateRepository{
		debateIndex:   make(map[string]*models.Debate),
		arguments:     make(map[string][]*models.Argument),
		argumentIndex: make(map[string]*models.Argument),
		participation: make(map[participationKey]*models.Participation),
		results:       make(map[string]*models.DebateResult),
	}
}

func (r *memoryDebateRepository) CreateDebate(_ context.Context, debate *models.Debate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.debateIndex[debate.ID]; exists {
		return models.NewConflictError("debate already exists")
	}
	stored := debate.Clone()
	r.debates = append(r.debates, stored)
	r.debateIndex[stored.ID] = stored
	return nil
}

func (r *memoryDebateRepository) GetDebate(_ context.Context, id string) (*models.Debate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.debateIndex[id]
	if !ok {
		return nil, models.NewNotFoundError("Debate", id)
	}
	return d.Clone(), nil
}

func (r *memoryDebateRepository) ListDebates(_ context.Context) ([]*models.Debate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Debate, 0, len(r.debates))
	for _, d := range r.debates {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (r *memoryDebateRepository) GetParticipation(_ context.Context, debateID, userID string) (*models.Participation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participation[participationKey{debateID, userID}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memoryDebateRepository) CreateParticipation(_ context.Context, p *models.Participation) (*models.Participation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := participationKey{p.DebateID, p.UserID}
	if existing, ok := r.participation[key]; ok {
		cp := *existing
		return &cp, nil
	}
	stored := *p
	r.participation[key] = &stored
	cp := stored
	return &cp, nil
}

func (r *memoryDebateRepository) CreateArgument(_ context.Context, arg *models.Argument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.debateIndex[arg.DebateID]; !ok {
		return models.NewNotFoundError("Debate", arg.DebateID)
	}
	if _, exists := r.argumentIndex[arg.ID]; exists {
		return models.NewConflictError("argument already exists")
	}
	stored := arg.Clone()
	r.arguments[arg.DebateID] = append(r.arguments[arg.DebateID], stored)
	r.argumentIndex[stored.ID] = stored
	return nil
}

func (r *memoryDebateRepository) GetArgument(_ context.Context, id string) (*models.Argument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.argumentIndex[id]
	if !ok {
		return nil, models.NewNotFoundError("Argument", id)
	}
	return a.Clone(), nil
}

func (r *memoryDebateRepository) ListArguments(_ context.Context, debateID string) ([]*models.Argument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.arguments[debateID]
	out := make([]*models.Argument, 0, len(src))
	for _, a := range src {
		out = append(out, a.Clone())
	}
	return out, nil
}

func (r *memoryDebateRepository) ListArgumentsSince(_ context.Context, since time.Time) ([]*models.Argument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Argument
	for _, d := range r.debates {
		for _, a := range r.arguments[d.ID] {
			if !since.IsZero() && a.PostedAt.Before(since) {
				continue
			}
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (r *memoryDebateRepository) UpdateArgumentContent(_ context.Context, id, content string) (*models.Argument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.argumentIndex[id]
	if !ok {
		return nil, models.NewNotFoundError("Argument", id)
	}
	a.Content = content
	a.Edited = true
	return a.Clone(), nil
}

func (r *memoryDebateRepository) DeleteArgument(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.argumentIndex[id]
	if !ok {
		return models.NewNotFoundError("Argument", id)
	}
	list := r.arguments[a.DebateID]
	for i, candidate := range list {
		if candidate.ID == id {
			r.arguments[a.DebateID] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	delete(r.argumentIndex, id)
	return nil
}

func (r *memoryDebateRepository) RecordVote(_ context.Context, vote *models.ArgumentVote) (*models.Argument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.argumentIndex[vote.ArgumentID]
	if !ok {
		return nil, models.NewNotFoundError("Argument", vote.ArgumentID)
	}
	if a.HasVoted(vote.UserID) {
		return nil, models.NewDuplicateVoteError()
	}
	a.ApplyVote(vote.UserID, vote.Direction)
	return a.Clone(), nil
}

func (r *memoryDebateRepository) GetResult(_ context.Context, debateID string) (*models.DebateResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[debateID]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *memoryDebateRepository) SaveResult(_ context.Context, res *models.DebateResult) (*models.DebateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.results[res.DebateID]; ok {
		cp := *existing
		return &cp, nil
	}
	stored := *res
	r.results[res.DebateID] = &stored
	cp := stored
	return &cp, nil
}
