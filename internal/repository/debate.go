// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"arena/internal/models"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string. Ids from one process sort in
// generation order, which the SQL store uses to break timestamp ties so
// listings keep insertion order under a frozen clock.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// DebateRepository stores debates, participation, arguments, votes and
// settled results. Implementations are safe for concurrent use; the debate
// engine serializes check-then-act sequences per debate on top of it.
//
// Lookups of a missing debate or argument return a NOT_FOUND AppError.
// Optional lookups (participation, result) return nil, nil when absent.
type DebateRepository interface {
	CreateDebate(ctx context.Context, debate *models.Debate) error
	GetDebate(ctx context.Context, id string) (*models.Debate, error)
	// ListDebates returns debates in creation order.
	ListDebates(ctx context.Context) ([]*models.Debate, error)

	GetParticipation(ctx context.Context, debateID, userID string) (*models.Participation, error)
	// CreateParticipation inserts p unless the user already joined, and
	// returns the stored participation either way.
	CreateParticipation(ctx context.Context, p *models.Participation) (*models.Participation, error)

	CreateArgument(ctx context.Context, arg *models.Argument) error
	GetArgument(ctx context.Context, id string) (*models.Argument, error)
	// ListArguments returns a debate's arguments in posting order.
	ListArguments(ctx context.Context, debateID string) ([]*models.Argument, error)
	// ListArgumentsSince returns arguments across all debates posted at or
	// after since. A zero since returns everything.
	ListArgumentsSince(ctx context.Context, since time.Time) ([]*models.Argument, error)
	UpdateArgumentContent(ctx context.Context, id, content string) (*models.Argument, error)
	DeleteArgument(ctx context.Context, id string) error
	// RecordVote atomically inserts the vote and applies its score delta.
	// A second vote by the same user returns a DUPLICATE_VOTE AppError.
	RecordVote(ctx context.Context, vote *models.ArgumentVote) (*models.Argument, error)

	GetResult(ctx context.Context, debateID string) (*models.DebateResult, error)
	// SaveResult stores r unless a result already exists, and returns the
	// stored result either way.
	SaveResult(ctx context.Context, r *models.DebateResult) (*models.DebateResult, error)
}
