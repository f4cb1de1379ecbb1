// Package service implements the debate engine and the account and
// leaderboard services around it.
package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"arena/internal/cache"
	"arena/internal/clock"
	"arena/internal/models"
	"arena/internal/notifications"
	"arena/internal/observability"
	"arena/internal/repository"
	"arena/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// EventPublisher receives debate events after a change is committed.
type EventPublisher interface {
	Publish(ctx context.Context, event notifications.Event) error
}

// DebateEngine owns the debate lifecycle: joining sides, posting, voting,
// editing and deleting arguments, and settling the winner once a debate
// closes. Mutations on one debate are serialized by a per-debate lock; a
// debate is open while the clock is before its end, with no stored status.
type DebateEngine struct {
	repo   repository.DebateRepository
	clock  clock.Clock
	filter *validation.ContentFilter
	events EventPublisher
	cache  *cache.Cache
	locks  *debateLocks
	log    *observability.DomainLogger
	newID  func() string
}

// EngineOption configures optional DebateEngine collaborators.
type EngineOption func(*DebateEngine)

// WithEventPublisher publishes committed changes to p.
func WithEventPublisher(p EventPublisher) EngineOption {
	return func(e *DebateEngine) { e.events = p }
}

// WithLeaderboardCache invalidates cached leaderboards when scores change.
func WithLeaderboardCache(c *cache.Cache) EngineOption {
	return func(e *DebateEngine) { e.cache = c }
}

// WithLogger routes the engine's domain event log to l.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *DebateEngine) { e.log = e.log.WithLogger(l) }
}

// WithIDGenerator overrides UUID generation for debates and arguments.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *DebateEngine) { e.newID = fn }
}

// NewDebateEngine builds an engine over repo. A nil filter uses the default denylist.
func NewDebateEngine(
	repo repository.DebateRepository,
	clk clock.Clock,
	filter *validation.ContentFilter,
	opts ...EngineOption,
) *DebateEngine {
	if clk == nil {
		clk = clock.Real{}
	}
	if filter == nil {
		filter = validation.NewContentFilter(validation.DefaultBannedWords)
	}
	e := &DebateEngine{
		repo:   repo,
		clock:  clk,
		filter: filter,
		locks:  newDebateLocks(),
		log:    observability.NewDomainLogger("debate_engine"),
		newID:  repository.NewID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now exposes the engine clock to presentation code computing time remaining.
func (e *DebateEngine) Now() time.Time {
	return e.clock.Now()
}

type CreateDebateInput struct {
	CreatorID     string
	Title         string
	Description   string
	Tags          []string
	Category      string
	ImageURL      string
	DurationHours int
}

type PostArgumentInput struct {
	DebateID string
	UserID   string
	Side     models.Side
	Content  string
}

type VoteArgumentInput struct {
	ArgumentID string
	UserID     string
	Direction  models.Direction
}

type EditArgumentInput struct {
	ArgumentID string
	UserID     string
	Content    string
}

type DeleteArgumentInput struct {
	ArgumentID string
	UserID     string
}

func validateCreateDebate(in CreateDebateInput) (tags []string, err error) {
	if strings.TrimSpace(in.CreatorID) == "" {
		return nil, models.NewValidationError("creator is required")
	}
	checks := []error{
		validation.ValidateTitle(in.Title),
		validation.ValidateDescription(in.Description),
		validation.ValidateCategory(in.Category),
		validation.ValidateImageURL(in.ImageURL),
		validation.ValidateDuration(in.DurationHours, models.AllowedDurations),
	}
	for _, err := range checks {
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	tags = validation.NormalizeTags(in.Tags)
	if err := validation.ValidateTags(tags); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return tags, nil
}

// CreateDebate validates the input and stores a new open debate.
func (e *DebateEngine) CreateDebate(ctx context.Context, in CreateDebateInput) (debate *models.Debate, err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.CreateDebate")
	defer func() { e.finish(ctx, span, "create_debate", err) }()

	tags, err := validateCreateDebate(in)
	if err != nil {
		return nil, err
	}

	debate = &models.Debate{
		ID:            e.newID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Tags:          tags,
		Category:      strings.TrimSpace(in.Category),
		ImageURL:      strings.TrimSpace(in.ImageURL),
		DurationHours: in.DurationHours,
		CreatorID:     in.CreatorID,
		CreatedAt:     e.clock.Now(),
	}
	if err := e.repo.CreateDebate(ctx, debate); err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.String("debate.id", debate.ID))

	observability.DebatesCreated.Inc()
	e.log.LogEvent(ctx, "debate_created", debate.ID, map[string]interface{}{
		"creator_id":     debate.CreatorID,
		"duration_hours": debate.DurationHours,
	})
	return debate, nil
}

// GetDebate returns a debate by id.
func (e *DebateEngine) GetDebate(ctx context.Context, debateID string) (*models.Debate, error) {
	return e.repo.GetDebate(ctx, debateID)
}

// ListDebates returns debates in creation order that match filter.
func (e *DebateEngine) ListDebates(ctx context.Context, filter models.DebateFilter) ([]*models.Debate, error) {
	all, err := e.repo.ListDebates(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	out := make([]*models.Debate, 0, len(all))
	for _, d := range all {
		if matchesFilter(d, filter, now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func matchesFilter(d *models.Debate, f models.DebateFilter, now time.Time) bool {
	if f.DurationHours != 0 && d.DurationHours != f.DurationHours {
		return false
	}
	if f.Category != "" && !strings.EqualFold(d.Category, strings.TrimSpace(f.Category)) {
		return false
	}
	if f.Tag != "" && !slices.ContainsFunc(d.Tags, func(t string) bool {
		return strings.EqualFold(t, strings.TrimSpace(f.Tag))
	}) {
		return false
	}
	if f.Open != nil && d.IsOpen(now) != *f.Open {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := []string{d.Title, d.Description, d.Category}
		haystack = append(haystack, d.Tags...)
		return slices.ContainsFunc(haystack, func(s string) bool {
			return strings.Contains(strings.ToLower(s), q)
		})
	}
	return true
}

// Facets lists the distinct categories and tags across all debates, sorted.
func (e *DebateEngine) Facets(ctx context.Context) (*models.Facets, error) {
	all, err := e.repo.ListDebates(ctx)
	if err != nil {
		return nil, err
	}
	categories := map[string]struct{}{}
	tags := map[string]struct{}{}
	for _, d := range all {
		if d.Category != "" {
			categories[d.Category] = struct{}{}
		}
		for _, t := range d.DisplayTags() {
			tags[t] = struct{}{}
		}
	}
	return &models.Facets{
		Categories: sortedKeys(categories),
		Tags:       sortedKeys(tags),
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// JoinSide records the user's side for the debate. Joining again returns
// the side recorded first; sides never change.
func (e *DebateEngine) JoinSide(ctx context.Context, debateID, userID string, side models.Side) (joined models.Side, err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.JoinSide", attribute.String("debate.id", debateID))
	defer func() { e.finish(ctx, span, "join_side", err) }()

	if !side.Valid() {
		return "", models.NewValidationError("side must be support or oppose")
	}
	if strings.TrimSpace(userID) == "" {
		return "", models.NewValidationError("user is required")
	}

	debate, err := e.repo.GetDebate(ctx, debateID)
	if err != nil {
		return "", err
	}

	lock := e.locks.get(debateID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.ensureOpenLocked(ctx, debate); err != nil {
		return "", err
	}

	existing, err := e.repo.GetParticipation(ctx, debateID, userID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Side, nil
	}

	stored, err := e.repo.CreateParticipation(ctx, &models.Participation{
		DebateID: debateID,
		UserID:   userID,
		Side:     side,
		JoinedAt: e.clock.Now(),
	})
	if err != nil {
		return "", err
	}

	e.log.LogEvent(ctx, notifications.EventSideJoined, debateID, map[string]interface{}{"side": stored.Side})
	e.publish(ctx, notifications.EventSideJoined, debateID, map[string]interface{}{
		"user_id": userID,
		"side":    stored.Side,
	})
	return stored.Side, nil
}

// SideOf returns the side userID joined, if any.
func (e *DebateEngine) SideOf(ctx context.Context, debateID, userID string) (models.Side, bool, error) {
	if _, err := e.repo.GetDebate(ctx, debateID); err != nil {
		return "", false, err
	}
	p, err := e.repo.GetParticipation(ctx, debateID, userID)
	if err != nil || p == nil {
		return "", false, err
	}
	return p.Side, true, nil
}

// PostArgument adds an argument to the side the user joined.
func (e *DebateEngine) PostArgument(ctx context.Context, in PostArgumentInput) (arg *models.Argument, err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.PostArgument", attribute.String("debate.id", in.DebateID))
	defer func() { e.finish(ctx, span, "post_argument", err) }()

	if !in.Side.Valid() {
		return nil, models.NewValidationError("side must be support or oppose")
	}

	debate, err := e.repo.GetDebate(ctx, in.DebateID)
	if err != nil {
		return nil, err
	}

	lock := e.locks.get(in.DebateID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.ensureOpenLocked(ctx, debate); err != nil {
		return nil, err
	}
	if err := e.filter.CheckArgument(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	p, err := e.repo.GetParticipation(ctx, in.DebateID, in.UserID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, models.NewNotParticipantError("join a side before posting")
	}
	if p.Side != in.Side {
		return nil, models.NewNotParticipantError("you can only post on the " + string(p.Side) + " side")
	}

	arg = &models.Argument{
		ID:           e.newID(),
		DebateID:     in.DebateID,
		AuthorID:     in.UserID,
		Side:         in.Side,
		Content:      strings.TrimSpace(in.Content),
		PostedAt:     e.clock.Now(),
		UpvoterIDs:   []string{},
		DownvoterIDs: []string{},
	}
	if err := e.repo.CreateArgument(ctx, arg); err != nil {
		return nil, err
	}

	observability.ArgumentsPosted.WithLabelValues(string(arg.Side)).Inc()
	e.invalidateLeaderboard(ctx)
	e.log.LogEvent(ctx, notifications.EventArgumentPosted, in.DebateID, map[string]interface{}{"argument_id": arg.ID})
	e.publish(ctx, notifications.EventArgumentPosted, in.DebateID, arg)
	return arg, nil
}

// ListArguments returns a debate's arguments in posting order.
func (e *DebateEngine) ListArguments(ctx context.Context, debateID string) ([]*models.Argument, error) {
	if _, err := e.repo.GetDebate(ctx, debateID); err != nil {
		return nil, err
	}
	lock := e.locks.get(debateID)
	lock.RLock()
	defer lock.RUnlock()
	return e.repo.ListArguments(ctx, debateID)
}

// VoteArgument records a single, final up or down vote by a non-author.
func (e *DebateEngine) VoteArgument(ctx context.Context, in VoteArgumentInput) (arg *models.Argument, err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.VoteArgument", attribute.String("argument.id", in.ArgumentID))
	defer func() { e.finish(ctx, span, "vote_argument", err) }()

	if !in.Direction.Valid() {
		return nil, models.NewValidationError("direction must be up or down")
	}

	arg, debate, unlock, err := e.lockArgument(ctx, in.ArgumentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := e.ensureOpenLocked(ctx, debate); err != nil {
		return nil, err
	}
	if arg.AuthorID == in.UserID {
		return nil, models.NewSelfVoteError()
	}
	if arg.HasVoted(in.UserID) {
		return nil, models.NewDuplicateVoteError()
	}

	updated, err := e.repo.RecordVote(ctx, &models.ArgumentVote{
		ArgumentID: arg.ID,
		UserID:     in.UserID,
		DebateID:   arg.DebateID,
		Direction:  in.Direction,
		CreatedAt:  e.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	observability.VotesCast.WithLabelValues(string(in.Direction)).Inc()
	e.log.LogEvent(ctx, notifications.EventVoteCast, arg.DebateID, map[string]interface{}{
		"argument_id": updated.ID,
		"direction":   in.Direction,
	})
	e.invalidateLeaderboard(ctx)
	e.publish(ctx, notifications.EventVoteCast, arg.DebateID, map[string]interface{}{
		"argument_id": updated.ID,
		"direction":   in.Direction,
		"vote_score":  updated.VoteScore,
	})
	return updated, nil
}

// EditArgument replaces the content of the caller's own argument within the edit window.
func (e *DebateEngine) EditArgument(ctx context.Context, in EditArgumentInput) (arg *models.Argument, err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.EditArgument", attribute.String("argument.id", in.ArgumentID))
	defer func() { e.finish(ctx, span, "edit_argument", err) }()

	arg, debate, unlock, err := e.lockArgument(ctx, in.ArgumentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := e.checkAuthorWindowLocked(ctx, arg, debate, in.UserID); err != nil {
		return nil, err
	}
	if err := e.filter.CheckArgument(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	updated, err := e.repo.UpdateArgumentContent(ctx, arg.ID, strings.TrimSpace(in.Content))
	if err != nil {
		return nil, err
	}

	e.log.LogEvent(ctx, notifications.EventArgumentEdited, arg.DebateID, map[string]interface{}{"argument_id": arg.ID})
	e.publish(ctx, notifications.EventArgumentEdited, arg.DebateID, updated)
	return updated, nil
}

// DeleteArgument removes the caller's own argument within the edit window.
func (e *DebateEngine) DeleteArgument(ctx context.Context, in DeleteArgumentInput) (err error) {
	span, ctx := observability.NewSpan(ctx, "DebateEngine.DeleteArgument", attribute.String("argument.id", in.ArgumentID))
	defer func() { e.finish(ctx, span, "delete_argument", err) }()

	arg, debate, unlock, err := e.lockArgument(ctx, in.ArgumentID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.checkAuthorWindowLocked(ctx, arg, debate, in.UserID); err != nil {
		return err
	}
	if err := e.repo.DeleteArgument(ctx, arg.ID); err != nil {
		return err
	}

	e.invalidateLeaderboard(ctx)
	e.log.LogEvent(ctx, notifications.EventArgumentDeleted, arg.DebateID, map[string]interface{}{"argument_id": arg.ID})
	e.publish(ctx, notifications.EventArgumentDeleted, arg.DebateID, map[string]interface{}{
		"argument_id": arg.ID,
		"side":        arg.Side,
	})
	return nil
}

// ComputeWinner sums vote scores per side over the remaining arguments.
// It is only final once the debate has closed.
func (e *DebateEngine) ComputeWinner(ctx context.Context, debateID string) (models.Winner, error) {
	tally, err := e.currentTally(ctx, debateID)
	if err != nil {
		return "", err
	}
	return tally.Winner, nil
}

// Tally returns live scores for the debate. Observing a closed debate settles it.
func (e *DebateEngine) Tally(ctx context.Context, debateID string) (*models.Tally, error) {
	tally, err := e.currentTally(ctx, debateID)
	if err != nil {
		return nil, err
	}
	if !tally.Open {
		if _, err := e.Result(ctx, debateID); err != nil {
			return nil, err
		}
	}
	return tally, nil
}

func (e *DebateEngine) currentTally(ctx context.Context, debateID string) (*models.Tally, error) {
	debate, err := e.repo.GetDebate(ctx, debateID)
	if err != nil {
		return nil, err
	}

	lock := e.locks.get(debateID)
	lock.RLock()
	args, err := e.repo.ListArguments(ctx, debateID)
	lock.RUnlock()
	if err != nil {
		return nil, err
	}

	tally := models.TallyArguments(debateID, args)
	tally.Open = debate.IsOpen(e.clock.Now())
	tally.EndsAt = debate.EndsAt()
	return &tally, nil
}

// Result returns the settled outcome of a closed debate, settling it on
// first observation. Open debates have no result yet.
func (e *DebateEngine) Result(ctx context.Context, debateID string) (res *models.DebateResult, err error) {
	debate, err := e.repo.GetDebate(ctx, debateID)
	if err != nil {
		return nil, err
	}
	if debate.IsOpen(e.clock.Now()) {
		return nil, models.NewDebateOpenError(debateID)
	}

	existing, err := e.repo.GetResult(ctx, debateID)
	if err != nil || existing != nil {
		return existing, err
	}

	lock := e.locks.get(debateID)
	lock.Lock()
	defer lock.Unlock()
	return e.settleLocked(ctx, debate)
}

// lockArgument loads the argument, takes its debate's write lock and
// reloads the argument under the lock.
func (e *DebateEngine) lockArgument(ctx context.Context, argumentID string) (*models.Argument, *models.Debate, func(), error) {
	arg, err := e.repo.GetArgument(ctx, argumentID)
	if err != nil {
		return nil, nil, nil, err
	}
	debate, err := e.repo.GetDebate(ctx, arg.DebateID)
	if err != nil {
		return nil, nil, nil, err
	}

	lock := e.locks.get(debate.ID)
	lock.Lock()

	arg, err = e.repo.GetArgument(ctx, argumentID)
	if err != nil {
		lock.Unlock()
		return nil, nil, nil, err
	}
	return arg, debate, lock.Unlock, nil
}

func (e *DebateEngine) checkAuthorWindowLocked(ctx context.Context, arg *models.Argument, debate *models.Debate, userID string) error {
	if arg.AuthorID != userID {
		return models.NewForbiddenError("only the author can change this argument")
	}
	if !arg.WithinEditWindow(e.clock.Now()) {
		return models.NewEditWindowExpiredError()
	}
	return e.ensureOpenLocked(ctx, debate)
}

// ensureOpenLocked returns DEBATE_CLOSED once the debate has ended, settling
// the result on the way. Callers hold the debate's write lock.
func (e *DebateEngine) ensureOpenLocked(ctx context.Context, debate *models.Debate) error {
	if debate.IsOpen(e.clock.Now()) {
		return nil
	}
	if _, err := e.settleLocked(ctx, debate); err != nil {
		e.log.LogRejected(ctx, "settle", err)
	}
	return models.NewDebateClosedError(debate.ID)
}

// settleLocked computes and stores the result exactly once. Callers hold
// the debate's write lock.
func (e *DebateEngine) settleLocked(ctx context.Context, debate *models.Debate) (*models.DebateResult, error) {
	existing, err := e.repo.GetResult(ctx, debate.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	args, err := e.repo.ListArguments(ctx, debate.ID)
	if err != nil {
		return nil, err
	}
	tally := models.TallyArguments(debate.ID, args)
	candidate := tally.Result(e.clock.Now())

	stored, err := e.repo.SaveResult(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if !stored.SettledAt.Equal(candidate.SettledAt) || stored.Winner != candidate.Winner {
		// another process settled first
		return stored, nil
	}

	observability.DebatesSettled.WithLabelValues(string(stored.Winner)).Inc()
	e.log.LogEvent(ctx, notifications.EventDebateSettled, debate.ID, map[string]interface{}{
		"winner":        stored.Winner,
		"support_score": stored.SupportScore,
		"oppose_score":  stored.OpposeScore,
	})
	e.publish(ctx, notifications.EventDebateSettled, debate.ID, stored)
	return stored, nil
}

func (e *DebateEngine) publish(ctx context.Context, eventType, debateID string, payload interface{}) {
	if e.events == nil {
		return
	}
	err := e.events.Publish(ctx, notifications.Event{
		Type:     eventType,
		DebateID: debateID,
		Payload:  payload,
		At:       e.clock.Now(),
	})
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to publish debate event",
			"event", eventType, "debate_id", debateID, "error", err.Error())
	}
}

func (e *DebateEngine) invalidateLeaderboard(ctx context.Context) {
	e.cache.Invalidate(ctx, cache.LeaderboardVersionKey, cache.LeaderboardKeys()...)
}

func (e *DebateEngine) finish(ctx context.Context, span *observability.Span, operation string, err error) {
	if err != nil {
		e.log.LogRejected(ctx, operation, err)
	}
	span.End(err)
}
