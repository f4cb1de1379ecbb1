// Package seed populates a debate store with demo data for development and
// testing. It drives the debate engine with a manual clock so seeded
// debates, arguments and votes go through the same rules as live traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"arena/internal/clock"
	"arena/internal/models"
	"arena/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is the password every seeded account gets.
const DefaultPassword = "password123"

var (
	categories = []string{
		"Technology", "Education", "Politics", "Science", "Sports",
		"Health", "Economics", "Philosophy", "Culture", "Environment",
	}
	tagPool = []string{
		"ai", "ethics", "future", "policy", "school", "climate", "privacy",
		"remote-work", "space", "games", "nutrition", "crypto", "history",
	}
)

// Options controls random seeding.
type Options struct {
	Users              int
	Debates            int
	ArgumentsPerDebate int
	VotesPerArgument   int
	// MaxDays spreads debate start times over the past MaxDays days.
	MaxDays  int
	Password string
}

func (o Options) withDefaults() Options {
	if o.Users <= 0 {
		o.Users = 20
	}
	if o.Debates <= 0 {
		o.Debates = 10
	}
	if o.ArgumentsPerDebate <= 0 {
		o.ArgumentsPerDebate = 6
	}
	if o.VotesPerArgument < 0 {
		o.VotesPerArgument = 0
	}
	if o.MaxDays <= 0 {
		o.MaxDays = 14
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
	return o
}

// Summary counts what a seeding run created.
type Summary struct {
	Users     int
	Debates   int
	Arguments int
	Votes     int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d users, %d debates, %d arguments, %d votes", s.Users, s.Debates, s.Arguments, s.Votes)
}

// Seeder creates accounts and debate activity through the services.
type Seeder struct {
	users  *service.UserService
	engine *service.DebateEngine
	clock  *clock.Manual
	faker  *gofakeit.Faker
}

// NewSeeder builds a Seeder. engine must run on clk so the seeder can place
// activity in the past.
func NewSeeder(users *service.UserService, engine *service.DebateEngine, clk *clock.Manual, seed int64) *Seeder {
	return &Seeder{
		users:  users,
		engine: engine,
		clock:  clk,
		faker:  gofakeit.New(seed),
	}
}

// Random creates users and debates with arguments and votes spread over
// the past opts.MaxDays days. The clock is restored afterwards.
func (s *Seeder) Random(ctx context.Context, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	now := s.clock.Now()
	defer s.clock.Set(now)

	summary := &Summary{}
	users, err := s.randomUsers(ctx, opts)
	if err != nil {
		return nil, err
	}
	summary.Users = len(users)
	if len(users) < 2 {
		return summary, nil
	}

	window := time.Duration(opts.MaxDays) * 24 * time.Hour
	starts := make([]time.Duration, opts.Debates)
	for i := range starts {
		starts[i] = time.Duration(s.faker.Number(0, opts.MaxDays*24*60)) * time.Minute
	}
	slices.Sort(starts)

	for _, offset := range starts {
		s.clock.Set(now.Add(-window + offset))
		if err := s.randomDebate(ctx, users, opts, now, summary); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

func (s *Seeder) randomUsers(ctx context.Context, opts Options) ([]*models.User, error) {
	users := make([]*models.User, 0, opts.Users)
	for len(users) < opts.Users {
		user, err := s.users.Signup(ctx, service.SignupInput{
			Name:     s.faker.Name(),
			Email:    s.faker.Email(),
			Password: opts.Password,
		})
		if errors.Is(err, models.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) randomDebate(ctx context.Context, users []*models.User, opts Options, now time.Time, summary *Summary) error {
	creator := users[s.faker.Number(0, len(users)-1)]
	tags := make([]string, s.faker.Number(1, 3))
	for i := range tags {
		tags[i] = s.faker.RandomString(tagPool)
	}
	duration := models.AllowedDurations[s.faker.Number(0, len(models.AllowedDurations)-1)]

	debate, err := s.engine.CreateDebate(ctx, service.CreateDebateInput{
		CreatorID:     creator.ID,
		Title:         s.title(),
		Description:   s.faker.Paragraph(1, 3, 12, " "),
		Tags:          tags,
		Category:      s.faker.RandomString(categories),
		DurationHours: duration,
	})
	if err != nil {
		return fmt.Errorf("seed debate: %w", err)
	}
	summary.Debates++

	// keep all activity inside the debate's lifetime
	step := debate.Duration() / time.Duration(opts.ArgumentsPerDebate+1)
	for i := 0; i < opts.ArgumentsPerDebate; i++ {
		at := debate.CreatedAt.Add(step * time.Duration(i+1))
		if at.After(now) {
			break
		}
		s.clock.Set(at)

		author := users[s.faker.Number(0, len(users)-1)]
		side := models.SideSupport
		if s.faker.Bool() {
			side = models.SideOppose
		}
		side, err = s.engine.JoinSide(ctx, debate.ID, author.ID, side)
		if err != nil {
			return fmt.Errorf("seed join: %w", err)
		}

		arg, err := s.engine.PostArgument(ctx, service.PostArgumentInput{
			DebateID: debate.ID,
			UserID:   author.ID,
			Side:     side,
			Content:  s.faker.Sentence(s.faker.Number(8, 20)),
		})
		if errors.Is(err, models.ErrValidation) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed argument: %w", err)
		}
		summary.Arguments++

		for v := 0; v < opts.VotesPerArgument; v++ {
			voter := users[s.faker.Number(0, len(users)-1)]
			dir := models.DirectionUp
			if s.faker.Number(1, 10) <= 3 {
				dir = models.DirectionDown
			}
			_, err := s.engine.VoteArgument(ctx, service.VoteArgumentInput{
				ArgumentID: arg.ID, UserID: voter.ID, Direction: dir,
			})
			switch {
			case err == nil:
				summary.Votes++
			case errors.Is(err, models.ErrSelfVote), errors.Is(err, models.ErrDuplicateVote):
			default:
				return fmt.Errorf("seed vote: %w", err)
			}
		}
	}
	log.Printf("seeded debate %q (%dh, created %s)", debate.Title, debate.DurationHours, debate.CreatedAt.Format(time.RFC3339))
	return nil
}

func (s *Seeder) title() string {
	title := s.faker.Question()
	for len(title) > 200 || len(title) < 3 {
		title = s.faker.Question()
	}
	return title
}
