package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"arena/internal/models"
	"arena/internal/service"

	"gopkg.in/yaml.v3"
)

// Scenario is a hand-written data set, loaded from YAML, for demos and
// reproducible bug reports.
type Scenario struct {
	Users   []ScenarioUser   `yaml:"users"`
	Debates []ScenarioDebate `yaml:"debates"`
}

type ScenarioUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type ScenarioDebate struct {
	Title           string             `yaml:"title"`
	Description     string             `yaml:"description"`
	Category        string             `yaml:"category"`
	Tags            []string           `yaml:"tags"`
	DurationHours   int                `yaml:"duration_hours"`
	Creator         string             `yaml:"creator"`
	StartedHoursAgo float64            `yaml:"started_hours_ago"`
	Arguments       []ScenarioArgument `yaml:"arguments"`
}

type ScenarioArgument struct {
	Author    string   `yaml:"author"`
	Side      string   `yaml:"side"`
	Content   string   `yaml:"content"`
	AtMinute  int      `yaml:"at_minute"`
	Upvotes   []string `yaml:"upvotes"`
	Downvotes []string `yaml:"downvotes"`
}

// ParseScenario decodes YAML scenario data.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ApplyScenario creates the scenario's users and replays its debates.
// Users are referenced by name within the file.
func (s *Seeder) ApplyScenario(ctx context.Context, sc *Scenario) (*Summary, error) {
	now := s.clock.Now()
	defer s.clock.Set(now)

	summary := &Summary{}
	byName := make(map[string]*models.User, len(sc.Users))
	for _, u := range sc.Users {
		password := u.Password
		if password == "" {
			password = DefaultPassword
		}
		user, err := s.users.Signup(ctx, service.SignupInput{Name: u.Name, Email: u.Email, Password: password})
		if err != nil {
			return nil, fmt.Errorf("scenario user %q: %w", u.Name, err)
		}
		byName[u.Name] = user
		summary.Users++
	}

	lookup := func(name string) (*models.User, error) {
		u, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("scenario references unknown user %q", name)
		}
		return u, nil
	}

	for _, d := range sc.Debates {
		creator, err := lookup(d.Creator)
		if err != nil {
			return nil, err
		}
		s.clock.Set(now.Add(-time.Duration(d.StartedHoursAgo * float64(time.Hour))))

		debate, err := s.engine.CreateDebate(ctx, service.CreateDebateInput{
			CreatorID:     creator.ID,
			Title:         d.Title,
			Description:   d.Description,
			Tags:          d.Tags,
			Category:      d.Category,
			DurationHours: d.DurationHours,
		})
		if err != nil {
			return nil, fmt.Errorf("scenario debate %q: %w", d.Title, err)
		}
		summary.Debates++

		for _, a := range d.Arguments {
			if err := s.replayArgument(ctx, debate, a, lookup, summary); err != nil {
				return nil, fmt.Errorf("scenario debate %q: %w", d.Title, err)
			}
		}
	}
	return summary, nil
}

func (s *Seeder) replayArgument(ctx context.Context, debate *models.Debate, a ScenarioArgument, lookup func(string) (*models.User, error), summary *Summary) error {
	author, err := lookup(a.Author)
	if err != nil {
		return err
	}
	side, err := models.ParseSide(a.Side)
	if err != nil {
		return err
	}

	s.clock.Set(debate.CreatedAt.Add(time.Duration(a.AtMinute) * time.Minute))
	if _, err := s.engine.JoinSide(ctx, debate.ID, author.ID, side); err != nil {
		return err
	}
	arg, err := s.engine.PostArgument(ctx, service.PostArgumentInput{
		DebateID: debate.ID, UserID: author.ID, Side: side, Content: a.Content,
	})
	if err != nil {
		return err
	}
	summary.Arguments++

	votes := []struct {
		names []string
		dir   models.Direction
	}{
		{a.Upvotes, models.DirectionUp},
		{a.Downvotes, models.DirectionDown},
	}
	for _, group := range votes {
		for _, name := range group.names {
			voter, err := lookup(name)
			if err != nil {
				return err
			}
			_, err = s.engine.VoteArgument(ctx, service.VoteArgumentInput{
				ArgumentID: arg.ID, UserID: voter.ID, Direction: group.dir,
			})
			if err != nil && !errors.Is(err, models.ErrDuplicateVote) {
				return fmt.Errorf("vote by %q: %w", name, err)
			}
			if err == nil {
				summary.Votes++
			}
		}
	}
	return nil
}
