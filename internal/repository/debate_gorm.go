package repository

import (
	"context"
	"errors"
	"time"

	"arena/internal/models"
	"arena/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type debateRepository struct {
	db *gorm.DB
}

// NewDebateRepository creates a GORM backed DebateRepository. The db must
// be opened with TranslateError so duplicate votes surface as gorm.ErrDuplicatedKey.
func NewDebateRepository(db *gorm.DB) DebateRepository {
	return &debateRepository{db: db}
}

func (r *debateRepository) CreateDebate(ctx context.Context, debate *models.Debate) error {
	defer observability.TrackQuery("create", "debates")()
	if err := r.db.WithContext(ctx).Create(debate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.NewConflictError("debate already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *debateRepository) GetDebate(ctx context.Context, id string) (*models.Debate, error) {
	defer observability.TrackQuery("get", "debates")()
	var debate models.Debate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&debate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Debate", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &debate, nil
}

func (r *debateRepository) ListDebates(ctx context.Context) ([]*models.Debate, error) {
	defer observability.TrackQuery("list", "debates")()
	var debates []*models.Debate
	// ids are UUIDv7 (NewID), so id breaks created_at ties in insertion order
	if err := r.db.WithContext(ctx).Order("created_at asc, id asc").Find(&debates).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return debates, nil
}

func (r *debateRepository) GetParticipation(ctx context.Context, debateID, userID string) (*models.Participation, error) {
	defer observability.TrackQuery("get", "participations")()
	var p models.Participation
	err := r.db.WithContext(ctx).
		Where("debate_id = ? AND user_id = ?", debateID, userID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &p, nil
}

func (r *debateRepository) CreateParticipation(ctx context.Context, p *models.Participation) (*models.Participation, error) {
	defer observability.TrackQuery("create", "participations")()
	row := *p
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stored, err := r.GetParticipation(ctx, p.DebateID, p.UserID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewInternalError(errors.New("participation missing after insert"))
	}
	return stored, nil
}

func (r *debateRepository) CreateArgument(ctx context.Context, arg *models.Argument) error {
	defer observability.TrackQuery("create", "arguments")()
	if err := r.db.WithContext(ctx).Create(arg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *debateRepository) GetArgument(ctx context.Context, id string) (*models.Argument, error) {
	defer observability.TrackQuery("get", "arguments")()
	return r.getArgument(r.db.WithContext(ctx), id)
}

func (r *debateRepository) getArgument(db *gorm.DB, id string) (*models.Argument, error) {
	var arg models.Argument
	if err := db.Where("id = ?", id).First(&arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Argument", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := loadVoters(db, []*models.Argument{&arg}); err != nil {
		return nil, err
	}
	return &arg, nil
}

func (r *debateRepository) ListArguments(ctx context.Context, debateID string) ([]*models.Argument, error) {
	defer observability.TrackQuery("list", "arguments")()
	db := r.db.WithContext(ctx)
	var args []*models.Argument
	if err := db.Where("debate_id = ?", debateID).Order("posted_at asc, id asc").Find(&args).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := loadVoters(db, args); err != nil {
		return nil, err
	}
	return args, nil
}

func (r *debateRepository) ListArgumentsSince(ctx context.Context, since time.Time) ([]*models.Argument, error) {
	defer observability.TrackQuery("list_since", "arguments")()
	q := r.db.WithContext(ctx).Order("posted_at asc, id asc")
	if !since.IsZero() {
		q = q.Where("posted_at >= ?", since)
	}
	var args []*models.Argument
	if err := q.Find(&args).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return args, nil
}

func (r *debateRepository) UpdateArgumentContent(ctx context.Context, id, content string) (*models.Argument, error) {
	defer observability.TrackQuery("update", "arguments")()
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Argument{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"content": content, "edited": true})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundError("Argument", id)
	}
	return r.getArgument(db, id)
}

func (r *debateRepository) DeleteArgument(ctx context.Context, id string) error {
	defer observability.TrackQuery("delete", "arguments")()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("argument_id = ?", id).Delete(&models.ArgumentVote{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Argument{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Argument", id)
		}
		return nil
	})
}

func (r *debateRepository) RecordVote(ctx context.Context, vote *models.ArgumentVote) (*models.Argument, error) {
	defer observability.TrackQuery("vote", "argument_votes")()
	var updated *models.Argument
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(vote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.NewDuplicateVoteError()
			}
			return models.NewInternalError(err)
		}
		res := tx.Model(&models.Argument{}).
			Where("id = ?", vote.ArgumentID).
			UpdateColumn("vote_score", gorm.Expr("vote_score + ?", vote.Direction.Delta()))
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Argument", vote.ArgumentID)
		}
		arg, err := r.getArgument(tx, vote.ArgumentID)
		if err != nil {
			return err
		}
		updated = arg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *debateRepository) GetResult(ctx context.Context, debateID string) (*models.DebateResult, error) {
	defer observability.TrackQuery("get", "debate_results")()
	var res models.DebateResult
	if err := r.db.WithContext(ctx).Where("debate_id = ?", debateID).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &res, nil
}

func (r *debateRepository) SaveResult(ctx context.Context, res *models.DebateResult) (*models.DebateResult, error) {
	defer observability.TrackQuery("create", "debate_results")()
	row := *res
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	stored, err := r.GetResult(ctx, res.DebateID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, models.NewInternalError(errors.New("result missing after insert"))
	}
	return stored, nil
}

// loadVoters fills the voter id sets from argument_votes in vote order.
func loadVoters(db *gorm.DB, args []*models.Argument) error {
	if len(args) == 0 {
		return nil
	}
	ids := make([]string, len(args))
	byID := make(map[string]*models.Argument, len(args))
	for i, a := range args {
		ids[i] = a.ID
		byID[a.ID] = a
		a.UpvoterIDs = []string{}
		a.DownvoterIDs = []string{}
	}

	var votes []models.ArgumentVote
	if err := db.Where("argument_id IN ?", ids).Order("created_at asc, user_id asc").Find(&votes).Error; err != nil {
		return models.NewInternalError(err)
	}
	for _, v := range votes {
		a := byID[v.ArgumentID]
		if v.Direction == models.DirectionUp {
			a.UpvoterIDs = append(a.UpvoterIDs, v.UserID)
		} else {
			a.DownvoterIDs = append(a.DownvoterIDs, v.UserID)
		}
	}
	return nil
}
