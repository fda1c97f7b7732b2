package services

import (
	"context"
	"slices"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
)

// ReactionFilter narrows a reaction list. Zero values mean no filter.
type ReactionFilter struct {
	ArticleID int
	Emoji     string
	Page      string
}

type emojiRow struct {
	Emoji string
	N     int64
}

type ReactionService struct {
	db    *gorm.DB
	pager pager
}

// Mine lists the actor's reactions, newest first.
func (s *ReactionService) Mine(ctx context.Context, actor Actor, f ReactionFilter) ([]models.Reaction, pagination.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Reaction{}).Where("owner_id = ?", actor.ID)
	if f.ArticleID != 0 {
		q = q.Where("article_id = ?", f.ArticleID)
	}
	if f.Emoji != "" {
		q = q.Where("emoji = ?", f.Emoji)
	}
	reactions := []models.Reaction{}
	page, err := s.pager.paginate(q, f.Page, &reactions, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	})
	return reactions, page, err
}

// Summary counts the reactions of an article per emoji.
func (s *ReactionService) Summary(ctx context.Context, articleID int) (map[string]int64, error) {
	var rows []emojiRow
	err := s.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("emoji, COUNT(*) AS n").
		Where("article_id = ?", articleID).
		Group("emoji").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Emoji] = r.N
	}
	return out, nil
}

func (s *ReactionService) own(ctx context.Context, actor Actor, id int) (*models.Reaction, error) {
	var r models.Reaction
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, dbErr("reaction", err)
	}
	if r.OwnerID != actor.ID {
		return nil, forbidden("you can only change your own reactions")
	}
	return &r, nil
}

func (s *ReactionService) Get(ctx context.Context, actor Actor, id int) (*models.Reaction, error) {
	return s.own(ctx, actor, id)
}

func (s *ReactionService) Update(ctx context.Context, actor Actor, id int, emoji string) (*models.Reaction, error) {
	if !slices.Contains(models.Reactions, emoji) {
		return nil, invalid("%q is not a valid reaction", emoji)
	}
	r, err := s.own(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(r).Update("emoji", emoji).Error; err != nil {
		return nil, dbErr("reaction", err)
	}
	return r, nil
}

func (s *ReactionService) Delete(ctx context.Context, actor Actor, id int) error {
	r, err := s.own(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(r).Error
}
