package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/youzarsiph/the-certain-news/internal/database"
	"github.com/youzarsiph/the-certain-news/internal/metrics"
	"github.com/youzarsiph/the-certain-news/internal/models"
)

const slugAttempts = 5

// NewLinkSlug returns 11 characters of URL safe base64 built from 8 random
// bytes.
func NewLinkSlug() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

type linkTarget struct {
	linkID    int
	articleID int
}

// LinkService resolves short links and counts their views.
type LinkService struct {
	db    *gorm.DB
	log   *zap.Logger
	cache *lru.Cache[string, linkTarget]
}

func NewLinkService(db *gorm.DB, log *zap.Logger, cacheSize int) (*LinkService, error) {
	if cacheSize < 1 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, linkTarget](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("link cache: %w", err)
	}
	return &LinkService{db: db, log: log.Named("links"), cache: cache}, nil
}

// Ensure returns the article's link, creating it when missing.
func (s *LinkService) Ensure(ctx context.Context, tx *gorm.DB, articleID int) (*models.Link, error) {
	var link models.Link
	err := tx.WithContext(ctx).Where("article_id = ?", articleID).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for range slugAttempts {
		link = models.Link{ArticleID: articleID, Slug: NewLinkSlug()}
		// A nested transaction rolls back to a savepoint so a slug collision
		// does not abort the caller's transaction.
		err = tx.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
			return inner.Create(&link).Error
		})
		if err == nil {
			return &link, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		// Another request may have created the link for this article.
		var existing models.Link
		if tx.WithContext(ctx).Where("article_id = ?", articleID).First(&existing).Error == nil {
			return &existing, nil
		}
	}
	return nil, fmt.Errorf("link slug: %w", err)
}

// Resolve returns the canonical URL of the live article behind slug and
// counts the view. viewerID is 0 for anonymous visitors.
func (s *LinkService) Resolve(ctx context.Context, slug string, viewerID int) (string, error) {
	target, ok := s.cache.Get(slug)
	if ok {
		metrics.LinkRedirectsTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.LinkRedirectsTotal.WithLabelValues("miss").Inc()
		var link models.Link
		if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
			return "", dbErr("link", err)
		}
		target = linkTarget{linkID: link.ID, articleID: link.ArticleID}
		s.cache.Add(slug, target)
	}

	var article models.Article
	err := s.db.WithContext(ctx).
		Where("id = ? AND live = ?", target.articleID, true).
		First(&article).Error
	if err != nil {
		return "", dbErr("article", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Link{}).
			Where("id = ?", target.linkID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if viewerID == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.LinkView{LinkID: target.linkID, UserID: viewerID}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.cache.Remove(slug)
	}
	if err != nil {
		return "", dbErr("link", err)
	}

	return article.URL(), nil
}

// ForArticle returns the link of an article.
func (s *LinkService) ForArticle(ctx context.Context, articleID int) (*models.Link, error) {
	var link models.Link
	if err := s.db.WithContext(ctx).Where("article_id = ?", articleID).First(&link).Error; err != nil {
		return nil, dbErr("link", err)
	}
	return &link, nil
}

// Backfill creates links for published articles that have none and returns
// how many were created.
func (s *LinkService) Backfill(ctx context.Context) (int, error) {
	var ids []int
	err := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("live = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM links WHERE links.article_id = articles.id)").
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("list articles without links: %w", err)
	}

	for i, id := range ids {
		if _, err := s.Ensure(ctx, s.db, id); err != nil {
			return i, fmt.Errorf("create link for article %d: %w", id, err)
		}
	}
	if len(ids) > 0 {
		s.log.Info("Backfilled short links", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}
