// Package services implements the news domain on top of gorm.
package services

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/search"
	"github.com/youzarsiph/the-certain-news/internal/translation"
)

// Actor is the authenticated caller of a write operation.
type Actor struct {
	ID      int
	IsStaff bool
}

// CanEdit reports whether the actor owns the object or is staff.
func (a Actor) CanEdit(ownerID int) bool {
	return a.IsStaff || (a.ID != 0 && a.ID == ownerID)
}

// PublishHook is notified after an article goes live.
type PublishHook interface {
	Name() string
	ArticlePublished(ctx context.Context, article *models.Article) error
}

// Options configure the services.
type Options struct {
	PerPage       int
	Orphans       int
	Languages     []string
	LinkCacheSize int
	Hooks         []PublishHook
	Translator    translation.Translator
	Index         search.Index
}

// Services bundles every domain service.
type Services struct {
	Articles   *ArticleService
	Categories *CategoryService
	Comments   *CommentService
	Reactions  *ReactionService
	Users      *UserService
	Reports    *ReportService
	Tags       *TagService
	Links      *LinkService
}

func New(db *gorm.DB, log *zap.Logger, opts Options) (*Services, error) {
	if opts.PerPage < 1 {
		opts.PerPage = pagination.DefaultPerPage
	}
	pager := pager{perPage: opts.PerPage, orphans: opts.Orphans}

	links, err := NewLinkService(db, log, opts.LinkCacheSize)
	if err != nil {
		return nil, err
	}
	tags := &TagService{db: db, pager: pager}
	articles := &ArticleService{
		db:         db,
		log:        log.Named("articles"),
		pager:      pager,
		links:      links,
		tags:       tags,
		hooks:      opts.Hooks,
		translator: opts.Translator,
		index:      opts.Index,
		languages:  opts.Languages,
	}

	return &Services{
		Articles:   articles,
		Categories: &CategoryService{db: db, pager: pager, articles: articles},
		Comments:   &CommentService{db: db, pager: pager},
		Reactions:  &ReactionService{db: db, pager: pager},
		Users:      &UserService{db: db, pager: pager, articles: articles},
		Reports:    &ReportService{db: db, pager: pager},
		Tags:       tags,
		Links:      links,
	}, nil
}

// pager applies the configured page size to a counted query.
type pager struct {
	perPage int
	orphans int
}

func (p pager) paginator(count int64) pagination.Paginator {
	pg := pagination.New(int(count), p.perPage)
	pg.Orphans = p.orphans
	return pg
}

// paginate counts q, resolves the raw page parameter and loads the page into
// dest. Ordering and preloads go into scopes so they stay out of the count.
func (p pager) paginate(q *gorm.DB, rawPage string, dest any, scopes ...func(*gorm.DB) *gorm.DB) (pagination.Page, error) {
	q = q.Session(&gorm.Session{})
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return pagination.Page{}, err
	}
	page, err := p.paginator(count).Resolve(rawPage)
	if err != nil {
		return pagination.Page{}, err
	}
	if page.Limit == 0 {
		return page, nil
	}
	return page, q.Scopes(scopes...).Offset(page.Offset).Limit(page.Limit).Find(dest).Error
}
