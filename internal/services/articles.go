package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/youzarsiph/the-certain-news/internal/metrics"
	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/sanitize"
	"github.com/youzarsiph/the-certain-news/internal/search"
	"github.com/youzarsiph/the-certain-news/internal/translation"
)

const (
	recommendationLimit = 6
	trendingLimit       = 10
	latestLimit         = 9
	breakingLimit       = 9
	homeCategoryLimit   = 5
	searchLimit         = 1000
)

var articleOrderings = []string{"title", "created_at", "updated_at", "stars"}

const starCount = "(SELECT COUNT(*) FROM article_stars WHERE article_stars.article_id = articles.id)"

// ArticleFilter narrows an article list. Zero values mean no filter.
type ArticleFilter struct {
	Locale     string
	IsBreaking *bool
	CategoryID int
	OwnerID    int
	Tag        string
	Search     string
	Ordering   string
	Page       string
}

// ArticlePage is one page of articles.
type ArticlePage struct {
	Items []models.ArticleResponse
	Page  pagination.Page
}

// Home holds the aggregates shown on the home page.
type Home struct {
	Trending   []models.ArticleResponse
	Latest     []models.ArticleResponse
	Breaking   []models.ArticleResponse
	Categories []models.Category
}

type ArticleService struct {
	db         *gorm.DB
	log        *zap.Logger
	pager      pager
	links      *LinkService
	tags       *TagService
	hooks      []PublishHook
	translator translation.Translator
	index      search.Index
	languages  []string
}

func published(db *gorm.DB) *gorm.DB {
	return db.Where("articles.live = ?", true)
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags").Preload("Link").Preload("Owner").Preload("Category")
}

func newest(db *gorm.DB) *gorm.DB {
	return db.Order("articles.created_at DESC").Order("articles.id DESC")
}

func orderArticles(ordering string) (func(*gorm.DB) *gorm.DB, error) {
	if ordering == "" {
		return newest, nil
	}
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	if !slices.Contains(articleOrderings, field) {
		return nil, invalid("unknown ordering %q", ordering)
	}
	if field == "stars" {
		return func(db *gorm.DB) *gorm.DB {
			return db.
				Order(starCount + direction(desc)).
				Order("articles.created_at DESC").
				Order("articles.id DESC")
		}, nil
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Order(clause.OrderByColumn{Column: clause.Column{Table: "articles", Name: field}, Desc: desc}).
			Order("articles.id DESC")
	}, nil
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

func (s *ArticleService) articles(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Article{})
}

func (s *ArticleService) filter(ctx context.Context, q *gorm.DB, f ArticleFilter) *gorm.DB {
	if f.Locale != "" {
		q = q.Where("articles.locale = ?", f.Locale)
	}
	if f.IsBreaking != nil {
		q = q.Where("articles.is_breaking = ?", *f.IsBreaking)
	}
	if f.CategoryID != 0 {
		q = q.Where("articles.category_id = ?", f.CategoryID)
	}
	if f.OwnerID != 0 {
		q = q.Where("articles.owner_id = ?", f.OwnerID)
	}
	if f.Tag != "" {
		q = q.Where("articles.id IN (?)", s.db.Table("article_tags").
			Select("article_tags.article_id").
			Joins("JOIN tags ON tags.id = article_tags.tag_id").
			Where("tags.slug = ? OR tags.name = ?", f.Tag, f.Tag))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		q = s.search(ctx, q, term, f.Locale)
	}
	return q
}

// search restricts q to articles matching term, through the search index
// when one is configured and SQL LIKE otherwise.
func (s *ArticleService) search(ctx context.Context, q *gorm.DB, term, locale string) *gorm.DB {
	if s.index != nil {
		ids, err := s.index.Search(ctx, term, locale, searchLimit)
		if err == nil {
			if len(ids) == 0 {
				return q.Where("1 = 0")
			}
			return q.Where("articles.id IN ?", ids)
		}
		s.log.Warn("Search index unavailable, falling back to SQL", zap.Error(err))
	}
	like := "%" + strings.ToLower(term) + "%"
	return q.Where(
		"(LOWER(articles.title) LIKE ? OR LOWER(articles.headline) LIKE ? OR LOWER(articles.content) LIKE ?)",
		like, like, like,
	)
}

func (s *ArticleService) list(ctx context.Context, q *gorm.DB, f ArticleFilter) (*ArticlePage, error) {
	order, err := orderArticles(f.Ordering)
	if err != nil {
		return nil, err
	}
	q = s.filter(ctx, q, f)

	var items []models.Article
	page, err := s.pager.paginate(q, f.Page, &items, order, withRelations)
	if err != nil {
		return nil, err
	}
	resp, err := s.respond(ctx, items)
	if err != nil {
		return nil, err
	}
	return &ArticlePage{Items: resp, Page: page}, nil
}

// List returns live articles matching f.
func (s *ArticleService) List(ctx context.Context, f ArticleFilter) (*ArticlePage, error) {
	return s.list(ctx, s.articles(ctx).Scopes(published), f)
}

// Popular lists live articles by stargazer count, most starred first.
func (s *ArticleService) Popular(ctx context.Context, f ArticleFilter) (*ArticlePage, error) {
	f.Ordering = "-stars"
	return s.List(ctx, f)
}

// Drafts lists the caller's unpublished articles, or every draft for staff.
func (s *ArticleService) Drafts(ctx context.Context, actor Actor, f ArticleFilter) (*ArticlePage, error) {
	q := s.articles(ctx).Where("articles.live = ?", false)
	if !actor.IsStaff {
		q = q.Where("articles.owner_id = ?", actor.ID)
	}
	return s.list(ctx, q, f)
}

// Saved lists the live articles the actor saved.
func (s *ArticleService) Saved(ctx context.Context, actor Actor, f ArticleFilter) (*ArticlePage, error) {
	q := s.articles(ctx).Scopes(published).Where("articles.id IN (?)",
		s.db.Table("saved_articles").Select("article_id").Where("user_id = ?", actor.ID))
	return s.list(ctx, q, f)
}

// Starred lists the live articles the actor starred.
func (s *ArticleService) Starred(ctx context.Context, actor Actor, f ArticleFilter) (*ArticlePage, error) {
	q := s.articles(ctx).Scopes(published).Where("articles.id IN (?)",
		s.db.Table("article_stars").Select("article_id").Where("user_id = ?", actor.ID))
	return s.list(ctx, q, f)
}

// Following lists live articles written by users the actor follows.
func (s *ArticleService) Following(ctx context.Context, actor Actor, f ArticleFilter) (*ArticlePage, error) {
	q := s.articles(ctx).Scopes(published).Where("articles.owner_id IN (?)",
		s.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", actor.ID))
	return s.list(ctx, q, f)
}

// Archive lists live articles created in the given year, month or day.
// month and day are 0 when not part of the period.
func (s *ArticleService) Archive(ctx context.Context, year, month, day int, f ArticleFilter) (*ArticlePage, error) {
	start, end, err := archiveRange(year, month, day)
	if err != nil {
		return nil, err
	}
	q := s.articles(ctx).Scopes(published).
		Where("articles.created_at >= ? AND articles.created_at < ?", start, end)
	return s.list(ctx, q, f)
}

func archiveRange(year, month, day int) (time.Time, time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, time.Time{}, invalid("invalid year %d", year)
	}
	switch {
	case month == 0 && day == 0:
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, 0), nil
	case month < 1 || month > 12:
		return time.Time{}, time.Time{}, invalid("invalid month %d", month)
	case day == 0:
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), nil
	}
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Month() != time.Month(month) || day < 1 {
		return time.Time{}, time.Time{}, invalid("invalid day %d", day)
	}
	return start, start.AddDate(0, 0, 1), nil
}

type countRow struct {
	ArticleID int
	N         int64
}

func (s *ArticleService) countBy(ctx context.Context, table string, ids []int) (map[int]int64, error) {
	var rows []countRow
	err := s.db.WithContext(ctx).Table(table).
		Select("article_id, COUNT(*) AS n").
		Where("article_id IN ?", ids).
		Group("article_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	counts := make(map[int]int64, len(rows))
	for _, r := range rows {
		counts[r.ArticleID] = r.N
	}
	return counts, nil
}

// respond decorates articles with their URLs, owner and interaction counts.
func (s *ArticleService) respond(ctx context.Context, items []models.Article) ([]models.ArticleResponse, error) {
	out := make([]models.ArticleResponse, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ids := make([]int, len(items))
	for i, a := range items {
		ids[i] = a.ID
	}
	comments, err := s.countBy(ctx, "comments", ids)
	if err != nil {
		return nil, err
	}
	reactions, err := s.countBy(ctx, "reactions", ids)
	if err != nil {
		return nil, err
	}
	stars, err := s.countBy(ctx, "article_stars", ids)
	if err != nil {
		return nil, err
	}

	for _, a := range items {
		r := models.ArticleResponse{
			Article:       a,
			URL:           a.URL(),
			ShortURL:      a.ShortURL(),
			CommentCount:  comments[a.ID],
			ReactionCount: reactions[a.ID],
			StarCount:     stars[a.ID],
		}
		if a.Tags == nil {
			r.Tags = []models.Tag{}
		}
		if a.Owner.ID != 0 {
			owner := a.Owner.Public()
			r.OwnerInfo = &owner
		}
		if a.Link != nil {
			r.ViewCount = a.Link.ViewCount
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ArticleService) respondOne(ctx context.Context, a *models.Article) (*models.ArticleResponse, error) {
	resp, err := s.respond(ctx, []models.Article{*a})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

// load fetches an article with its relations regardless of its live state.
func (s *ArticleService) load(ctx context.Context, id int) (*models.Article, error) {
	var a models.Article
	if err := s.articles(ctx).Scopes(withRelations).First(&a, id).Error; err != nil {
		return nil, dbErr("article", err)
	}
	return &a, nil
}

// loadLive fetches a live article.
func (s *ArticleService) loadLive(ctx context.Context, id int) (*models.Article, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Live {
		return nil, fmt.Errorf("article %w", ErrNotFound)
	}
	return a, nil
}

// Get returns a live article. Drafts are visible to their owner and staff.
func (s *ArticleService) Get(ctx context.Context, actor Actor, id int) (*models.ArticleResponse, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Live && !actor.CanEdit(a.OwnerID) {
		return nil, fmt.Errorf("article %w", ErrNotFound)
	}
	return s.respondOne(ctx, a)
}

// Create stores a draft article owned by the actor. The locale follows the
// category.
func (s *ArticleService) Create(ctx context.Context, actor Actor, req models.CreateArticleRequest) (*models.ArticleResponse, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid("category %d does not exist", req.CategoryID)
		}
		return nil, err
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(req.Title)
	}
	if slug == "" {
		return nil, invalid("slug cannot be empty")
	}

	article := models.Article{
		CategoryID:     category.ID,
		OwnerID:        actor.ID,
		Title:          strings.TrimSpace(req.Title),
		Slug:           slug,
		Headline:       strings.TrimSpace(req.Headline),
		Content:        sanitize.RichText(req.Content),
		Image:          req.Image,
		IsBreaking:     req.IsBreaking,
		Locale:         category.Locale,
		TranslationKey: uuid.NewString(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := s.tags.ensure(tx, req.Tags)
		if err != nil {
			return err
		}
		article.Tags = tags
		return tx.Omit("Tags.*").Create(&article).Error
	})
	if err != nil {
		return nil, dbErr("article", err)
	}

	s.log.Info("Article created", zap.Int("article_id", article.ID), zap.Int("owner_id", actor.ID))
	a, err := s.load(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return s.respondOne(ctx, a)
}

// Update changes the fields set in req. Only the owner or staff may update.
func (s *ArticleService) Update(ctx context.Context, actor Actor, id int, req models.UpdateArticleRequest) (*models.ArticleResponse, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(article.OwnerID) {
		return nil, forbidden("you can only edit your own articles")
	}

	if req.CategoryID != nil && *req.CategoryID != article.CategoryID {
		var category models.Category
		if err := s.db.WithContext(ctx).First(&category, *req.CategoryID).Error; err != nil {
			return nil, invalid("category %d does not exist", *req.CategoryID)
		}
		if category.Locale != article.Locale {
			return nil, invalid("category %d is not in locale %s", category.ID, article.Locale)
		}
		article.CategoryID = category.ID
		article.Category = category
	}
	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Headline != nil {
		article.Headline = strings.TrimSpace(*req.Headline)
	}
	if req.Content != nil {
		article.Content = sanitize.RichText(*req.Content)
	}
	if req.Image != nil {
		article.Image = *req.Image
	}
	if req.IsBreaking != nil {
		article.IsBreaking = *req.IsBreaking
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(article).Error; err != nil {
			return err
		}
		if req.Tags == nil {
			return nil
		}
		tags, err := s.tags.ensure(tx, req.Tags)
		if err != nil {
			return err
		}
		return tx.Model(article).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, dbErr("article", err)
	}

	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respondOne(ctx, a)
}

// Delete removes an article. Only the owner or staff may delete.
func (s *ArticleService) Delete(ctx context.Context, actor Actor, id int) error {
	article, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanEdit(article.OwnerID) {
		return forbidden("you can only delete your own articles")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"article_tags", "article_stars", "saved_articles"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE article_id = ?", id).Error; err != nil {
				return err
			}
		}
		err := tx.Exec("DELETE FROM article_recommendations WHERE article_id = ? OR recommended_id = ?", id, id).Error
		if err != nil {
			return err
		}
		if err := tx.Where("link_id IN (?)", tx.Model(&models.Link{}).Select("id").Where("article_id = ?", id)).
			Delete(&models.LinkView{}).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.Link{}, &models.Comment{}, &models.Reaction{}, &models.Report{}} {
			if err := tx.Where("article_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Article{}, id).Error
	})
}

// Publish makes an article live, stamps its first publication, gives it a
// short link and then runs the publish hooks.
func (s *ArticleService) Publish(ctx context.Context, actor Actor, id int) (*models.ArticleResponse, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(article.OwnerID) {
		return nil, forbidden("you can only publish your own articles")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"live": true}
		if article.FirstPublishedAt == nil {
			updates["first_published_at"] = time.Now().UTC()
		}
		if err := tx.Model(&models.Article{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		_, err := s.links.Ensure(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, dbErr("article", err)
	}

	article, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("Article published", zap.Int("article_id", id), zap.Bool("breaking", article.IsBreaking))
	s.firePublished(ctx, article)
	return s.respondOne(ctx, article)
}

func (s *ArticleService) firePublished(ctx context.Context, article *models.Article) {
	// the article is committed, hooks run to completion even if the caller leaves
	ctx = context.WithoutCancel(ctx)
	for _, hook := range s.hooks {
		if err := hook.ArticlePublished(ctx, article); err != nil {
			metrics.HookErrorsTotal.WithLabelValues(hook.Name()).Inc()
			s.log.Error("Publish hook failed",
				zap.String("hook", hook.Name()),
				zap.Int("article_id", article.ID),
				zap.Error(err),
			)
		}
	}
}

// Unpublish takes an article offline. Its short link is kept.
func (s *ArticleService) Unpublish(ctx context.Context, actor Actor, id int) (*models.ArticleResponse, error) {
	article, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanEdit(article.OwnerID) {
		return nil, forbidden("you can only unpublish your own articles")
	}
	if err := s.articles(ctx).Where("id = ?", id).Update("live", false).Error; err != nil {
		return nil, dbErr("article", err)
	}
	article.Live = false
	return s.respondOne(ctx, article)
}

// React toggles the actor's reaction on an article. Reacting again with the
// same emoji removes the reaction; another emoji replaces it.
func (s *ArticleService) React(ctx context.Context, actor Actor, id int, emoji string) (string, error) {
	if !slices.Contains(models.Reactions, emoji) {
		return "", invalid("%q is not a valid reaction", emoji)
	}
	article, err := s.loadLive(ctx, id)
	if err != nil {
		return "", err
	}

	var msg, action string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reaction models.Reaction
		err := tx.Where("owner_id = ? AND article_id = ?", actor.ID, id).First(&reaction).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			action = "create"
			msg = fmt.Sprintf("You reacted to '%s' with '%s'", article.Title, emoji)
			return tx.Create(&models.Reaction{OwnerID: actor.ID, ArticleID: id, Emoji: emoji}).Error
		case err != nil:
			return err
		case reaction.Emoji == emoji:
			action = "delete"
			msg = "Reaction removed"
			return tx.Delete(&reaction).Error
		default:
			action = "update"
			msg = fmt.Sprintf("You reacted to '%s' with '%s'", article.Title, emoji)
			return tx.Model(&reaction).Update("emoji", emoji).Error
		}
	})
	if err != nil {
		return "", dbErr("reaction", err)
	}
	metrics.InteractionsTotal.WithLabelValues("reaction", action).Inc()
	return msg, nil
}

// toggleMembership adds or removes the (user, article) row of a join table
// and reports whether the row now exists.
func (s *ArticleService) toggleMembership(ctx context.Context, table string, userID, articleID int) (bool, error) {
	var added bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		err := tx.Table(table).Where("user_id = ? AND article_id = ?", userID, articleID).Count(&n).Error
		if err != nil {
			return err
		}
		if n > 0 {
			return tx.Exec("DELETE FROM "+table+" WHERE user_id = ? AND article_id = ?", userID, articleID).Error
		}
		added = true
		return tx.Exec("INSERT INTO "+table+" (user_id, article_id) VALUES (?, ?)", userID, articleID).Error
	})
	return added, err
}

// Star toggles the actor's star on an article.
func (s *ArticleService) Star(ctx context.Context, actor Actor, id int) (string, error) {
	article, err := s.loadLive(ctx, id)
	if err != nil {
		return "", err
	}
	added, err := s.toggleMembership(ctx, "article_stars", actor.ID, id)
	if err != nil {
		return "", dbErr("star", err)
	}
	if added {
		metrics.InteractionsTotal.WithLabelValues("star", "create").Inc()
		return fmt.Sprintf("You starred '%s'", article.Title), nil
	}
	metrics.InteractionsTotal.WithLabelValues("star", "delete").Inc()
	return fmt.Sprintf("You unstarred '%s'", article.Title), nil
}

// Save toggles an article in the actor's saved list.
func (s *ArticleService) Save(ctx context.Context, actor Actor, id int) (string, error) {
	article, err := s.loadLive(ctx, id)
	if err != nil {
		return "", err
	}
	added, err := s.toggleMembership(ctx, "saved_articles", actor.ID, id)
	if err != nil {
		return "", dbErr("saved article", err)
	}
	if added {
		metrics.InteractionsTotal.WithLabelValues("save", "create").Inc()
		return fmt.Sprintf("Article '%s' added to saved articles", article.Title), nil
	}
	metrics.InteractionsTotal.WithLabelValues("save", "delete").Inc()
	return fmt.Sprintf("Article '%s' removed from saved articles", article.Title), nil
}

// Recommendations returns the explicit recommendations of a live article, or
// random live articles from the same category when it has none.
func (s *ArticleService) Recommendations(ctx context.Context, id int) ([]models.ArticleResponse, error) {
	article, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}

	var items []models.Article
	err = s.articles(ctx).Scopes(published, withRelations, newest).
		Where("articles.id IN (?)", s.db.Table("article_recommendations").
			Select("recommended_id").Where("article_id = ?", id)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		err = s.articles(ctx).Scopes(published, withRelations).
			Where("articles.category_id = ? AND articles.id <> ?", article.CategoryID, id).
			Order("RANDOM()").
			Limit(recommendationLimit).
			Find(&items).Error
		if err != nil {
			return nil, err
		}
	}
	return s.respond(ctx, items)
}

// SetRecommendations replaces the explicit recommendations of an article.
// The relation is symmetric.
func (s *ArticleService) SetRecommendations(ctx context.Context, actor Actor, id int, ids []int) error {
	article, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanEdit(article.OwnerID) {
		return forbidden("you can only edit your own articles")
	}
	ids = slices.DeleteFunc(slices.Compact(slices.Sorted(slices.Values(ids))), func(v int) bool { return v == id })

	var found int64
	if len(ids) > 0 {
		if err := s.articles(ctx).Where("id IN ?", ids).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(ids) {
			return invalid("unknown article in recommendations")
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Exec("DELETE FROM article_recommendations WHERE article_id = ? OR recommended_id = ?", id, id).Error
		if err != nil {
			return err
		}
		for _, other := range ids {
			for _, pair := range [][2]int{{id, other}, {other, id}} {
				err := tx.Exec("INSERT INTO article_recommendations (article_id, recommended_id) VALUES (?, ?)", pair[0], pair[1]).Error
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Home collects the home page aggregates for a locale.
func (s *ArticleService) Home(ctx context.Context, locale string) (*Home, error) {
	base := func() *gorm.DB {
		q := s.articles(ctx).Scopes(published, withRelations)
		if locale != "" {
			q = q.Where("articles.locale = ?", locale)
		}
		return q
	}

	var trending, latest, breaking []models.Article
	err := base().
		Joins("JOIN links ON links.article_id = articles.id").
		Order("links.view_count DESC").Order("articles.created_at DESC").
		Limit(trendingLimit).
		Find(&trending).Error
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	if err := base().Scopes(newest).Limit(latestLimit).Find(&latest).Error; err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	if err := base().Where("articles.is_breaking = ?", true).Scopes(newest).Limit(breakingLimit).Find(&breaking).Error; err != nil {
		return nil, fmt.Errorf("breaking: %w", err)
	}

	var categories []models.Category
	cq := s.db.WithContext(ctx).Where("live = ?", true)
	if locale != "" {
		cq = cq.Where("locale = ?", locale)
	}
	if err := cq.Order("RANDOM()").Limit(homeCategoryLimit).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}

	home := &Home{Categories: categories}
	for _, set := range []struct {
		src []models.Article
		dst *[]models.ArticleResponse
	}{{trending, &home.Trending}, {latest, &home.Latest}, {breaking, &home.Breaking}} {
		resp, err := s.respond(ctx, set.src)
		if err != nil {
			return nil, err
		}
		*set.dst = resp
	}
	return home, nil
}

// Latest returns the newest live articles of a locale, optionally only the
// breaking ones.
func (s *ArticleService) Latest(ctx context.Context, locale string, breakingOnly bool, limit int) ([]models.Article, error) {
	q := s.articles(ctx).Scopes(published, withRelations, newest)
	if locale != "" {
		q = q.Where("articles.locale = ?", locale)
	}
	if breakingOnly {
		q = q.Where("articles.is_breaking = ?", true)
	}
	var items []models.Article
	if err := q.Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Translations lists every locale variant of an article, itself included.
func (s *ArticleService) Translations(ctx context.Context, id int) ([]models.Article, error) {
	article, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	var items []models.Article
	err = s.articles(ctx).Scopes(published).
		Where("translation_key = ?", article.TranslationKey).
		Order("locale").
		Find(&items).Error
	return items, err
}

// Translate creates a draft copy of an article in the target locale with
// machine translated title, headline and content. Staff only.
func (s *ArticleService) Translate(ctx context.Context, actor Actor, id int, target string) (*models.ArticleResponse, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can translate articles")
	}
	if s.translator == nil {
		return nil, invalid("machine translation is not configured")
	}
	target = strings.ToLower(strings.TrimSpace(target))
	if !slices.Contains(s.languages, target) {
		return nil, invalid("unsupported language %q", target)
	}

	source, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.translator.CanTranslate(source.Locale, target) {
		return nil, invalid("cannot translate from %s to %s", source.Locale, target)
	}

	var n int64
	err = s.articles(ctx).
		Where("translation_key = ? AND locale = ?", source.TranslationKey, target).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%s translation %w", target, ErrConflict)
	}

	texts, err := s.translator.Translate(ctx, source.Locale, target, []string{
		source.Title, source.Headline, source.Category.Title,
	})
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	content, err := translation.TranslateHTML(ctx, s.translator, source.Locale, target, source.Content)
	if err != nil {
		return nil, fmt.Errorf("translate content: %w", err)
	}

	copied := models.Article{
		OwnerID:        source.OwnerID,
		Title:          texts[0],
		Slug:           source.Slug,
		Headline:       texts[1],
		Content:        sanitize.RichText(content),
		Image:          source.Image,
		IsBreaking:     source.IsBreaking,
		Locale:         target,
		TranslationKey: source.TranslationKey,
		Tags:           source.Tags,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := s.localizedCategory(tx, &source.Category, target, texts[2])
		if err != nil {
			return err
		}
		copied.CategoryID = category.ID
		return tx.Omit("Tags.*").Create(&copied).Error
	})
	if err != nil {
		return nil, dbErr("translation", err)
	}

	s.log.Info("Article translated",
		zap.Int("source_id", source.ID),
		zap.Int("article_id", copied.ID),
		zap.String("locale", target),
	)
	a, err := s.load(ctx, copied.ID)
	if err != nil {
		return nil, err
	}
	return s.respondOne(ctx, a)
}

// localizedCategory returns the category with the same slug in the target
// locale, creating it when missing.
func (s *ArticleService) localizedCategory(tx *gorm.DB, source *models.Category, locale, title string) (*models.Category, error) {
	var category models.Category
	err := tx.Where("slug = ? AND locale = ?", source.Slug, locale).First(&category).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	category = models.Category{
		Title:        title,
		Slug:         source.Slug,
		Locale:       locale,
		Description:  source.Description,
		DisplayOwner: source.DisplayOwner,
		Live:         source.Live,
		Position:     source.Position,
	}
	return &category, tx.Create(&category).Error
}
