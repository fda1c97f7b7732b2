package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
)

type CategoryService struct {
	db       *gorm.DB
	pager    pager
	articles *ArticleService
}

// List returns categories of a locale. Drafts are included for staff.
func (s *CategoryService) List(ctx context.Context, actor Actor, locale, rawPage string) ([]models.Category, pagination.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Category{})
	if !actor.IsStaff {
		q = q.Where("live = ?", true)
	}
	if locale != "" {
		q = q.Where("locale = ?", locale)
	}
	categories := []models.Category{}
	page, err := s.pager.paginate(q, rawPage, &categories, func(db *gorm.DB) *gorm.DB {
		return db.Order("position").Order("title")
	})
	return categories, page, err
}

func (s *CategoryService) Get(ctx context.Context, actor Actor, id int) (*models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, dbErr("category", err)
	}
	if !category.Live && !actor.IsStaff {
		return nil, dbErr("category", gorm.ErrRecordNotFound)
	}
	return &category, nil
}

// Children returns one page of the live articles under a live category,
// newest first.
func (s *CategoryService) Children(ctx context.Context, id int, rawPage string) (*models.Category, *ArticlePage, error) {
	category, err := s.Get(ctx, Actor{}, id)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.articles.List(ctx, ArticleFilter{CategoryID: id, Page: rawPage})
	if err != nil {
		return nil, nil, err
	}
	return category, page, nil
}

func (s *CategoryService) Create(ctx context.Context, actor Actor, req models.CategoryRequest) (*models.Category, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can manage categories")
	}
	category := models.Category{Live: true}
	if err := s.apply(ctx, &category, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, dbErr("category", err)
	}
	return &category, nil
}

func (s *CategoryService) Update(ctx context.Context, actor Actor, id int, req models.CategoryRequest) (*models.Category, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can manage categories")
	}
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, dbErr("category", err)
	}
	if req.ParentID != nil {
		if err := s.checkAncestry(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
	}
	if err := s.apply(ctx, &category, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, dbErr("category", err)
	}
	return &category, nil
}

// checkAncestry walks up from parentID and fails if it reaches id, which
// would make the category its own ancestor.
func (s *CategoryService) checkAncestry(ctx context.Context, id, parentID int) error {
	seen := map[int]bool{}
	for current := &parentID; current != nil; {
		if *current == id {
			return invalid("category %d cannot be nested under its own descendant", id)
		}
		if seen[*current] {
			// an existing loop that id is not part of
			return nil
		}
		seen[*current] = true

		var parent models.Category
		err := s.db.WithContext(ctx).Select("id", "parent_id").First(&parent, *current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return dbErr("category", err)
		}
		current = parent.ParentID
	}
	return nil
}

func (s *CategoryService) apply(ctx context.Context, c *models.Category, req models.CategoryRequest) error {
	if req.ParentID != nil {
		var n int64
		if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", *req.ParentID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("parent category %d does not exist", *req.ParentID)
		}
	}
	c.ParentID = req.ParentID
	c.Title = strings.TrimSpace(req.Title)
	c.Slug = Slugify(req.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(req.Title)
	}
	if c.Slug == "" {
		return invalid("slug cannot be empty")
	}
	if req.Locale != "" {
		c.Locale = strings.ToLower(req.Locale)
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	c.Description = req.Description
	c.DisplayOwner = req.DisplayOwner
	c.Position = req.Position
	if req.Live != nil {
		c.Live = *req.Live
	}
	return nil
}

// Delete removes a category together with its articles.
func (s *CategoryService) Delete(ctx context.Context, actor Actor, id int) error {
	if !actor.IsStaff {
		return forbidden("only staff can manage categories")
	}
	var ids []int
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Where("category_id = ?", id).Pluck("id", &ids).Error; err != nil {
		return err
	}
	for _, articleID := range ids {
		if err := s.articles.Delete(ctx, actor, articleID); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return dbErr("category", gorm.ErrRecordNotFound)
		}
		return nil
	})
}
