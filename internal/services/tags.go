package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
)

type TagService struct {
	db    *gorm.DB
	pager pager
}

// List returns tags ordered by name, optionally filtered by a name fragment.
func (s *TagService) List(ctx context.Context, term, rawPage string) ([]models.Tag, pagination.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Tag{})
	if term = strings.TrimSpace(term); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	tags := []models.Tag{}
	page, err := s.pager.paginate(q, rawPage, &tags, func(db *gorm.DB) *gorm.DB { return db.Order("name") })
	return tags, page, err
}

// Get looks a tag up by id or slug.
func (s *TagService) Get(ctx context.Context, key string) (*models.Tag, error) {
	var tag models.Tag
	q := s.db.WithContext(ctx)
	if id, err := strconv.Atoi(key); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", key)
	}
	if err := q.First(&tag).Error; err != nil {
		return nil, dbErr("tag", err)
	}
	return &tag, nil
}

func (s *TagService) Create(ctx context.Context, actor Actor, req models.TagRequest) (*models.Tag, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can manage tags")
	}
	tag := models.Tag{
		Name:        strings.TrimSpace(req.Name),
		Slug:        Slugify(req.Name),
		Color:       req.Color,
		Description: req.Description,
	}
	if tag.Slug == "" {
		return nil, invalid("tag name must contain letters or digits")
	}
	if err := s.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, dbErr("tag", err)
	}
	return &tag, nil
}

func (s *TagService) Update(ctx context.Context, actor Actor, id int, req models.TagRequest) (*models.Tag, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can manage tags")
	}
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, dbErr("tag", err)
	}
	tag.Name = strings.TrimSpace(req.Name)
	tag.Slug = Slugify(req.Name)
	tag.Color = req.Color
	tag.Description = req.Description
	if tag.Slug == "" {
		return nil, invalid("tag name must contain letters or digits")
	}
	if err := s.db.WithContext(ctx).Save(&tag).Error; err != nil {
		return nil, dbErr("tag", err)
	}
	return &tag, nil
}

func (s *TagService) Delete(ctx context.Context, actor Actor, id int) error {
	if !actor.IsStaff {
		return forbidden("only staff can manage tags")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM article_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Tag{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return dbErr("tag", gorm.ErrRecordNotFound)
		}
		return nil
	})
}

// ensure returns the tags named in names, creating missing ones.
func (s *TagService) ensure(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true

		var tag models.Tag
		err := tx.Where("slug = ?", slug).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Tag{Name: name, Slug: slug}
			err = tx.Create(&tag).Error
		}
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
