package models

import (
	"fmt"
	"time"
)

// Article is a news page living under a Category.
type Article struct {
	ID               int        `gorm:"primaryKey" json:"id"`
	CategoryID       int        `gorm:"not null;index" json:"category"`
	Category         Category   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	OwnerID          int        `gorm:"not null;index" json:"owner"`
	Owner            User       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Title            string     `gorm:"size:255;not null" json:"title"`
	Slug             string     `gorm:"size:255;not null;index" json:"slug"`
	Headline         string     `gorm:"size:256;not null;index" json:"headline"`
	Content          string     `gorm:"type:text" json:"content"`
	Image            string     `json:"image"`
	IsBreaking       bool       `gorm:"default:false;index" json:"is_breaking"`
	Live             bool       `gorm:"default:false;index" json:"live"`
	Locale           string     `gorm:"size:16;not null;default:en;index;uniqueIndex:idx_article_translation" json:"locale"`
	TranslationKey   string     `gorm:"size:36;not null;uniqueIndex:idx_article_translation" json:"translation_key"`
	FirstPublishedAt *time.Time `json:"first_published_at,omitempty"`

	Tags            []Tag     `gorm:"many2many:article_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Recommendations []Article `gorm:"many2many:article_recommendations;joinForeignKey:ArticleID;joinReferences:RecommendedID;constraint:OnDelete:CASCADE" json:"-"`
	Link            *Link     `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// URL is the canonical front end path of the article.
func (a Article) URL() string {
	return fmt.Sprintf("/articles/%d/%s/", a.ID, a.Slug)
}

// ShortURL is the short link path, falling back to the canonical path.
func (a Article) ShortURL() string {
	if a.Link != nil && a.Link.Slug != "" {
		return a.Link.URL()
	}
	return a.URL()
}

type CreateArticleRequest struct {
	CategoryID int      `json:"category" binding:"required,min=1"`
	Title      string   `json:"title" binding:"required,max=255"`
	Slug       string   `json:"slug" binding:"omitempty,max=255"`
	Headline   string   `json:"headline" binding:"required,max=256"`
	Content    string   `json:"content"`
	Image      string   `json:"image" binding:"omitempty,url"`
	IsBreaking bool     `json:"is_breaking"`
	Tags       []string `json:"tags"`
}

type UpdateArticleRequest struct {
	CategoryID *int     `json:"category" binding:"omitempty,min=1"`
	Title      *string  `json:"title" binding:"omitempty,max=255"`
	Headline   *string  `json:"headline" binding:"omitempty,max=256"`
	Content    *string  `json:"content"`
	Image      *string  `json:"image" binding:"omitempty,url"`
	IsBreaking *bool    `json:"is_breaking"`
	Tags       []string `json:"tags"`
}

// ArticleResponse is the article representation returned by the API.
type ArticleResponse struct {
	Article
	URL           string      `json:"url"`
	ShortURL      string      `json:"short_url"`
	OwnerInfo     *PublicUser `json:"owner_info,omitempty"`
	CommentCount  int64       `json:"comment_count"`
	ReactionCount int64       `json:"reaction_count"`
	StarCount     int64       `json:"star_count"`
	ViewCount     int         `json:"view_count"`
}
