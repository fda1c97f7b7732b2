package models

import (
	"fmt"
	"time"
)

// Category is a page under Home whose children are articles.
type Category struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	ParentID     *int      `gorm:"index" json:"parent_id,omitempty"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Slug         string    `gorm:"size:255;not null;uniqueIndex:idx_category_slug_locale" json:"slug"`
	Locale       string    `gorm:"size:16;not null;default:en;uniqueIndex:idx_category_slug_locale" json:"locale"`
	Description  string    `gorm:"type:text" json:"description"`
	DisplayOwner bool      `gorm:"default:false" json:"display_owner"`
	Live         bool      `gorm:"index" json:"live"`
	Position     int       `gorm:"default:0" json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c Category) URL() string {
	return fmt.Sprintf("/categories/%d/%s/", c.ID, c.Slug)
}

type CategoryRequest struct {
	ParentID     *int   `json:"parent_id"`
	Title        string `json:"title" binding:"required,max=255"`
	Slug         string `json:"slug" binding:"omitempty,max=255"`
	Locale       string `json:"locale" binding:"omitempty,max=16"`
	Description  string `json:"description"`
	DisplayOwner bool   `json:"display_owner"`
	Live         *bool  `json:"live"`
	Position     int    `json:"position"`
}
