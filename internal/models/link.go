package models

import (
	"fmt"
	"time"
)

// Link is the short link of a published article.
type Link struct {
	ID        int        `gorm:"primaryKey" json:"id"`
	ArticleID int        `gorm:"not null;uniqueIndex" json:"article"`
	Slug      string     `gorm:"size:16;not null;uniqueIndex" json:"slug"`
	ViewCount int        `gorm:"not null;default:0;index" json:"view_count"`
	Views     []LinkView `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

func (l Link) URL() string {
	return fmt.Sprintf("/l/%s/", l.Slug)
}

// LinkView records an authenticated viewer of a link.
type LinkView struct {
	LinkID    int       `gorm:"primaryKey;autoIncrement:false"`
	UserID    int       `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}
