package models

import "time"

// Reactions lists the accepted reaction emojis. The first one is the default.
var Reactions = []string{"👍", "❤️", "😂", "😮", "😢", "😡"}

// Reaction - one per user per article
type Reaction struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	OwnerID   int       `gorm:"not null;uniqueIndex:idx_reaction_owner_article" json:"owner"`
	Owner     User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	ArticleID int       `gorm:"not null;uniqueIndex:idx_reaction_owner_article;index" json:"article"`
	Article   Article   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Emoji     string    `gorm:"size:8;not null" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" form:"emoji" binding:"required,reaction"`
}
