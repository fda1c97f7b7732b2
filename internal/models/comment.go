package models

import "time"

type Comment struct {
	ID              int       `gorm:"primaryKey" json:"id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	OwnerID         int       `gorm:"not null;index" json:"owner"`
	Owner           User      `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	ArticleID       int       `gorm:"not null;index" json:"article"`
	Article         Article   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ParentCommentID *int      `gorm:"index" json:"parent_comment_id,omitempty"`
	ReplyCount      int64     `gorm:"-" json:"reply_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}
