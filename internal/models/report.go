package models

import "time"

// ReportReasons lists the accepted report reasons.
var ReportReasons = []string{"spam", "abuse", "misinformation", "copyright", "other"}

type Report struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;index" json:"user"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ArticleID int       `gorm:"not null;index" json:"article"`
	Article   Article   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Reason    string    `gorm:"size:32;not null;index" json:"reason"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReportRequest struct {
	Reason  string `json:"reason" binding:"required,oneof=spam abuse misinformation copyright other"`
	Message string `json:"message" binding:"max=2000"`
}
