package models

import "time"

type Tag struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;unique;not null" json:"name"`
	Slug        string    `gorm:"size:100;unique;not null" json:"slug"`
	Color       string    `gorm:"size:7" json:"color"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TagRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	Description string `json:"description"`
}
