package models

import "time"

type User struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"size:150;unique;not null" json:"username"`
	Email     string `gorm:"size:254;unique;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Bio       string `gorm:"size:256" json:"bio"`
	Photo     string `json:"photo"`
	Country   string `gorm:"size:2" json:"country"`
	Phone     string `gorm:"size:32" json:"-"`
	SMSAlerts bool   `gorm:"default:false" json:"sms_alerts"`
	IsStaff   bool   `gorm:"default:false" json:"is_staff"`

	Saved   []Article `gorm:"many2many:saved_articles;constraint:OnDelete:CASCADE" json:"-"`
	Starred []Article `gorm:"many2many:article_stars;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"date_joined"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PublicUser is the user representation safe to show to other users.
type PublicUser struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Photo     string `json:"photo"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Photo:     u.Photo,
	}
}

// DisplayName prefers the full name over the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Bio       *string `json:"bio" binding:"omitempty,max=256"`
	Photo     *string `json:"photo" binding:"omitempty,url"`
	Country   *string `json:"country" binding:"omitempty,iso3166_1_alpha2"`
	Phone     *string `json:"phone" binding:"omitempty,e164"`
	SMSAlerts *bool   `json:"sms_alerts"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
