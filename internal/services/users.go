package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/metrics"
	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
)

// Profile is the public view of a user with social counters.
type Profile struct {
	models.PublicUser
	Country     string    `json:"country"`
	DateJoined  time.Time `json:"date_joined"`
	Articles    int64     `json:"articles"`
	Followers   int64     `json:"followers"`
	Following   int64     `json:"following"`
	IsFollowing bool      `json:"is_following"`
}

type UserService struct {
	db       *gorm.DB
	pager    pager
	articles *ArticleService
}

// Register creates a user with a bcrypt hashed password.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("username or email %w", ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, dbErr("user", err)
	}
	return &user, nil
}

// Authenticate checks a username or email and password pair.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, dbErr("user", err)
	}
	return &user, nil
}

// Profile returns the public profile of a user as seen by viewer.
func (s *UserService) Profile(ctx context.Context, viewer Actor, id int) (*Profile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := &Profile{PublicUser: user.Public(), Country: user.Country, DateJoined: user.CreatedAt}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Article{}).Where("owner_id = ? AND live = ?", id, true).Count(&p.Articles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follow{}).Where("following_id = ?", id).Count(&p.Followers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", id).Count(&p.Following).Error; err != nil {
		return nil, err
	}
	if viewer.ID != 0 && viewer.ID != id {
		var n int64
		if err := db.Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", viewer.ID, id).Count(&n).Error; err != nil {
			return nil, err
		}
		p.IsFollowing = n > 0
	}
	return p, nil
}

func publicUsers(users []models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

func byUsername(db *gorm.DB) *gorm.DB {
	return db.Order("username")
}

// List returns users, optionally filtered by a username or name fragment.
func (s *UserService) List(ctx context.Context, term, rawPage string) ([]models.PublicUser, pagination.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)", like, like, like)
	}
	var users []models.User
	page, err := s.pager.paginate(q, rawPage, &users, byUsername)
	return publicUsers(users), page, err
}

// Update changes the fields set in req. Users may only update themselves
// unless they are staff.
func (s *UserService) Update(ctx context.Context, actor Actor, id int, req models.UpdateUserRequest) (*models.User, error) {
	if !actor.CanEdit(id) {
		return nil, forbidden("you can only update your own profile")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", req.FirstName)
	set("last_name", req.LastName)
	set("bio", req.Bio)
	set("photo", req.Photo)
	set("phone", req.Phone)
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Country != nil {
		updates["country"] = strings.ToUpper(*req.Country)
	}
	if req.SMSAlerts != nil {
		updates["sms_alerts"] = *req.SMSAlerts
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, dbErr("user", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a user with everything they own.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int) error {
	if !actor.CanEdit(id) {
		return forbidden("you can only delete your own account")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var owned []int
	if err := s.db.WithContext(ctx).Model(&models.Article{}).Where("owner_id = ?", id).Pluck("id", &owned).Error; err != nil {
		return err
	}
	for _, articleID := range owned {
		if err := s.articles.Delete(ctx, Actor{ID: id, IsStaff: true}, articleID); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"saved_articles", "article_stars"} {
			if err := tx.Exec("DELETE FROM "+table+" WHERE user_id = ?", id).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.LinkView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).
			Where("parent_comment_id IN (?)", tx.Model(&models.Comment{}).Select("id").Where("owner_id = ?", id)).
			Update("parent_comment_id", nil).Error; err != nil {
			return err
		}
		for _, m := range []any{&models.Comment{}, &models.Reaction{}} {
			if err := tx.Where("owner_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

// ToggleFollow follows target, or unfollows when already following.
func (s *UserService) ToggleFollow(ctx context.Context, actor Actor, targetID int) (string, error) {
	if actor.ID == targetID {
		return "", invalid("You cannot follow yourself.")
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return "", err
	}

	var msg, action string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", actor.ID, targetID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			action = "delete"
			msg = fmt.Sprintf("You are no longer following %s.", target.Username)
			return nil
		}
		action = "create"
		msg = fmt.Sprintf("You are following %s.", target.Username)
		return tx.Create(&models.Follow{FollowerID: actor.ID, FollowingID: targetID}).Error
	})
	if err != nil {
		return "", dbErr("follow", err)
	}
	metrics.InteractionsTotal.WithLabelValues("follow", action).Inc()
	return msg, nil
}

// Followers lists the users following id.
func (s *UserService) Followers(ctx context.Context, id int, rawPage string) ([]models.PublicUser, pagination.Page, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, pagination.Page{}, err
	}
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)",
		s.db.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", id))
	var users []models.User
	page, err := s.pager.paginate(q, rawPage, &users, byUsername)
	return publicUsers(users), page, err
}

// Following lists the users id follows.
func (s *UserService) Following(ctx context.Context, id int, rawPage string) ([]models.PublicUser, pagination.Page, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, pagination.Page{}, err
	}
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)",
		s.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", id))
	var users []models.User
	page, err := s.pager.paginate(q, rawPage, &users, byUsername)
	return publicUsers(users), page, err
}

// Relations lists the follow relations the actor takes part in.
func (s *UserService) Relations(ctx context.Context, actor Actor, rawPage string) ([]models.Follow, pagination.Page, error) {
	q := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? OR following_id = ?", actor.ID, actor.ID)
	follows := []models.Follow{}
	page, err := s.pager.paginate(q, rawPage, &follows, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	})
	return follows, page, err
}
