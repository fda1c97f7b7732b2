package services

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
	"github.com/youzarsiph/the-certain-news/internal/sanitize"
)

var commentOrderings = []string{"created_at", "updated_at"}

// CommentFilter narrows a comment list. Zero values mean no filter.
type CommentFilter struct {
	ArticleID int
	OwnerID   int
	ParentID  int
	Ordering  string
	Page      string
}

type replyRow struct {
	ParentCommentID int
	N               int64
}

// CommentResponse is a comment with its author.
type CommentResponse struct {
	models.Comment
	OwnerInfo models.PublicUser `json:"owner_info"`
}

type CommentService struct {
	db    *gorm.DB
	pager pager
}

func (s *CommentService) List(ctx context.Context, f CommentFilter) ([]CommentResponse, pagination.Page, error) {
	ordering := f.Ordering
	if ordering == "" {
		ordering = "-created_at"
	}
	field := strings.TrimPrefix(ordering, "-")
	if !slices.Contains(commentOrderings, field) {
		return nil, pagination.Page{}, invalid("unknown ordering %q", ordering)
	}
	dir := "ASC"
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
	}

	q := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("article_id IN (?)", s.db.Model(&models.Article{}).Select("id").Where("live = ?", true))
	if f.ArticleID != 0 {
		q = q.Where("article_id = ?", f.ArticleID)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.ParentID != 0 {
		q = q.Where("parent_comment_id = ?", f.ParentID)
	}

	var comments []models.Comment
	page, err := s.pager.paginate(q, f.Page, &comments, func(db *gorm.DB) *gorm.DB {
		return db.Preload("Owner").Order(field + " " + dir).Order("id " + dir)
	})
	if err != nil {
		return nil, page, err
	}
	resp, err := s.respond(ctx, comments)
	return resp, page, err
}

func (s *CommentService) respond(ctx context.Context, comments []models.Comment) ([]CommentResponse, error) {
	out := make([]CommentResponse, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}
	ids := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	var rows []replyRow
	err := s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("parent_comment_id, COUNT(*) AS n").
		Where("parent_comment_id IN ?", ids).
		Group("parent_comment_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	replies := make(map[int]int64, len(rows))
	for _, r := range rows {
		replies[r.ParentCommentID] = r.N
	}
	for _, c := range comments {
		c.ReplyCount = replies[c.ID]
		out = append(out, CommentResponse{Comment: c, OwnerInfo: c.Owner.Public()})
	}
	return out, nil
}

func (s *CommentService) load(ctx context.Context, id int) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("Owner").First(&c, id).Error; err != nil {
		return nil, dbErr("comment", err)
	}
	return &c, nil
}

func (s *CommentService) Get(ctx context.Context, id int) (*CommentResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.respond(ctx, []models.Comment{*c})
	if err != nil {
		return nil, err
	}
	return &resp[0], nil
}

func cleanComment(content string) (string, error) {
	cleaned := sanitize.RichText(content)
	if sanitize.Text(cleaned) == "" {
		return "", invalid("comment cannot be empty")
	}
	return cleaned, nil
}

func (s *CommentService) create(ctx context.Context, actor Actor, articleID int, parentID *int, content string) (*CommentResponse, error) {
	cleaned, err := cleanComment(content)
	if err != nil {
		return nil, err
	}
	var n int64
	err = s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ? AND live = ?", articleID, true).Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, dbErr("article", gorm.ErrRecordNotFound)
	}

	comment := models.Comment{
		Content:         cleaned,
		OwnerID:         actor.ID,
		ArticleID:       articleID,
		ParentCommentID: parentID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, dbErr("comment", err)
	}
	return s.Get(ctx, comment.ID)
}

// Create comments on a live article.
func (s *CommentService) Create(ctx context.Context, actor Actor, articleID int, content string) (*CommentResponse, error) {
	return s.create(ctx, actor, articleID, nil, content)
}

// Reply comments on the parent's article with the parent as reply target.
func (s *CommentService) Reply(ctx context.Context, actor Actor, parentID int, content string) (*CommentResponse, error) {
	parent, err := s.load(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, actor, parent.ArticleID, &parent.ID, content)
}

// Update changes a comment's content. Owner only.
func (s *CommentService) Update(ctx context.Context, actor Actor, id int, content string) (*CommentResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != actor.ID {
		return nil, forbidden("you can only edit your own comments")
	}
	cleaned, err := cleanComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(c).Update("content", cleaned).Error; err != nil {
		return nil, dbErr("comment", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a comment. Replies stay and lose their reply target.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id int) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanEdit(c.OwnerID) {
		return forbidden("you can only delete your own comments")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Comment{}).Where("parent_comment_id = ?", id).Update("parent_comment_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
}
