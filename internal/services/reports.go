package services

import (
	"context"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/pagination"
)

// ReportFilter narrows a report list. Zero values mean no filter.
type ReportFilter struct {
	ArticleID int
	Reason    string
	Page      string
}

type ReportService struct {
	db    *gorm.DB
	pager pager
}

// Create files a report against a live article.
func (s *ReportService) Create(ctx context.Context, actor Actor, articleID int, req models.ReportRequest) (*models.Report, error) {
	if !slices.Contains(models.ReportReasons, req.Reason) {
		return nil, invalid("%q is not a valid reason", req.Reason)
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ? AND live = ?", articleID, true).Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, dbErr("article", gorm.ErrRecordNotFound)
	}
	report := models.Report{
		UserID:    actor.ID,
		ArticleID: articleID,
		Reason:    req.Reason,
		Message:   strings.TrimSpace(req.Message),
	}
	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, dbErr("report", err)
	}
	return &report, nil
}

func (s *ReportService) List(ctx context.Context, actor Actor, f ReportFilter) ([]models.Report, pagination.Page, error) {
	if !actor.IsStaff {
		return nil, pagination.Page{}, forbidden("only staff can review reports")
	}
	q := s.db.WithContext(ctx).Model(&models.Report{})
	if f.ArticleID != 0 {
		q = q.Where("article_id = ?", f.ArticleID)
	}
	if f.Reason != "" {
		q = q.Where("reason = ?", f.Reason)
	}
	reports := []models.Report{}
	page, err := s.pager.paginate(q, f.Page, &reports, func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC").Order("id DESC")
	})
	return reports, page, err
}

func (s *ReportService) Get(ctx context.Context, actor Actor, id int) (*models.Report, error) {
	if !actor.IsStaff {
		return nil, forbidden("only staff can review reports")
	}
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, id).Error; err != nil {
		return nil, dbErr("report", err)
	}
	return &report, nil
}

func (s *ReportService) Delete(ctx context.Context, actor Actor, id int) error {
	if !actor.IsStaff {
		return forbidden("only staff can review reports")
	}
	res := s.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dbErr("report", gorm.ErrRecordNotFound)
	}
	return nil
}
