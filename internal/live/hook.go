package live

import (
	"context"
	"encoding/json"

	"github.com/dustin/go-humanize"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

// Breaking is the message pushed to live clients.
type Breaking struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// Hook broadcasts breaking articles to the live group of their locale when
// they are published.
type Hook struct {
	Server *Server
}

func (h Hook) Name() string { return "live" }

func (h Hook) ArticlePublished(ctx context.Context, article *models.Article) error {
	if !article.IsBreaking {
		return nil
	}
	payload, err := json.Marshal(Breaking{
		URL:       article.ShortURL(),
		Title:     article.Title,
		CreatedAt: humanize.Time(article.CreatedAt),
	})
	if err != nil {
		return err
	}
	return h.Server.Publish(ctx, GroupName(article.Locale), payload)
}
