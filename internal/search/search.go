// Package search indexes published articles for full text search.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
	"github.com/youzarsiph/the-certain-news/internal/sanitize"
)

// Document is the indexed form of an article.
type Document struct {
	ID        string `json:"id"`
	ArticleID int    `json:"article_id"`
	Title     string `json:"title"`
	Headline  string `json:"headline"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	Locale    string `json:"locale"`
	CreatedAt int64  `json:"created_at"`
}

// NewDocument flattens an article into a search document.
func NewDocument(a *models.Article) Document {
	return Document{
		ID:        strconv.Itoa(a.ID),
		ArticleID: a.ID,
		Title:     a.Title,
		Headline:  a.Headline,
		Content:   sanitize.Text(a.Content),
		Category:  a.Category.Title,
		Locale:    a.Locale,
		CreatedAt: a.CreatedAt.Unix(),
	}
}

// Index stores documents and returns the ids of matching articles ordered by
// relevance.
type Index interface {
	Add(ctx context.Context, docs ...Document) error
	Search(ctx context.Context, query, locale string, limit int) ([]int, error)
}

// MeiliIndex is an Index backed by a Meilisearch index.
type MeiliIndex struct {
	index meilisearch.IndexManager
	log   *zap.Logger
}

func NewMeiliIndex(host, apiKey, name string, log *zap.Logger) *MeiliIndex {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	return &MeiliIndex{index: client.Index(name), log: log.Named("search")}
}

// EnsureSettings makes locale filterable.
func (m *MeiliIndex) EnsureSettings(ctx context.Context) error {
	attrs := []interface{}{"locale"}
	if _, err := m.index.UpdateFilterableAttributesWithContext(ctx, &attrs); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}
	return nil
}

func (m *MeiliIndex) Add(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	primaryKey := "id"
	task, err := m.index.AddDocumentsWithContext(ctx, docs, &meilisearch.DocumentOptions{PrimaryKey: &primaryKey})
	if err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	m.log.Debug("documents queued", zap.Int("count", len(docs)), zap.Int64("task", task.TaskUID))
	return nil
}

func (m *MeiliIndex) Search(ctx context.Context, query, locale string, limit int) ([]int, error) {
	req := &meilisearch.SearchRequest{
		Query: query,
		Limit: int64(limit),
	}
	if locale != "" {
		req.Filter = fmt.Sprintf("locale = %q", locale)
	}

	result, err := m.index.SearchWithContext(ctx, query, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]int, 0, len(result.Hits))
	for _, hit := range result.Hits {
		raw, ok := hit["article_id"]
		if !ok {
			continue
		}
		var id int
		if err := json.Unmarshal(raw, &id); err != nil {
			m.log.Warn("Skipping hit with a bad article id", zap.ByteString("article_id", raw))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Hook indexes articles as they are published.
type Hook struct {
	Index Index
}

func (h Hook) Name() string { return "search" }

func (h Hook) ArticlePublished(ctx context.Context, article *models.Article) error {
	if h.Index == nil {
		return errors.New("search index not configured")
	}
	return h.Index.Add(ctx, NewDocument(article))
}
