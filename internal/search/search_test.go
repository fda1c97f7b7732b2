package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/models"
)

type recordingIndex struct {
	docs []Document
}

func (r *recordingIndex) Add(_ context.Context, docs ...Document) error {
	r.docs = append(r.docs, docs...)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, string, int) ([]int, error) {
	return nil, nil
}

func TestNewDocument(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := NewDocument(&models.Article{
		ID:        7,
		Title:     "Flood warning",
		Headline:  "Rivers rise",
		Content:   "<p>Rivers <b>rise</b> in the north</p>",
		Locale:    "en",
		Category:  models.Category{Title: "World"},
		CreatedAt: created,
	})

	assert.Equal(t, "7", doc.ID)
	assert.Equal(t, 7, doc.ArticleID)
	assert.Equal(t, "Rivers rise in the north", doc.Content)
	assert.Equal(t, "World", doc.Category)
	assert.Equal(t, created.Unix(), doc.CreatedAt)
}

func TestHook(t *testing.T) {
	idx := &recordingIndex{}
	hook := Hook{Index: idx}
	assert.Equal(t, "search", hook.Name())

	require.NoError(t, hook.ArticlePublished(context.Background(), &models.Article{ID: 3, Title: "x"}))
	require.Len(t, idx.docs, 1)
	assert.Equal(t, 3, idx.docs[0].ArticleID)

	assert.Error(t, Hook{}.ArticlePublished(context.Background(), &models.Article{}))
}

type fakeMeili struct {
	t *testing.T

	mu       sync.Mutex
	filter   string
	query    string
	auth     string
	docs     []Document
	settings []string
}

func (f *fakeMeili) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /indexes/articles/search", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Q      string `json:"q"`
			Filter string `json:"filter"`
		}
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.auth = r.Header.Get("Authorization")
		f.query, f.filter = body.Q, body.Filter
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":[{"id":"7","article_id":7},{"id":"x","article_id":"oops"},{"id":"3","article_id":3}],"query":"flood","processingTimeMs":1,"limit":20}`))
	})
	mux.HandleFunc("POST /indexes/articles/documents", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "id", r.URL.Query().Get("primaryKey"))
		var docs []Document
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&docs))
		f.mu.Lock()
		f.docs = docs
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"taskUid":5,"indexUid":"articles","status":"enqueued","type":"documentAdditionOrUpdate"}`))
	})
	mux.HandleFunc("PUT /indexes/articles/settings/filterable-attributes", func(w http.ResponseWriter, r *http.Request) {
		var attrs []string
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&attrs))
		f.mu.Lock()
		f.settings = attrs
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"taskUid":6,"indexUid":"articles","status":"enqueued","type":"settingsUpdate"}`))
	})
	return mux
}

func newFakeIndex(t *testing.T) (*fakeMeili, *MeiliIndex) {
	t.Helper()
	fake := &fakeMeili{t: t}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return fake, NewMeiliIndex(srv.URL, "master-key", "articles", zap.NewNop())
}

func TestMeiliIndexSearch(t *testing.T) {
	fake, idx := newFakeIndex(t)

	ids, err := idx.Search(context.Background(), "flood", "ar", 20)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3}, ids)

	fake.mu.Lock()
	assert.Equal(t, "flood", fake.query)
	assert.Equal(t, `locale = "ar"`, fake.filter)
	assert.Equal(t, "Bearer master-key", fake.auth)
	fake.mu.Unlock()

	_, err = idx.Search(context.Background(), "flood", "", 20)
	require.NoError(t, err)
	fake.mu.Lock()
	assert.Empty(t, fake.filter)
	fake.mu.Unlock()
}

func TestMeiliIndexAddAndSettings(t *testing.T) {
	fake, idx := newFakeIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx))
	fake.mu.Lock()
	assert.Nil(t, fake.docs)
	fake.mu.Unlock()

	require.NoError(t, idx.Add(ctx, NewDocument(&models.Article{ID: 7, Title: "Flood warning", Locale: "en"})))
	require.NoError(t, idx.EnsureSettings(ctx))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.docs, 1)
	assert.Equal(t, "7", fake.docs[0].ID)
	assert.Equal(t, 7, fake.docs[0].ArticleID)
	assert.Equal(t, "en", fake.docs[0].Locale)
	assert.Equal(t, []string{"locale"}, fake.settings)
}

func TestMeiliIndexHonoursContext(t *testing.T) {
	_, idx := newFakeIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Search(ctx, "flood", "en", 20)
	assert.Error(t, err)
	assert.Error(t, idx.Add(ctx, Document{ID: "1", ArticleID: 1}))
}
