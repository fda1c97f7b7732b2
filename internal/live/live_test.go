package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/models"
)

func startServer(t *testing.T, opts ...func(*Server)) (*Server, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := NewServer(NewHub(zap.NewNop()), NewMemoryBroker(), zap.NewNop(), []string{"*"})
	for _, opt := range opts {
		opt(srv)
	}
	go func() { _ = srv.Run(ctx) }()

	langs := middleware.NewLanguages([]string{"en", "ar"}, "en")
	router := gin.New()
	router.GET("/ws/:lang/live", func(c *gin.Context) {
		if c.Query("staff") == "1" {
			c.Set(middleware.IsStaffKey, true)
		}
		c.Next()
	}, srv.Handle(langs))

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	return dialFrom(t, ts, path, "")
}

func dialFrom(t *testing.T, ts *httptest.Server, path, origin string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

const readyMessage = `"ready"`

// ready blocks until conn is registered with the hub. Extra copies of the
// ready message may still be queued on conn.
func ready(t *testing.T, srv *Server, conn *websocket.Conn, lang string) {
	t.Helper()
	data := publishUntilReceived(t, func() {
		_ = srv.Publish(context.Background(), GroupName(lang), []byte(readyMessage))
	}, conn)
	require.Equal(t, readyMessage, string(data))
}

// readRelayed collects messages other than the ready message until conn stays
// quiet for wait. The connection is unusable afterwards.
func readRelayed(conn *websocket.Conn, wait time.Duration) []string {
	var got []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return got
		}
		if string(data) != readyMessage {
			got = append(got, string(data))
		}
	}
}

// publishUntilReceived republishes until conn sees a message, registration
// with the hub being asynchronous.
func publishUntilReceived(t *testing.T, publish func(), conn *websocket.Conn) []byte {
	t.Helper()
	received := make(chan []byte, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- data
		}
	}()

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		publish()
		select {
		case data := <-received:
			return data
		case <-ticker.C:
		case <-deadline:
			t.Fatal("no message received")
			return nil
		}
	}
}

func TestHook_BroadcastsBreakingArticles(t *testing.T) {
	srv, ts := startServer(t)
	conn := dial(t, ts, "/ws/ar/live")

	article := &models.Article{
		ID:         4,
		Slug:       "quake",
		Title:      "Earthquake",
		Locale:     "ar",
		IsBreaking: true,
		Link:       &models.Link{Slug: "abc123"},
		CreatedAt:  time.Now().Add(-2 * time.Hour),
	}
	hook := Hook{Server: srv}
	assert.Equal(t, "live", hook.Name())

	data := publishUntilReceived(t, func() {
		require.NoError(t, hook.ArticlePublished(context.Background(), article))
	}, conn)

	var got Breaking
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "/l/abc123/", got.URL)
	assert.Equal(t, "Earthquake", got.Title)
	assert.Equal(t, "2 hours ago", got.CreatedAt)
}

func TestHook_IgnoresRegularArticles(t *testing.T) {
	hook := Hook{}
	// a nil server would panic if the hook tried to publish
	assert.NoError(t, hook.ArticlePublished(context.Background(), &models.Article{Locale: "en"}))
}

func TestServer_GroupsAreIsolated(t *testing.T) {
	srv, ts := startServer(t)
	en := dial(t, ts, "/ws/en/live")
	ar := dial(t, ts, "/ws/ar/live")

	data := publishUntilReceived(t, func() {
		require.NoError(t, srv.Publish(context.Background(), GroupName("en"), []byte(`{"title":"en"}`)))
	}, en)
	assert.JSONEq(t, `{"title":"en"}`, string(data))

	_ = ar.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := ar.ReadMessage()
	assert.Error(t, err)
}

func TestServer_RelaysOnlyStaffMessages(t *testing.T) {
	_, ts := startServer(t)
	listener := dial(t, ts, "/ws/en/live")
	reader := dial(t, ts, "/ws/en/live")
	editor := dial(t, ts, "/ws/en/live?staff=1")

	require.NoError(t, reader.WriteJSON(map[string]any{"article": map[string]string{"title": "fake"}}))

	data := publishUntilReceived(t, func() {
		_ = editor.WriteJSON(map[string]any{"article": map[string]string{"title": "real"}})
	}, listener)
	assert.JSONEq(t, `{"title":"real"}`, string(data))
}

func TestServer_RejectsUnsupportedLanguage(t *testing.T) {
	_, ts := startServer(t)

	resp, err := http.Get(ts.URL + "/ws/fr/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMemoryBroker_DeliversToSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	go func() {
		_ = b.Subscribe(ctx, func(group string, payload []byte) {
			got <- group + ":" + string(payload)
		})
	}()

	require.Eventually(t, func() bool {
		require.NoError(t, b.Publish(ctx, "en-live", []byte("x")))
		select {
		case v := <-got:
			return v == "en-live:x"
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(ctx, "en-live", nil), ErrBrokerClosed)
}

func TestGroupName(t *testing.T) {
	assert.Equal(t, "ar-live", GroupName("ar"))
}

func TestServer_RelayIsRateLimited(t *testing.T) {
	srv, ts := startServer(t, func(s *Server) {
		s.relayEvery = time.Hour
		s.relayBurst = 3
	})
	listener := dial(t, ts, "/ws/en/live")
	ready(t, srv, listener, "en")

	editor := dial(t, ts, "/ws/en/live?staff=1")
	for i := range 5 {
		require.NoError(t, editor.WriteJSON(map[string]any{"article": map[string]int{"n": i}}))
	}

	got := readRelayed(listener, 500*time.Millisecond)
	assert.Equal(t, []string{`{"n":0}`, `{"n":1}`, `{"n":2}`}, got)
}

func TestServer_CrossSiteStaffCannotRelay(t *testing.T) {
	srv, ts := startServer(t)
	listener := dial(t, ts, "/ws/en/live")
	ready(t, srv, listener, "en")

	// the wildcard still lets a foreign page listen
	foreign := dialFrom(t, ts, "/ws/en/live?staff=1", "https://evil.example")
	require.NoError(t, foreign.WriteJSON(map[string]any{"article": map[string]string{"title": "forged"}}))

	site := dialFrom(t, ts, "/ws/en/live?staff=1", ts.URL)
	require.NoError(t, site.WriteJSON(map[string]any{"article": map[string]string{"title": "real"}}))

	got := readRelayed(listener, 500*time.Millisecond)
	assert.Equal(t, []string{`{"title":"real"}`}, got)
}

func TestServer_ListedOriginsOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := NewServer(NewHub(zap.NewNop()), NewMemoryBroker(), zap.NewNop(), []string{"https://news.example"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example/ws/en/live", nil)
	assert.True(t, srv.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://news.example")
	assert.True(t, srv.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://api.example")
	assert.True(t, srv.upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, srv.upgrader.CheckOrigin(req))
}

func TestHub_DropsSlowClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	slow := &Client{send: make(chan []byte, 1), group: "en-live"}
	fast := &Client{send: make(chan []byte, 8), group: "en-live"}
	require.True(t, hub.Register(slow))
	require.True(t, hub.Register(fast))

	hub.Broadcast("en-live", []byte("one"))
	hub.Broadcast("en-live", []byte("two"))
	// a send to the closed channel of a client still registered would panic
	hub.Broadcast("en-live", []byte("three"))

	for _, want := range []string{"one", "two", "three"} {
		select {
		case got := <-fast.send:
			assert.Equal(t, want, string(got))
		case <-time.After(2 * time.Second):
			t.Fatalf("fast client missed %q", want)
		}
	}

	assert.Equal(t, "one", string(<-slow.send))
	select {
	case _, ok := <-slow.send:
		assert.False(t, ok, "slow client should have been closed")
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}

	// unregistering a dropped client is a no-op
	hub.Unregister(slow)
	hub.Broadcast("en-live", []byte("four"))
	assert.Equal(t, "four", string(<-fast.send))
}
