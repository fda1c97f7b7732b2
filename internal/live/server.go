package live

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/youzarsiph/the-certain-news/internal/metrics"
	"github.com/youzarsiph/the-certain-news/internal/middleware"
)

// Server upgrades live feed connections and publishes broadcasts.
type Server struct {
	hub      *Hub
	broker   Broker
	log      *zap.Logger
	upgrader websocket.Upgrader
	origins  []string

	relayEvery time.Duration
	relayBurst int
}

func NewServer(hub *Hub, broker Broker, log *zap.Logger, allowedOrigins []string) *Server {
	s := &Server{
		hub:        hub,
		broker:     broker,
		log:        log.Named("live"),
		origins:    allowedOrigins,
		relayEvery: 2 * time.Second,
		relayBurst: 3,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return slices.Contains(allowedOrigins, "*") || s.trusted(r)
		},
	}
	return s
}

// trusted reports whether r comes from this site or an explicitly listed
// origin. A wildcard lets any origin listen, never relay.
func (s *Server) trusted(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.origins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Run drives the hub and the broker subscription until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run(ctx)
	return s.broker.Subscribe(ctx, s.hub.Broadcast)
}

// Publish sends payload to every client of group on every instance.
func (s *Server) Publish(ctx context.Context, group string, payload []byte) error {
	if err := s.broker.Publish(ctx, group, payload); err != nil {
		metrics.LiveBroadcastsTotal.WithLabelValues(s.broker.Name(), "error").Inc()
		return err
	}
	metrics.LiveBroadcastsTotal.WithLabelValues(s.broker.Name(), "ok").Inc()
	return nil
}

// Handle serves GET /ws/:lang/live. It expects the language and optional
// auth middleware to have run.
func (s *Server) Handle(langs *middleware.Languages) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.Param("lang")
		if !langs.Supported(lang) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unsupported language"})
			return
		}

		conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// the upgrader has already written the error response
			s.log.Debug("Websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			conn:    conn,
			send:    make(chan []byte, sendBuffer),
			group:   GroupName(lang),
			staff:   middleware.IsStaff(c) && s.trusted(c.Request),
			limiter: rate.NewLimiter(rate.Every(s.relayEvery), s.relayBurst),
			relay:   s.Publish,
			log:     s.log,
		}
		if !s.hub.Register(client) {
			conn.Close()
			return
		}

		go client.writePump()
		// the request context ends with the handler, relays outlive it
		go client.readPump(context.WithoutCancel(c.Request.Context()), s.hub.Unregister)
	}
}
