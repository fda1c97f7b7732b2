package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/youzarsiph/the-certain-news/internal/config"
	"github.com/youzarsiph/the-certain-news/internal/database"
	"github.com/youzarsiph/the-certain-news/internal/feeds"
	"github.com/youzarsiph/the-certain-news/internal/handlers"
	"github.com/youzarsiph/the-certain-news/internal/live"
	"github.com/youzarsiph/the-certain-news/internal/middleware"
	"github.com/youzarsiph/the-certain-news/internal/notify"
	"github.com/youzarsiph/the-certain-news/internal/search"
	"github.com/youzarsiph/the-certain-news/internal/services"
	"github.com/youzarsiph/the-certain-news/internal/sitemap"
	"github.com/youzarsiph/the-certain-news/internal/translation"
	"github.com/youzarsiph/the-certain-news/internal/ui"
)

type Server struct {
	cfg     *config.Config
	log     *zap.Logger
	db      database.Service
	jwt     *middleware.JWT
	langs   *middleware.Languages
	limiter *middleware.Limiter
	index   *search.MeiliIndex

	svc     *services.Services
	handler *handlers.Handler
	live    *live.Server
	ui      *ui.Handler
	feeds   *feeds.Handler
	sitemap *sitemap.Handler
}

// NewBroker returns the live broker selected by LIVE_BACKEND.
func NewBroker(cfg *config.Config, db *gorm.DB, log *zap.Logger) (live.Broker, error) {
	switch cfg.LiveBackend {
	case "redis":
		return live.NewRedisBroker(cfg.RedisURL, log)
	case "postgres":
		return live.NewPostgresBroker(db, cfg.DB.DSN(), log), nil
	default:
		return live.NewMemoryBroker(), nil
	}
}

// New wires the services, publish hooks and handlers around an open database.
func New(cfg *config.Config, log *zap.Logger, db database.Service, broker live.Broker) (*Server, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		log:     log,
		db:      db,
		jwt:     middleware.NewJWT(cfg.JWTSecret, cfg.TokenTTL),
		langs:   middleware.NewLanguages(cfg.Languages, cfg.DefaultLanguage),
		limiter: middleware.NewLimiter(cfg.WriteRateLimit, cfg.WriteRateBurst),
		live:    live.NewServer(live.NewHub(log), broker, log, cfg.AllowedOrigins),
	}

	opts := services.Options{
		PerPage:       cfg.PageSize,
		Orphans:       cfg.PageOrphans,
		Languages:     cfg.Languages,
		LinkCacheSize: cfg.LinkCacheSize,
		Hooks:         []services.PublishHook{live.Hook{Server: s.live}},
	}
	if cfg.MeiliHost != "" {
		s.index = search.NewMeiliIndex(cfg.MeiliHost, cfg.MeiliAPIKey, cfg.MeiliIndex, log)
		opts.Index = s.index
		opts.Hooks = append(opts.Hooks, search.Hook{Index: s.index})
	}
	if cfg.TranslationEnabled() {
		opts.Translator = translation.NewHuggingFaceTranslator(cfg.HFBaseURL, cfg.HFToken, cfg.HFModel, log)
	}
	if cfg.SMSEnabled() {
		sender := notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
		opts.Hooks = append(opts.Hooks, notify.NewHook(db.GetDB(), sender, cfg.SiteURL, log))
	}

	svc, err := services.New(db.GetDB(), log, opts)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}
	s.svc = svc
	s.handler = handlers.NewHandler(svc, s.jwt, log)
	s.feeds = feeds.NewHandler(svc.Articles, cfg.SiteURL, log)
	s.sitemap = sitemap.NewHandler(db.GetDB(), cfg.SiteURL, cfg.Languages, log)

	s.ui, err = ui.New(svc, s.langs, log)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Run serves HTTP and the live feed until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.index != nil {
		if err := s.index.EnsureSettings(ctx); err != nil {
			s.log.Warn("Search index settings not applied", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  s.cfg.IdleTimeout,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.live.Run(ctx)
	})
	g.Go(func() error {
		s.log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(s.log),
		middleware.Recovery(s.log),
		middleware.Metrics(),
	)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.sitemap.Register(r)

	// Pages, feeds and the live socket
	r.SetHTMLTemplate(s.ui.Template())
	pages := r.Group("", s.langs.Middleware(), s.jwt.Optional())
	{
		s.ui.Register(pages)
		s.feeds.Register(pages.Group("/feeds"))
		pages.GET("/ws/:lang/live", s.live.Handle(s.langs))
	}

	write := middleware.RateLimit(s.limiter)
	h := s.handler

	api := r.Group("/api", s.langs.Middleware(), s.jwt.Optional())
	{
		// Auth routes (public)
		api.POST("/register", write, h.Auth.Register)
		api.POST("/login", write, h.Auth.Login)

		api.GET("/home", h.Articles.GetHome)
		api.GET("/archive/:year", h.Articles.GetArchive)
		api.GET("/archive/:year/:month", h.Articles.GetArchive)
		api.GET("/archive/:year/:month/:day", h.Articles.GetArchive)

		api.GET("/articles", h.Articles.GetArticles)
		api.GET("/articles/popular", h.Articles.GetPopular)
		api.GET("/articles/:id", h.Articles.GetArticle)
		api.GET("/articles/:id/comments", h.Articles.GetComments)
		api.GET("/articles/:id/reactions", h.Articles.GetReactions)
		api.GET("/articles/:id/recommendations", h.Articles.GetRecommendations)
		api.GET("/articles/:id/translations", h.Articles.GetTranslations)

		api.GET("/categories", h.Categories.GetCategories)
		api.GET("/categories/:id", h.Categories.GetCategory)
		api.GET("/categories/:id/children", h.Categories.GetChildren)

		api.GET("/comments", h.Comments.GetComments)
		api.GET("/comments/:id", h.Comments.GetComment)

		api.GET("/tags", h.Tags.GetTags)
		api.GET("/tags/:key", h.Tags.GetTag)

		api.GET("/users", h.Users.GetUsers)
		api.GET("/users/:id", h.Users.GetUserProfile)
		api.GET("/users/:id/followers", h.Users.GetFollowers)
		api.GET("/users/:id/following", h.Users.GetFollowing)

		// Protected routes (authentication required)
		protected := api.Group("", s.jwt.Required())
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.GET("/me/drafts", h.Articles.GetDrafts)
			protected.GET("/me/saved", h.Articles.GetSaved)
			protected.GET("/me/starred", h.Articles.GetStarred)
			protected.GET("/me/following", h.Articles.GetFollowing)
			protected.GET("/followers", h.Users.GetRelations)
			protected.GET("/reactions", h.Reactions.GetReactions)
			protected.GET("/reactions/:id", h.Reactions.GetReaction)

			writes := protected.Group("", write)
			writes.POST("/articles", h.Articles.CreateArticle)
			writes.PUT("/articles/:id", h.Articles.UpdateArticle)
			writes.PATCH("/articles/:id", h.Articles.UpdateArticle)
			writes.DELETE("/articles/:id", h.Articles.DeleteArticle)
			writes.POST("/articles/:id/publish", h.Articles.PublishArticle)
			writes.POST("/articles/:id/unpublish", h.Articles.UnpublishArticle)
			writes.POST("/articles/:id/react", h.Articles.ReactArticle)
			writes.POST("/articles/:id/star", h.Articles.StarArticle)
			writes.POST("/articles/:id/save", h.Articles.SaveArticle)
			writes.POST("/articles/:id/comments", h.Articles.CreateComment)
			writes.POST("/articles/:id/report", h.Articles.ReportArticle)

			writes.POST("/comments/:id/reply", h.Comments.ReplyComment)
			writes.PUT("/comments/:id", h.Comments.UpdateComment)
			writes.DELETE("/comments/:id", h.Comments.DeleteComment)

			writes.PUT("/reactions/:id", h.Reactions.UpdateReaction)
			writes.DELETE("/reactions/:id", h.Reactions.DeleteReaction)

			writes.PUT("/users/:id", h.Users.UpdateUserProfile)
			writes.PATCH("/users/:id", h.Users.UpdateUserProfile)
			writes.DELETE("/users/:id", h.Users.DeleteUser)
			writes.POST("/users/:id/follow", h.Users.FollowUser)

			staff := writes.Group("", middleware.RequireStaff())
			staff.PUT("/articles/:id/recommendations", h.Articles.SetRecommendations)
			staff.POST("/articles/:id/translate", h.Articles.TranslateArticle)

			staff.POST("/categories", h.Categories.CreateCategory)
			staff.PUT("/categories/:id", h.Categories.UpdateCategory)
			staff.DELETE("/categories/:id", h.Categories.DeleteCategory)

			staff.POST("/tags", h.Tags.CreateTag)
			staff.PUT("/tags/:key", h.Tags.UpdateTag)
			staff.DELETE("/tags/:key", h.Tags.DeleteTag)

			staff.GET("/reports", h.Reports.GetReports)
			staff.GET("/reports/:id", h.Reports.GetReport)
			staff.DELETE("/reports/:id", h.Reports.DeleteReport)
		}
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	stats := s.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
