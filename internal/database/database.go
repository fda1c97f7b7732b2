package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/youzarsiph/the-certain-news/internal/config"
	"github.com/youzarsiph/the-certain-news/internal/logger"
	"github.com/youzarsiph/the-certain-news/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Migrate creates or updates the tables of every model.
	Migrate() error

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
}

// New connects to Postgres and configures the connection pool.
func New(cfg config.DBConfig, log *zap.Logger) (Service, error) {
	s, err := Open(postgres.Open(cfg.DSN()), log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.GetDB().DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("database connected", zap.String("host", cfg.Host), zap.String("name", cfg.Name))

	return s, nil
}

// Open opens a gorm connection with any dialector.
func Open(dialector gorm.Dialector, log *zap.Logger) (Service, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Gorm(log, gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &service{db: db, log: log}, nil
}

func (s *service) Migrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	s.log.Info("database migrations completed")
	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health pings the database and reports pool statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.Warn("database health check failed", zap.Error(err))
		return map[string]string{"status": "down", "error": err.Error()}
	}

	st := sqlDB.Stats()
	health := map[string]string{
		"status":           "up",
		"open_connections": strconv.Itoa(st.OpenConnections),
		"in_use":           strconv.Itoa(st.InUse),
		"idle":             strconv.Itoa(st.Idle),
		"wait_count":       strconv.FormatInt(st.WaitCount, 10),
		"wait_duration":    st.WaitDuration.String(),
	}
	if st.MaxOpenConnections > 0 && st.InUse >= st.MaxOpenConnections && st.WaitCount > 0 {
		health["message"] = "connection pool exhausted"
	}
	return health
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	s.log.Info("disconnected from database")
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err comes from a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// sqlite, used by the test suite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
