package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pgChannel = "tcn_live"

type envelope struct {
	Group   string          `json:"group"`
	Payload json.RawMessage `json:"payload"`
}

// PostgresBroker uses LISTEN/NOTIFY on a single channel. Publishing goes
// through the application's gorm connection, listening through a dedicated
// lib/pq connection.
type PostgresBroker struct {
	db  *gorm.DB
	dsn string
	log *zap.Logger
}

func NewPostgresBroker(db *gorm.DB, dsn string, log *zap.Logger) *PostgresBroker {
	return &PostgresBroker{db: db, dsn: dsn, log: log.Named("live.postgres")}
}

func (b *PostgresBroker) Name() string { return "postgres" }

// Publish requires payload to be JSON.
func (b *PostgresBroker) Publish(ctx context.Context, group string, payload []byte) error {
	body, err := json.Marshal(envelope{Group: group, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return b.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", pgChannel, string(body)).Error
}

func (b *PostgresBroker) Subscribe(ctx context.Context, fn Handler) error {
	listener := pq.NewListener(b.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			b.log.Warn("Listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	defer listener.Close()

	if err := listener.Listen(pgChannel); err != nil {
		return fmt.Errorf("listen %s: %w", pgChannel, err)
	}
	b.log.Info("Listening for live notifications", zap.String("channel", pgChannel))

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-listener.Notify:
			if !ok {
				return ErrBrokerClosed
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(n.Extra), &env); err != nil {
				b.log.Warn("Dropping malformed notification", zap.Error(err))
				continue
			}
			fn(env.Group, env.Payload)
		case <-time.After(90 * time.Second):
			go func() {
				if err := listener.Ping(); err != nil {
					b.log.Warn("Listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// Close is a no-op, the listener connection lives only as long as Subscribe.
func (b *PostgresBroker) Close() error {
	return nil
}
