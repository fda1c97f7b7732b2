package live

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestPostgresBroker_ListenNotify(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tcn"),
		postgres.WithUsername("tcn"),
		postgres.WithPassword("tcn"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() { _ = pgContainer.Terminate(ctx) }()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	broker := NewPostgresBroker(db, dsn, zap.NewNop())
	assert.Equal(t, "postgres", broker.Name())

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	got := make(chan string, 8)
	go func() {
		_ = broker.Subscribe(subCtx, func(group string, payload []byte) {
			got <- group + " " + string(payload)
		})
	}()

	var msg string
	require.Eventually(t, func() bool {
		require.NoError(t, broker.Publish(ctx, "en-live", []byte(`{"title":"x"}`)))
		select {
		case msg = <-got:
			return true
		default:
			return false
		}
	}, 10*time.Second, 200*time.Millisecond)

	assert.Equal(t, `en-live {"title":"x"}`, msg)
}
