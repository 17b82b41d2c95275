package orders

import (
	"context"
	"testing"
	"time"

	"github.com/bellybee/checkout/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "testuser",
		Password:          "testpass",
		DBName:            "testdb",
		MigrationsDirPath: "./migrations",
	}

	repo, err := NewRepository(creds)
	require.NoError(t, err)

	err = repo.RunMigrations(creds)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return repo, cleanup
}

func TestSaveAndGetOrder(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := &domain.Order{
		OrderID:    "BB123456",
		Method:     domain.MethodHostedCheckout,
		PaymentRef: "pay_abc123",
		Total:      413,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	require.NoError(t, repo.SaveOrder(ctx, "user-1", order))

	got, err := repo.GetOrder(ctx, "BB123456")
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, got.OrderID)
	assert.Equal(t, domain.MethodHostedCheckout, got.Method)
	assert.Equal(t, "pay_abc123", got.PaymentRef)
	assert.Equal(t, int64(413), got.Total)
}

func TestSaveOrder_NoReferenceForCOD(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	order := &domain.Order{
		OrderID:   "BB654321",
		Method:    domain.MethodCOD,
		Total:     199,
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, repo.SaveOrder(ctx, "user-2", order))

	got, err := repo.GetOrder(ctx, "BB654321")
	require.NoError(t, err)
	assert.Empty(t, got.PaymentRef)
}

func TestGetOrder_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetOrder(context.Background(), "BB000000")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
