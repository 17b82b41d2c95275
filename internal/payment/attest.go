package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deep-link payments finish out of band: the client asks the user whether the
// external app completed and posts the answer here. The orchestrator's
// Confirmer polls for that answer during its bounded wait.

const (
	attestTTL  = 5 * time.Minute
	pollEvery  = 500 * time.Millisecond
	pollWindow = 30 * time.Second
)

// RecordConfirmation stores the user's answer for the in-flight attempt.
func RecordConfirmation(ctx context.Context, client *redis.Client, userID string, confirmed bool) error {
	value := "no"
	if confirmed {
		value = "yes"
	}
	if err := client.Set(ctx, confirmKey(userID), value, attestTTL).Err(); err != nil {
		return fmt.Errorf("failed to record confirmation: %w", err)
	}
	return nil
}

// RedisConfirmer implements Confirmer by polling for a recorded answer.
// An answer that never arrives counts as "no".
type RedisConfirmer struct {
	client *redis.Client
	userID string
	every  time.Duration
	window time.Duration
}

func NewRedisConfirmer(client *redis.Client, userID string) *RedisConfirmer {
	return &RedisConfirmer{
		client: client,
		userID: userID,
		every:  pollEvery,
		window: pollWindow,
	}
}

func (c *RedisConfirmer) ConfirmPayment(ctx context.Context) (bool, error) {
	deadline := time.NewTimer(c.window)
	defer deadline.Stop()
	tick := time.NewTicker(c.every)
	defer tick.Stop()

	for {
		answer, err := c.client.GetDel(ctx, confirmKey(c.userID)).Result()
		if err == nil {
			return answer == "yes", nil
		}
		if !errors.Is(err, redis.Nil) {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}

		select {
		case <-tick.C:
		case <-deadline.C:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func confirmKey(userID string) string {
	return fmt.Sprintf("upi-confirm:%s", userID)
}
