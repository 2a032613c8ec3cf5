package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/service"
)

// RedisQueue is the durable per-team dispatch queue backed by Redis lists,
// one list per team. Submit pushes to the head; workers pop from the tail so
// jobs run in submission order.
type RedisQueue struct {
	client *redis.Client
	prefix string
}

// NewRedisQueue creates the queue.
func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	return &RedisQueue{client: client, prefix: prefix}
}

// Submit enqueues a dispatch job on the team's list.
func (q *RedisQueue) Submit(ctx context.Context, job service.DispatchJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal dispatch job: %w", err)
	}
	return q.client.LPush(ctx, q.key(job.TeamType), payload).Err()
}

// Size returns the number of pending jobs for a team.
func (q *RedisQueue) Size(ctx context.Context, teamType domain.TeamType) (int64, error) {
	return q.client.LLen(ctx, q.key(teamType)).Result()
}

func (q *RedisQueue) key(teamType domain.TeamType) string {
	return q.prefix + ":" + strings.ToLower(string(teamType))
}
