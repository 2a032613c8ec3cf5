package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flowpay/helpdesk/internal/config"
	"github.com/flowpay/helpdesk/internal/domain"
	"github.com/flowpay/helpdesk/internal/service"
)

// Worker consumes the per-team dispatch queues and re-attempts assignment for
// queued tickets. One goroutine per team, so a team's jobs never race each
// other or interleave with their own retries.
type Worker struct {
	client       *redis.Client
	queue        *RedisQueue
	distribution *service.DistributionService
	cfg          config.DispatchConfig
	logger       *zap.Logger
	wg           sync.WaitGroup
}

// NewWorker creates the worker set.
func NewWorker(client *redis.Client, queue *RedisQueue, distribution *service.DistributionService, cfg config.DispatchConfig, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		client:       client,
		queue:        queue,
		distribution: distribution,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start launches one consumer goroutine per team. It returns immediately;
// consumers stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for _, teamType := range domain.AllTeamTypes() {
		w.wg.Add(1)
		go func(teamType domain.TeamType) {
			defer w.wg.Done()
			w.run(ctx, teamType)
		}(teamType)
	}
}

// Wait blocks until every consumer has stopped.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, teamType domain.TeamType) {
	key := w.queue.key(teamType)
	w.logger.Info("dispatch worker started", zap.String("team", string(teamType)))

	for {
		if ctx.Err() != nil {
			return
		}

		res, err := w.client.BRPop(ctx, w.cfg.PollTimeout(), key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dispatch queue pop failed", zap.String("team", string(teamType)), zap.Error(err))
			sleep(ctx, w.cfg.RetryDelay())
			continue
		}
		// BRPop returns [key, value].
		if len(res) < 2 {
			continue
		}
		w.process(ctx, teamType, key, res[1])
	}
}

func (w *Worker) process(ctx context.Context, teamType domain.TeamType, key, raw string) {
	var job service.DispatchJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		w.logger.Error("malformed dispatch job dropped", zap.String("team", string(teamType)), zap.Error(err))
		return
	}

	handled, err := w.distribution.RetryAssign(ctx, job.TicketID)
	if err != nil {
		w.logger.Warn("dispatch job failed, retained",
			zap.String("ticket_id", job.TicketID),
			zap.Error(err))
		w.requeue(ctx, key, raw)
		sleep(ctx, w.cfg.RetryDelay())
		return
	}
	if handled {
		w.logger.Debug("dispatch job done", zap.String("ticket_id", job.TicketID))
		return
	}

	// No agent free yet: retain the job and back off before the next attempt.
	w.requeue(ctx, key, raw)
	sleep(ctx, w.cfg.RetryDelay())
}

func (w *Worker) requeue(ctx context.Context, key, raw string) {
	if err := w.client.LPush(ctx, key, raw).Err(); err != nil {
		w.logger.Error("dispatch job requeue failed", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
