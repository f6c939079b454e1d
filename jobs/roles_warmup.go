package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/gatehouse-io/gatehouse/internal/authz"
	jobmetrics "github.com/gatehouse-io/gatehouse/internal/jobs"
	"github.com/gatehouse-io/gatehouse/internal/users"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RolesWarmupJob pre-populates the roles cache so the first authorization
// check after a restart does not pay a store round-trip per user.
type RolesWarmupJob struct {
	Users   *users.Service
	Cache   *authz.RolesCache
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRolesWarmupJob wires dependencies for the warmup handler.
func NewRolesWarmupJob(usersSvc *users.Service, cache *authz.RolesCache, logger *slog.Logger, metrics *jobmetrics.Metrics) *RolesWarmupJob {
	return &RolesWarmupJob{Users: usersSvc, Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes authz:roles_warmup tasks. The user listing runs under the
// system authorizer since there is no acting principal.
func (j *RolesWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Users == nil || j.Cache == nil {
		return errors.New("roles warmup: handler not configured")
	}
	var payload RolesWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Concurrency <= 0 {
		payload.Concurrency = 4
	}

	tracker := j.metrics().Track(TaskRolesWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	sysCtx := authz.SystemContext(ctx)
	accounts, err := j.Users.ListUsers(sysCtx)
	if err != nil {
		resultErr = err
		j.logger().Error("list users for warmup", slog.Any("error", err))
		return resultErr
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(payload.Concurrency)
	for _, account := range accounts {
		id := account.ID
		g.Go(func() error {
			_, err := j.Cache.Get(gctx, id)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		resultErr = err
		j.logger().Error("warm roles cache", slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("roles cache warmed", slog.Int("users", len(accounts)), slog.Int("cached", j.Cache.Len()))
	return resultErr
}

func (j *RolesWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *RolesWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
