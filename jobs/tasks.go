package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskSessionsPurge removes expired session records from postgres.
	TaskSessionsPurge = "sessions:purge"
	// TaskRolesWarmup pre-populates the authorization roles cache.
	TaskRolesWarmup = "authz:roles_warmup"
	// TaskAuditPrune deletes audit records past the retention window.
	TaskAuditPrune = "audit:prune"
)

// SessionsPurgePayload configures a session purge run. An empty payload
// purges everything expired as of now.
type SessionsPurgePayload struct{}

// NewSessionsPurgeTask constructs an Asynq task for session purging.
func NewSessionsPurgeTask() (*asynq.Task, error) {
	data, err := json.Marshal(SessionsPurgePayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPurge, data), nil
}

// RolesWarmupPayload bounds the concurrency of a warmup run.
type RolesWarmupPayload struct {
	Concurrency int `json:"concurrency"`
}

// NewRolesWarmupTask constructs an Asynq task for cache warmup.
func NewRolesWarmupTask(concurrency int) (*asynq.Task, error) {
	data, err := json.Marshal(RolesWarmupPayload{Concurrency: concurrency})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRolesWarmup, data), nil
}

// AuditPrunePayload sets the retention window for a prune run. Zero hours
// means the worker falls back to its configured retention.
type AuditPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAuditPruneTask constructs an Asynq task for audit pruning.
func NewAuditPruneTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}
