package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"fqt-booking-api/core/constants"
	"fqt-booking-api/core/logger"
	"fqt-booking-api/modules/outbox/entity"
	"fqt-booking-api/modules/outbox/service"

	"github.com/hibiken/asynq"
)

// Client enqueues failed effects for background retry with asynq's
// exponential backoff.
type Client struct {
	inner *asynq.Client
}

func NewClient(inner *asynq.Client) *Client {
	return &Client{inner: inner}
}

func (c *Client) EnqueueRetry(effect *entity.Effect) error {
	payload, err := json.Marshal(effect)
	if err != nil {
		return fmt.Errorf("marshal effect payload: %w", err)
	}

	task := asynq.NewTask(constants.EffectTaskTypeName, payload)
	info, err := c.inner.Enqueue(task,
		asynq.Queue(constants.EffectRetryQueue),
		asynq.MaxRetry(constants.EffectMaxRetry),
	)
	if err != nil {
		return err
	}

	logger.Info("EffectTasks:EnqueueRetry",
		"task_id", info.ID, "effect_id", effect.ID, "booking_id", effect.BookingID)
	return nil
}

// NewHandler returns the asynq handler that re-executes a failed effect.
// Returning an error lets asynq schedule the next backoff attempt until
// MaxRetry is exhausted.
func NewHandler(orch *service.Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var effect entity.Effect
		if err := json.Unmarshal(t.Payload(), &effect); err != nil {
			logger.Error("EffectTasks:Handler:Unmarshal", "error", err)
			return fmt.Errorf("decode effect payload: %w: %v", asynq.SkipRetry, err)
		}

		// Attempt 1 was the inline dispatch; retries start at 2.
		attempt := 2
		if n, ok := asynq.GetRetryCount(ctx); ok {
			attempt = n + 2
		}

		return orch.Execute(ctx, &effect, attempt)
	}
}
