package notify

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TaskClient abstracts the asynq client for tests.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer queues notification tasks. Enqueue failures are logged, not
// surfaced: an order must not fail because its email could not be queued.
type Enqueuer struct {
	Client TaskClient
	Logger zerolog.Logger
}

// OrderConfirmation queues the confirmation email for an order.
func (e *Enqueuer) OrderConfirmation(ctx context.Context, p OrderConfirmationPayload) error {
	if e == nil || e.Client == nil {
		return errors.New("notify: task client not configured")
	}
	task, err := NewOrderConfirmationTask(p)
	if err != nil {
		return err
	}
	info, err := e.Client.EnqueueContext(ctx, task)
	if err != nil {
		e.Logger.Error().Err(err).Str("orderId", p.OrderID).Msg("enqueue order confirmation")
		return err
	}
	e.Logger.Info().Str("taskId", info.ID).Str("orderId", p.OrderID).Msg("order confirmation queued")
	return nil
}
