package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/sugarnest/bakery-api/internal/common"
)

// Worker handles queued notification tasks.
type Worker struct {
	Email  common.EmailSender
	Logger zerolog.Logger
}

// Register attaches the worker's handlers to an asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskOrderConfirmation, w.HandleOrderConfirmation)
}

// HandleOrderConfirmation sends the order confirmation email.
func (w *Worker) HandleOrderConfirmation(ctx context.Context, task *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Email == "" {
		w.Logger.Warn().Str("orderId", p.OrderID).Msg("order has no email on file, skipping confirmation")
		return nil
	}
	subject := fmt.Sprintf("SugarNest order %s confirmed", p.OrderID)
	body := fmt.Sprintf(
		"<p>Thank you for your order!</p><p>Order <strong>%s</strong> totalling <strong>%d&#8363;</strong> is being prepared.</p>",
		p.OrderID, p.Total,
	)
	if err := w.Email.Send(p.Email, subject, body); err != nil {
		w.Logger.Error().Err(err).Str("orderId", p.OrderID).Msg("send order confirmation")
		return err
	}
	w.Logger.Info().Str("orderId", p.OrderID).Str("to", p.Email).Msg("order confirmation sent")
	return nil
}
