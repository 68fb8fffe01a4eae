package notify

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type identifiers routed through asynq.
const (
	TaskOrderConfirmation = "email:order_confirmation"
)

// OrderConfirmationPayload carries the data needed to render the order
// confirmation email.
type OrderConfirmationPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Total   int64  `json:"total"`
}

// NewOrderConfirmationTask builds the asynq task for an order confirmation.
func NewOrderConfirmationTask(p OrderConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("notify: marshal payload: %w", err)
	}
	return asynq.NewTask(TaskOrderConfirmation, data, asynq.MaxRetry(5)), nil
}
