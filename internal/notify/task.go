package notify

import "time"

// Task is an ephemeral, fire-and-forget unit of notification work produced by
// the event relay. Once enqueued it either reaches a sender or is logged and
// dropped; there is no retry and no result tracking.
type Task struct {
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}
