package relay

import (
	"encoding/json"
	"fmt"
)

// Kind classifies an inbound webhook event.
type Kind string

const (
	// KindCommentCreated is emitted by the remote service when a review
	// comment lands on an asset.
	KindCommentCreated Kind = "comment.created"
	// KindReviewUpdated is emitted when an asset's review status changes.
	KindReviewUpdated Kind = "review.updated"
	// KindUnrecognized covers every payload the relay does not act on.
	KindUnrecognized Kind = "unrecognized"
)

// InboundEvent is the raw webhook envelope: a type discriminator plus an
// opaque resource whose shape depends on the type.
type InboundEvent struct {
	Type     string          `json:"type"`
	Resource json.RawMessage `json:"resource"`
}

// CommentCreated is the resource payload for comment.created events.
type CommentCreated struct {
	AssetID string `json:"asset_id"`
	Text    string `json:"text"`
	UserID  string `json:"user_id"`
}

// ReviewUpdated is the resource payload for review.updated events.
type ReviewUpdated struct {
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
	UserID  string `json:"user_id"`
}

// Notification is the relay's classification result: who to tell and what to
// say.
type Notification struct {
	RecipientID string
	Message     string
}

// Classify inspects the envelope and, for a recognized event with a complete
// resource, produces the notification to schedule. The boolean reports
// whether a notification was produced; the Kind is always meaningful and
// feeds the metrics recorder.
func Classify(event InboundEvent) (Notification, Kind, bool) {
	switch Kind(event.Type) {
	case KindCommentCreated:
		var resource CommentCreated
		if err := json.Unmarshal(event.Resource, &resource); err != nil {
			return Notification{}, KindUnrecognized, false
		}
		if resource.AssetID == "" || resource.Text == "" || resource.UserID == "" {
			return Notification{}, KindUnrecognized, false
		}
		return Notification{
			RecipientID: resource.UserID,
			Message:     fmt.Sprintf("New comment on asset %s: %s", resource.AssetID, resource.Text),
		}, KindCommentCreated, true
	case KindReviewUpdated:
		var resource ReviewUpdated
		if err := json.Unmarshal(event.Resource, &resource); err != nil {
			return Notification{}, KindUnrecognized, false
		}
		if resource.AssetID == "" || resource.Status == "" || resource.UserID == "" {
			return Notification{}, KindUnrecognized, false
		}
		return Notification{
			RecipientID: resource.UserID,
			Message:     fmt.Sprintf("Review status updated for asset %s: %s", resource.AssetID, resource.Status),
		}, KindReviewUpdated, true
	default:
		return Notification{}, KindUnrecognized, false
	}
}
