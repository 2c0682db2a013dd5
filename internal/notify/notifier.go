package notify

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Event types pushed to story owners.
const (
	EventStoryLiked     = "story_liked"
	EventStoryCommented = "story_commented"
)

// Notifier is the push-notification collaborator. Calls are fire-and-forget:
// failures are logged and swallowed, never surfaced to the actor.
type Notifier interface {
	Notify(ctx context.Context, eventType, fromUserID, toUserID string, payload map[string]string)
}

// TokenResolver maps a user id to their registered device tokens.
type TokenResolver func(ctx context.Context, userID string) ([]string, error)

// FCMNotifier implements Notifier over Firebase Cloud Messaging
type FCMNotifier struct {
	client        *messaging.Client
	resolveTokens TokenResolver
	log           *zap.Logger
}

// NewFCMNotifier creates a new FCMNotifier
func NewFCMNotifier(client *messaging.Client, resolveTokens TokenResolver, log *zap.Logger) *FCMNotifier {
	return &FCMNotifier{
		client:        client,
		resolveTokens: resolveTokens,
		log:           log,
	}
}

// Notify pushes a data message to every device registered for toUserID
func (n *FCMNotifier) Notify(ctx context.Context, eventType, fromUserID, toUserID string, payload map[string]string) {
	tokens, err := n.resolveTokens(ctx, toUserID)
	if err != nil {
		n.log.Warn("failed to resolve device tokens",
			zap.String("user_id", toUserID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	data := map[string]string{
		"event_type": eventType,
		"from_user":  fromUserID,
	}
	for k, v := range payload {
		data[k] = v
	}

	for _, token := range tokens {
		msg := &messaging.Message{Token: token, Data: data}
		if _, err := n.client.Send(ctx, msg); err != nil {
			n.log.Warn("failed to send push notification",
				zap.String("event_type", eventType),
				zap.String("user_id", toUserID),
				zap.Error(err))
		}
	}
}

// NopNotifier drops all notifications; used when messaging is not configured
// and in tests.
type NopNotifier struct{}

// Notify does nothing
func (NopNotifier) Notify(ctx context.Context, eventType, fromUserID, toUserID string, payload map[string]string) {
}
