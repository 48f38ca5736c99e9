// Package push delivers friend notices to mobile devices through Firebase Cloud Messaging.
package push

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"socialgraph/models"
	"socialgraph/social"
)

const notificationTitle = "Friends"

var (
	ErrNoDevices = errors.New("user has no registered devices")
	ErrAllFailed = errors.New("all push notifications failed")
)

// Sender is the subset of *messaging.Client the notifier uses.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type DeviceTokens interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DeviceToken, error)
}

// Notifier implements social.Notifier. It fails when nothing could be pushed, so the caller
// falls back to the in-app channel.
type Notifier struct {
	sender      Sender
	tokens      DeviceTokens
	colorPrefix string
	logger      *zap.Logger
}

func NewNotifier(sender Sender, tokens DeviceTokens, colorPrefix string, logger *zap.Logger) *Notifier {
	return &Notifier{
		sender:      sender,
		tokens:      tokens,
		colorPrefix: colorPrefix,
		logger:      logger.Named("push"),
	}
}

// NewFCMClient builds a messaging client from a service account key file.
func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}
	return client, nil
}

func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, message string) error {
	tokens, err := n.tokens.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return ErrNoDevices
	}

	body := social.StripColors(message, n.colorPrefix)

	// one at a time, the batch endpoint is not available for every project
	sent := 0
	for _, token := range tokens {
		if _, err := n.sender.Send(ctx, newMessage(token, body)); err != nil {
			n.logger.Warn("Failed to push notification",
				zap.String("user", userID.String()),
				zap.String("platform", token.Platform),
				zap.Error(err))
			continue
		}
		sent++
	}

	if sent == 0 {
		return ErrAllFailed
	}
	n.logger.Debug("Pushed notification", zap.String("user", userID.String()), zap.Int("devices", sent))
	return nil
}

func newMessage(token models.DeviceToken, body string) *messaging.Message {
	msg := &messaging.Message{
		Token: token.Token,
		Notification: &messaging.Notification{
			Title: notificationTitle,
			Body:  body,
		},
	}

	switch token.Platform {
	case "ios":
		msg.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	default:
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		}
	}
	return msg
}
