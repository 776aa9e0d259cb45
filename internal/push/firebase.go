package push

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"remind-push/internal/config"
)

type Service struct {
	client *messaging.Client
}

// NewService initializes the Firebase messaging client from the configured
// credential bundle. An inline service-account JSON takes precedence over a
// credentials file.
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	var opt option.ClientOption
	if creds := cfg.ServiceAccountJSON(); creds != nil {
		opt = option.WithCredentialsJSON(creds)
	} else {
		opt = option.WithCredentialsFile(cfg.FirebaseCredentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %w", err)
	}

	log.Println("✅ Firebase service initialized successfully")

	return &Service{client: client}, nil
}

// Send delivers one notification to a single device token. Failures are
// per-call; callers decide whether to retry.
func (s *Service) Send(ctx context.Context, token, title, body string, data map[string]string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("device token is empty")
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:        "default",
				Priority:     messaging.PriorityHigh,
				ChannelID:    "reminders",
				DefaultSound: true,
			},
		},
	}

	response, err := s.client.Send(ctx, message)
	if err != nil {
		return "", fmt.Errorf("error sending push: %w", err)
	}

	return response, nil
}

// IsInvalidTokenError reports whether the Firebase error means the device
// token is stale and should be refreshed by the client.
func IsInvalidTokenError(err error) bool {
	return messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsSenderIDMismatch(err)
}
