package handlers

import "context"

// NotificationSender is the push capability the HTTP boundary consumes.
type NotificationSender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) (string, error)
}
