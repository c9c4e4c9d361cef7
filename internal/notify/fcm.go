package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMClient delivers pushes through Firebase Cloud Messaging.
type FCMClient struct {
	client *messaging.Client
}

func NewFCMClient(ctx context.Context, credentialsFile string) (*FCMClient, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}
	return &FCMClient{client: client}, nil
}

// SendMulticast delivers the payload to every token and classifies each
// response. Unregistered tokens are flagged permanently invalid so the
// dispatcher can prune them.
func (c *FCMClient) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]SendResult, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	batch, err := c.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("multicast send failed: %w", err)
	}

	results := make([]SendResult, len(batch.Responses))
	for i, resp := range batch.Responses {
		results[i] = SendResult{Token: tokens[i]}
		if resp.Error != nil {
			results[i].Err = resp.Error
			results[i].PermanentlyInvalid = messaging.IsRegistrationTokenNotRegistered(resp.Error)
		}
	}
	return results, nil
}
