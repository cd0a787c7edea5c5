package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMGateway is a Gateway backed by Firebase Cloud Messaging.
type FCMGateway struct {
	client *messaging.Client
}

// NewFCMGateway creates an FCM gateway. credentialsFile may be empty, in
// which case application default credentials are used.
func NewFCMGateway(ctx context.Context, credentialsFile string) (*FCMGateway, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("create messaging client: %w", err)
	}

	return &FCMGateway{client: client}, nil
}

// Send delivers the payload to the given tokens. A single token uses a
// direct send; more than one uses a multicast call so one gateway round
// trip covers the whole batch.
func (g *FCMGateway) Send(ctx context.Context, tokens []string, payload Payload) ([]TokenOutcome, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	if len(tokens) == 1 {
		_, err := g.client.Send(ctx, &messaging.Message{
			Token:        tokens[0],
			Notification: toFCMNotification(payload),
			Data:         payload.Data,
			Android:      androidConfig(),
			APNS:         apnsConfig(),
		})
		return []TokenOutcome{{
			Token:            tokens[0],
			Err:              err,
			PermanentFailure: isPermanentTokenError(err),
		}}, nil
	}

	resp, err := g.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: toFCMNotification(payload),
		Data:         payload.Data,
		Android:      androidConfig(),
		APNS:         apnsConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("send multicast: %w", err)
	}

	outcomes := make([]TokenOutcome, len(tokens))
	for i, r := range resp.Responses {
		outcomes[i] = TokenOutcome{Token: tokens[i]}
		if !r.Success {
			outcomes[i].Err = r.Error
			outcomes[i].PermanentFailure = isPermanentTokenError(r.Error)
		}
	}
	return outcomes, nil
}

// isPermanentTokenError classifies FCM errors that mean the token will
// never work again. Everything else (rate limits, unavailability, internal
// errors) is transient and must not deactivate the registration.
func isPermanentTokenError(err error) bool {
	if err == nil {
		return false
	}
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

func toFCMNotification(p Payload) *messaging.Notification {
	return &messaging.Notification{
		Title: p.Title,
		Body:  p.Body,
	}
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:     "default",
			ChannelID: "high_importance_channel",
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	badge := 1
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound: "default",
				Badge: &badge,
			},
		},
	}
}

// Ensure FCMGateway implements Gateway.
var _ Gateway = (*FCMGateway)(nil)
