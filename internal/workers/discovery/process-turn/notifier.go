package processturn

import (
	"context"

	"product-discovery/internal/common/aws"
	apperrors "product-discovery/internal/common/errors"
)

// Notifier receives zero-result turns as a merchandising signal.
type Notifier interface {
	NotifyNoResults(ctx context.Context, event NoResultsEvent) error
}

type SNSNotifier struct {
	client   *aws.SNSClient
	topicARN string
}

func NewSNSNotifier(client *aws.SNSClient, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

func (n *SNSNotifier) NotifyNoResults(ctx context.Context, event NoResultsEvent) error {
	attrs := map[string]string{"eventType": "discovery.no_results"}
	if event.Category != "" {
		attrs["category"] = event.Category
	}
	if event.Purpose != "" {
		attrs["purpose"] = event.Purpose
	}

	if _, err := n.client.PublishJSON(ctx, n.topicARN, "No products found", event, attrs); err != nil {
		return apperrors.NewNotificationSendFailedError("sns", err)
	}
	return nil
}
