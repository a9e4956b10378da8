package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

// SNSAPI is the subset of *sns.Client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes status events to one topic.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
	logger   logger.Logger
}

func NewSNSNotifier(client SNSAPI, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   log.WithFields(map[string]interface{}{"transport": "sns"}),
	}
}

// DialSNS loads the default AWS credential chain for region.
func DialSNS(ctx context.Context, region, topicARN string, log logger.Logger) (*SNSNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSNotifier(sns.NewFromConfig(cfg), topicARN, log), nil
}

func (n *SNSNotifier) Notify(ctx context.Context, event models.StatusChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(event.Type),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(event.Type)},
			"toStatus":  {DataType: aws.String("String"), StringValue: aws.String(string(event.ToStatus))},
		},
	})
	if err != nil {
		return apperrors.NewNotificationFailedError("sns", err)
	}

	n.logger.Debug("status event published", map[string]interface{}{
		"applicationId": event.ApplicationID,
		"messageId":     aws.ToString(out.MessageId),
	})
	return nil
}
