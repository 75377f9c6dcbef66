package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/MrSnakeDoc/weddingday/internal/domain"
)

// SNSPublisher is the slice of the SNS client used here; tests substitute it.
type SNSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender delivers to mobile devices registered as SNS platform endpoints.
type SNSSender struct {
	client SNSPublisher
}

func NewSNSSender(client SNSPublisher) *SNSSender {
	return &SNSSender{client: client}
}

// NewSNSClient loads the default AWS credential chain for region.
func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return sns.NewFromConfig(cfg), nil
}

func (s *SNSSender) Name() string { return "sns" }

func (s *SNSSender) Send(ctx context.Context, sub domain.PushSubscription, payload []byte) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(sub.Endpoint),
		Message:   aws.String(string(payload)),
	})
	if err == nil {
		return nil
	}

	var disabled *types.EndpointDisabledException
	var missing *types.NotFoundException
	if errors.As(err, &disabled) || errors.As(err, &missing) {
		return fmt.Errorf("sns endpoint unusable: %w", errors.Join(ErrSubscriptionGone, err))
	}
	return fmt.Errorf("sns publish: %w", err)
}
