package sms

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snsTypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type AWSSNSProvider struct {
	client   SNSAPI
	senderID string
}

func NewAWSSNSProvider(ctx context.Context, region, senderID string, optFns ...func(*config.LoadOptions) error) (*AWSSNSProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, append([]func(*config.LoadOptions) error{config.WithRegion(region)}, optFns...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewAWSSNSProviderWithClient(sns.NewFromConfig(cfg), senderID), nil
}

func NewAWSSNSProviderWithClient(client SNSAPI, senderID string) *AWSSNSProvider {
	return &AWSSNSProvider{client: client, senderID: senderID}
}

func (a *AWSSNSProvider) Name() string { return "aws_sns" }

func (a *AWSSNSProvider) Send(ctx context.Context, message *Message) (*Receipt, error) {
	if err := message.validate(); err != nil {
		return nil, err
	}

	attributes := map[string]snsTypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String(smsType(message.Type)),
		},
	}
	sender := message.From
	if sender == "" {
		sender = a.senderID
	}
	if sender != "" {
		attributes["AWS.SNS.SMS.SenderID"] = snsTypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(sender),
		}
	}

	resp, err := a.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(message.To),
		Message:           aws.String(message.Body),
		MessageAttributes: attributes,
	})
	if err != nil {
		return &Receipt{Status: "failed", Error: err.Error()}, fmt.Errorf("sns: %w", err)
	}

	return &Receipt{
		MessageID: aws.ToString(resp.MessageId),
		Status:    "sent",
	}, nil
}

func smsType(t MessageType) string {
	if t == MessageTypePromotional {
		return "Promotional"
	}
	return "Transactional"
}
