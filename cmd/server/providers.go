package main

import (
	"context"
	"fmt"

	"razorpay-provider/internal/config"
	"razorpay-provider/pkg/sms"
	"razorpay-provider/pkg/storage"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newObjectStore picks the webhook archive backend. The returned close
// function is never nil.
func newObjectStore(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case "local", "":
		store, err := storage.NewLocalStore(cfg.Local.BasePath)
		return store, noop, err
	case "s3", "aws":
		if cfg.AWS.Bucket == "" {
			return nil, noop, fmt.Errorf("AWS_S3_BUCKET is required for the s3 archive")
		}
		store, err := storage.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.Bucket, awsLoadOptions(cfg.AWS.AWSCredentials)...)
		return store, noop, err
	case "gcs", "gcp":
		if cfg.GCP.Bucket == "" {
			return nil, noop, fmt.Errorf("GCP_STORAGE_BUCKET is required for the gcs archive")
		}
		store, err := storage.NewGCSStore(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig) (sms.Provider, error) {
	switch cfg.Provider {
	case "twilio":
		if cfg.Twilio.AccountSID == "" || cfg.Twilio.AuthToken == "" {
			return nil, fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required")
		}
		from := cfg.Twilio.FromNumber
		if from == "" {
			from = cfg.DefaultFrom
		}
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, from), nil
	case "aws_sns", "sns":
		return sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.DefaultFrom, awsLoadOptions(cfg.AWS.AWSCredentials)...)
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}

// awsLoadOptions pins static keys from config. Without them the default
// credential chain (env, shared config, instance role) applies.
func awsLoadOptions(creds config.AWSCredentials) []func(*awsconfig.LoadOptions) error {
	if !creds.IsStatic() {
		return nil
	}
	return []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")),
	}
}

// setupTracing installs a stdout span exporter when tracing is enabled. The
// returned shutdown function flushes pending spans.
func setupTracing(cfg *config.TracingConfig) (func(context.Context) error, error) {
	if cfg == nil || !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	var opts []stdouttrace.Option
	if cfg.PrettyPrint {
		opts = append(opts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create span exporter: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return provider.Shutdown, nil
}
