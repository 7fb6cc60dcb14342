// Package storage checks that the object store declared on a Trustify
// resource is reachable with the credentials the server will use.
package storage

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
)

// DefaultRequestTimeout bounds every preflight request.
const DefaultRequestTimeout = 10 * time.Second

// S3ClientConfig holds configuration for creating an S3 client.
type S3ClientConfig struct {
	// Endpoint is an optional S3-compatible endpoint URL.
	Endpoint string
	// Region is the region the bucket is declared in.
	Region string
	// AccessKeyID and SecretAccessKey are static credentials. The default
	// credential chain is used when both are empty.
	AccessKeyID     string
	SecretAccessKey string
	// CACert is an optional PEM-encoded CA bundle added to the system roots.
	CACert []byte
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
}

// NewS3Client builds an S3 client suitable for HeadBucket calls.
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (manager.HeadBucketAPIClient, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

func buildAWSConfig(ctx context.Context, cfg S3ClientConfig) (aws.Config, error) {
	if cfg.Region == "" {
		return aws.Config{}, operatorerrors.WrapPermanentConfig(fmt.Errorf("region is required for S3 client"))
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	httpClient, err := buildHTTPClient(cfg.CACert)
	if err != nil {
		return aws.Config{}, operatorerrors.WrapPermanentConfig(fmt.Errorf("failed to create HTTP client: %w", err))
	}
	opts = append(opts, config.WithHTTPClient(httpClient))

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		if operatorerrors.IsTransientConnection(err) {
			return aws.Config{}, operatorerrors.WrapTransientConnection(fmt.Errorf("failed to load AWS config: %w", err))
		}
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// buildHTTPClient creates an HTTP client with an optional extra CA bundle.
func buildHTTPClient(caCert []byte) (*http.Client, error) {
	transport := &http.Transport{
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        2,
		IdleConnTimeout:     30 * time.Second,
	}

	certPool, err := x509.SystemCertPool()
	if err != nil || certPool == nil {
		certPool = x509.NewCertPool()
	}
	if len(caCert) > 0 && !certPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate")
	}

	transport.TLSClientConfig = &tls.Config{
		RootCAs:    certPool,
		MinVersion: tls.VersionTLS12,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   DefaultRequestTimeout,
	}, nil
}
