package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	operatorerrors "github.com/trustification/trustify-operator/internal/errors"
	"github.com/trustification/trustify-operator/internal/reconcile"
)

// Reasons reported by the preflight.
const (
	ReasonObjectStoreMisconfigured = "ObjectStoreMisconfigured"
	ReasonBucketNotFound           = "BucketNotFound"
	ReasonBucketAccessDenied       = "BucketAccessDenied"
	ReasonBucketRegionMismatch     = "BucketRegionMismatch"
)

// ClientFactory builds the client used by a preflight.
type ClientFactory func(ctx context.Context, cfg S3ClientConfig) (manager.HeadBucketAPIClient, error)

// RegionLocator returns the region a bucket lives in.
type RegionLocator func(ctx context.Context, client manager.HeadBucketAPIClient, bucket string, optFns ...func(*s3.Options)) (string, error)

// Preflight checks that an object-store bucket exists in its declared region
// and accepts the declared credentials.
type Preflight struct {
	newClient ClientFactory
	locate    RegionLocator
}

// NewPreflight returns a Preflight backed by the AWS SDK.
func NewPreflight() *Preflight {
	return &Preflight{newClient: NewS3Client, locate: manager.GetBucketRegion}
}

// NewPreflightWithClient returns a Preflight using the supplied factory and locator.
func NewPreflightWithClient(newClient ClientFactory, locate RegionLocator) *Preflight {
	return &Preflight{newClient: newClient, locate: locate}
}

// Check runs the preflight for an object storage mode. Unreachable buckets are
// transient; a missing bucket, refused credentials or a region mismatch are
// configuration errors.
func (p *Preflight) Check(ctx context.Context, store reconcile.ObjectStorage) error {
	if store.Bucket == "" || store.Region == "" {
		return operatorerrors.WithReason(
			operatorerrors.WrapPermanentConfig(errors.New("storage.s3 requires bucket and region")),
			ReasonObjectStoreMisconfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	client, err := p.newClient(ctx, S3ClientConfig{
		Region:          store.Region,
		AccessKeyID:     store.AccessKey,
		SecretAccessKey: store.SecretKey,
	})
	if err != nil {
		return err
	}

	region, err := p.locate(ctx, client, store.Bucket)
	if err != nil {
		return classify(store.Bucket, err)
	}
	if region != "" && region != store.Region {
		return operatorerrors.WithReason(
			operatorerrors.WrapPermanentConfig(fmt.Errorf("bucket %s is in region %s, not %s", store.Bucket, region, store.Region)),
			ReasonBucketRegionMismatch)
	}

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(store.Bucket)}); err != nil {
		return classify(store.Bucket, err)
	}
	return nil
}

func classify(bucket string, err error) error {
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		switch status.HTTPStatusCode() {
		case http.StatusNotFound:
			return operatorerrors.WithReason(
				operatorerrors.WrapPermanentConfig(fmt.Errorf("bucket %s does not exist: %w", bucket, err)),
				ReasonBucketNotFound)
		case http.StatusForbidden, http.StatusUnauthorized:
			return accessDenied(bucket, err)
		case http.StatusMovedPermanently:
			return operatorerrors.WithReason(
				operatorerrors.WrapPermanentConfig(fmt.Errorf("bucket %s is in another region: %w", bucket, err)),
				ReasonBucketRegionMismatch)
		}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return accessDenied(bucket, err)
		case "NoSuchBucket", "NotFound":
			return operatorerrors.WithReason(
				operatorerrors.WrapPermanentConfig(fmt.Errorf("bucket %s does not exist: %w", bucket, err)),
				ReasonBucketNotFound)
		}
	}

	return operatorerrors.WrapTransientConnection(fmt.Errorf("bucket %s is unreachable: %w", bucket, err))
}

func accessDenied(bucket string, err error) error {
	return operatorerrors.WithReason(
		operatorerrors.WrapPermanentConfig(fmt.Errorf("access to bucket %s denied: %w", bucket, err)),
		ReasonBucketAccessDenied)
}
