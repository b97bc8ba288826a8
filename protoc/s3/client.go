// Package s3 builds a protoc.Client against AWS S3 or an S3-compatible
// endpoint such as DigitalOcean Spaces.
package s3

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/metrics/smithyotelmetrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/tangramvision/datasetxfer/protoc"
)

var connectionIDNamespace = uuid.MustParse("8676c88d-b3f7-44b2-b645-11c28d6bb4c8")

// Client represents the credentials and endpoint for one S3-compatible
// provider profile (AWS S3, or a DigitalOcean Spaces-compatible endpoint).
type Client struct {
	Endpoint   string `json:"endpoint"`
	BucketName string `json:"bucketName"`
	Region     string `json:"region"`
	AccessKey  string `json:"accessKey"`
	SecretKey  string `json:"secretKey"`
}

// NewClient builds a Client for the given endpoint/bucket/region/credentials.
func NewClient(endpoint, bucketName, region, accessKey, secretKey string) *Client {
	return &Client{
		Endpoint:   endpoint,
		BucketName: bucketName,
		Region:     region,
		AccessKey:  accessKey,
		SecretKey:  secretKey,
	}
}

// GetS3API builds the AWS SDK v2 S3 client used for every wire operation in
// objectstore.Client, instrumented via the OpenTelemetry meter provider.
func (c Client) GetS3API() protoc.S3API {
	options := awss3.Options{
		Region:       c.Region,
		BaseEndpoint: aws.String(c.Endpoint),
		Credentials: aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     c.AccessKey,
				SecretAccessKey: c.SecretKey,
			}, nil
		}),
		MeterProvider: smithyotelmetrics.Adapt(otel.GetMeterProvider()),
	}
	return awss3.New(options)
}

func (c Client) GetCredential() any {
	return c
}

// GetConnectionID returns a deterministic identifier for this credential
// set, used to key per-endpoint connection pools and metric label sets.
func (c Client) GetConnectionID() string {
	return uuid.NewSHA1(
		connectionIDNamespace,
		[]byte(fmt.Sprintf("%s:%s:%s:%s:%s", c.Endpoint, c.BucketName, c.Region, c.AccessKey, c.SecretKey)),
	).String()
}

// URI returns the bucket's host/path form without a URL scheme, e.g.
// "s3.us-west-1.amazonaws.com/tangram-vision-datasets".
func (c Client) URI() string {
	endpoint := c.Endpoint
	for _, scheme := range []string{"https", "http"} {
		endpoint = strings.TrimPrefix(endpoint, scheme+"://")
	}
	return fmt.Sprintf("%s/%s", endpoint, c.BucketName)
}
