package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// ObjectGetter is the subset of the S3 API the fetcher needs.
// The *s3.Client type satisfies this interface.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client used for s3:// URLs.
type S3Options struct {
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// NewS3Client builds an S3 client from static options. Without an access
// key requests are sent anonymously.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	o := s3.Options{
		Region:       region,
		UsePathStyle: opts.UsePathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	if opts.AccessKey != "" {
		creds := aws.Credentials{
			AccessKeyID:     opts.AccessKey,
			SecretAccessKey: opts.SecretKey,
			Source:          "refinery-config",
		}
		o.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	} else {
		o.Credentials = aws.AnonymousCredentials{}
	}
	return s3.New(o)
}

// parseS3URL splits s3://bucket/key into its parts.
func parseS3URL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: malformed s3 url %q", ErrUnsupportedScheme, u.String())
	}
	return bucket, key, nil
}

func (f *Fetcher) getObject(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	if f.s3 == nil {
		return nil, Permanent(fmt.Errorf("%w: s3 is not configured", ErrUnsupportedScheme))
	}
	bucket, key, err := parseS3URL(u)
	if err != nil {
		return nil, Permanent(err)
	}

	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err)
	}
	return out.Body, nil
}

// classifyS3Error maps SDK errors onto the fetch error taxonomy.
func classifyS3Error(err error) error {
	if isS3NotFound(err) {
		return Permanent(&HTTPStatusError{StatusCode: http.StatusNotFound})
	}
	var withStatus interface{ HTTPStatusCode() int }
	if errors.As(err, &withStatus) && withStatus.HTTPStatusCode() >= 400 {
		statusErr := &HTTPStatusError{StatusCode: withStatus.HTTPStatusCode()}
		if statusErr.Retryable() {
			return statusErr
		}
		return Permanent(statusErr)
	}
	return fmt.Errorf("%w: %w", ErrNetwork, err)
}

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	return false
}
