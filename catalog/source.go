package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source yields the raw catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	String() string
}

// FileSource reads the catalog from local disk.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	return os.ReadFile(s.Path)
}

func (s FileSource) String() string { return "file:" + s.Path }

// R2Source reads the catalog from a Cloudflare R2 bucket through its S3 API.
type R2Source struct {
	Client *s3.Client
	Bucket string
	Key    string
}

// R2Credentials are the account details for the R2 S3 endpoint.
type R2Credentials struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
}

// NewR2Source builds an S3 client pointed at the account's R2 endpoint.
func NewR2Source(ctx context.Context, creds R2Credentials, bucket, key string) (*R2Source, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", creds.AccountID)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID, creds.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return &R2Source{Client: client, Bucket: bucket, Key: key}, nil
}

func (s *R2Source) Fetch(ctx context.Context) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read from R2: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *R2Source) String() string { return fmt.Sprintf("r2://%s/%s", s.Bucket, s.Key) }
