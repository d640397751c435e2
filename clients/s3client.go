package clients

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/emzola/biblioteca/config"
)

// S3CoverStore uploads book covers to an S3 bucket.
type S3CoverStore struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3CoverStore configures a new AWS S3 object storage client. A custom endpoint
// (MinIO, LocalStack) switches to path-style addressing.
func NewS3CoverStore(ctx context.Context, cfg config.Config) (*S3CoverStore, error) {
	opts := []func(*s3Config.LoadOptions) error{
		s3Config.WithRegion(cfg.S3.Region),
		s3Config.WithHTTPClient(NewHTTPClient(cfg.Tracing.ServiceName, time.Minute)),
	}
	if cfg.S3.AccessKeyID != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")
		opts = append(opts, s3Config.WithCredentialsProvider(creds))
	}
	awsCfg, err := s3Config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	endpoint := strings.TrimSuffix(cfg.S3.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(endpoint)
			o.UsePathStyle = true
		}
	})
	baseURL := "https://" + cfg.S3.Bucket + ".s3." + cfg.S3.Region + ".amazonaws.com"
	if endpoint != "" {
		baseURL = endpoint + "/" + cfg.S3.Bucket
	}
	return &S3CoverStore{
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3.Bucket,
		baseURL:  baseURL,
	}, nil
}

// PutCover uploads body under key and returns its public URL.
func (s *S3CoverStore) PutCover(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}
