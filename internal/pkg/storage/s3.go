package storage

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Adapter implements Storage using AWS S3 or an S3-compatible endpoint.
type S3Adapter struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
}

// S3Options configures S3 client initialization.
type S3Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	UsePathStyle bool
}

// NewS3 loads the default AWS config, overridden by opts.
func NewS3(ctx context.Context, opts S3Options) (*S3Adapter, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	} else if opts.Endpoint != "" {
		cfgOpts = append(cfgOpts, config.WithRegion("us-east-1"))
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Adapter{bucket: opts.Bucket, client: client, presign: s3.NewPresignClient(client)}, nil
}

func (s *S3Adapter) Put(ctx context.Context, key string, r io.Reader, obj Object) error {
	if err := checkKey(key); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     r,
		Metadata: obj.Metadata,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if obj.Size >= 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	_, err := s.client.PutObject(ctx, input)

	return err
}

func (s *S3Adapter) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", err
	}

	return out.URL, nil
}

func (s *S3Adapter) Close() error { return nil }
