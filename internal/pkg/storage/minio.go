package storage

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOAdapter implements Storage using MinIO.
type MinIOAdapter struct {
	bucket string
	client *minio.Client
}

// MinIOOptions configures MinIO client initialization.
type MinIOOptions struct {
	Bucket       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
	UseSSL       bool
	// CreateBucket makes the bucket on startup when it does not exist.
	CreateBucket bool
}

// NewMinIO constructs a MinIO adapter with the provided options.
func NewMinIO(opts MinIOOptions) (*MinIOAdapter, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	m := &MinIOAdapter{bucket: opts.Bucket, client: client}
	if opts.CreateBucket {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := m.ensureBucket(ctx, opts.Region); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *MinIOAdapter) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil || exists {
		return err
	}

	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: region})
}

func (m *MinIOAdapter) Put(ctx context.Context, key string, r io.Reader, obj Object) error {
	if err := checkKey(key); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, m.bucket, key, r, obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: obj.Metadata,
	})

	return err
}

func (m *MinIOAdapter) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}

	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", err
	}

	return u.String(), nil
}

func (m *MinIOAdapter) Close() error { return nil }
