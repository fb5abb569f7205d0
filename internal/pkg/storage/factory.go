package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverS3 selects the AWS S3 backend.
	DriverS3 = "s3"
	// DriverGCS selects the Google Cloud Storage backend.
	DriverGCS = "gcs"
	// DriverMinIO selects the MinIO backend.
	DriverMinIO = "minio"
)

// ErrUnknownDriver indicates an unsupported storage driver.
var ErrUnknownDriver = errors.New("storage: unknown driver")

// FactoryOptions groups configuration for storage drivers.
type FactoryOptions struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// NewFromDriver constructs a Storage implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverS3:
		return asStorage(NewS3(ctx, opts.S3))
	case DriverGCS:
		return asStorage(NewGCS(ctx, opts.GCS))
	case DriverMinIO:
		return asStorage(NewMinIO(opts.MinIO))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func asStorage[T Storage](s T, err error) (Storage, error) {
	if err != nil {
		return nil, err
	}

	return s, nil
}
