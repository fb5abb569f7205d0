// Package storage uploads export archives to object storage and hands out
// time-limited download links.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrMissingSigner indicates signed URL support is not configured.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")
	// ErrBucketRequired is returned when a driver has no bucket.
	ErrBucketRequired = errors.New("storage: bucket is required")
	// ErrKeyRequired is returned for an empty object key.
	ErrKeyRequired = errors.New("storage: object key is required")
)

// Storage is a bucket-bound object store.
type Storage interface {
	io.Closer

	// Put stores r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, obj Object) error
	// PresignGet returns a signed download URL valid for expiry.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Object carries upload metadata.
type Object struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

func checkKey(key string) error {
	if key == "" {
		return ErrKeyRequired
	}

	return nil
}
