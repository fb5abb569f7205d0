package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
)

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	bucket string
	client *gcs.Client
	signer *GCSSigner
	now    func() time.Time
}

// GCSOptions configures GCS client initialization. Signed URLs need the
// service account id and key.
type GCSOptions struct {
	Bucket         string
	Client         *gcs.Client
	GoogleAccessID string
	PrivateKey     []byte
}

// GCSSigner holds credentials for signed URL generation.
type GCSSigner struct {
	GoogleAccessID string
	PrivateKey     []byte
}

// NewGCS constructs a GCS adapter with optional signing support.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	if opts.Bucket == "" {
		return nil, ErrBucketRequired
	}

	client := opts.Client
	if client == nil {
		created, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		client = created
	}

	var signer *GCSSigner
	if opts.GoogleAccessID != "" && len(opts.PrivateKey) > 0 {
		signer = &GCSSigner{GoogleAccessID: opts.GoogleAccessID, PrivateKey: opts.PrivateKey}
	}

	return &GCSAdapter{bucket: opts.Bucket, client: client, signer: signer, now: time.Now}, nil
}

func (g *GCSAdapter) Put(ctx context.Context, key string, r io.Reader, obj Object) error {
	if err := checkKey(key); err != nil {
		return err
	}

	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = obj.ContentType
	if len(obj.Metadata) > 0 {
		w.Metadata = obj.Metadata
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}

func (g *GCSAdapter) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if g.signer == nil {
		return "", ErrMissingSigner
	}

	return gcs.SignedURL(g.bucket, key, &gcs.SignedURLOptions{
		Method:         http.MethodGet,
		Expires:        g.now().Add(expiry),
		GoogleAccessID: g.signer.GoogleAccessID,
		PrivateKey:     g.signer.PrivateKey,
		Scheme:         gcs.SigningSchemeV4,
	})
}

// Close closes the GCS client.
func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
