package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/storage"
)

type memStore struct {
	objects map[string][]byte
	meta    map[string]storage.Object
	expiry  time.Duration
	putErr  error
}

func (m *memStore) Close() error { return nil }

func (m *memStore) Put(_ context.Context, key string, r io.Reader, obj storage.Object) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.meta[key] = obj
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.expiry = expiry
	return "https://files.local/" + key, nil
}

func TestArchive_Upload(t *testing.T) {
	// Arrange
	store := &memStore{objects: map[string][]byte{}, meta: map[string]storage.Object{}}
	a := New(store, 0, instrument.NewNoop())

	// Act
	url, err := a.Upload(context.Background(), "access-logs/a.csv", []byte("id\n1\n"), "text/csv")

	// Assert
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if url != "https://files.local/access-logs/a.csv" || store.expiry != defaultURLTTL {
		t.Fatalf("url=%q expiry=%s", url, store.expiry)
	}
	if string(store.objects["access-logs/a.csv"]) != "id\n1\n" {
		t.Fatalf("stored = %q", store.objects["access-logs/a.csv"])
	}
	if obj := store.meta["access-logs/a.csv"]; obj.Size != 5 || obj.ContentType != "text/csv" {
		t.Fatalf("object = %+v", obj)
	}
}

func TestArchive_Upload_PutError(t *testing.T) {
	store := &memStore{putErr: errors.New("bucket gone")}
	a := New(store, time.Minute, instrument.NewNoop())

	if _, err := a.Upload(context.Background(), "k", nil, "text/csv"); err == nil {
		t.Fatalf("expected error")
	}
}
