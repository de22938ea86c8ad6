// Package objectstore stores plant photos.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MaxImageBytes bounds a single uploaded photo.
const MaxImageBytes = 10 << 20

var (
	ErrTooLarge         = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageStore persists an image and returns the URL it can be fetched from.
type ImageStore interface {
	PutImage(ctx context.Context, plantID uuid.UUID, contentType string, r io.Reader) (string, error)
}

// ObjectName returns the object path for a plant photo.
func ObjectName(plantID uuid.UUID, contentType string) (string, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}
	return fmt.Sprintf("plants/%s/%s%s", plantID, uuid.NewString(), ext), nil
}

// GCSStore implements ImageStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a store for bucket using application default credentials
// unless opts say otherwise.
func NewGCSStore(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) PutImage(ctx context.Context, plantID uuid.UUID, contentType string, r io.Reader) (string, error) {
	name, err := ObjectName(plantID, contentType)
	if err != nil {
		return "", err
	}

	// storage.Writer commits on Close; size is checked before one is opened.
	var buf bytes.Buffer
	if _, err := copyLimited(&buf, r); err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"

	if _, err := w.Write(buf.Bytes()); err != nil {
		cancel()
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close GCS writer for %s: %w", name, err)
	}
	return PublicURL(s.bucket, name), nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// PublicURL returns the HTTPS URL of an object in bucket.
func PublicURL(bucket, name string) string {
	u := url.URL{Scheme: "https", Host: "storage.googleapis.com", Path: "/" + bucket + "/" + name}
	return u.String()
}

// MemoryStore keeps images in memory. It backs development setups without a
// bucket and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) PutImage(_ context.Context, plantID uuid.UUID, contentType string, r io.Reader) (string, error) {
	name, err := ObjectName(plantID, contentType)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := copyLimited(&buf, r); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.objects[name] = buf.Bytes()
	s.mu.Unlock()
	return "memory://" + name, nil
}

// Object returns a stored object by name.
func (s *MemoryStore) Object(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[name]
	return b, ok
}

func copyLimited(w io.Writer, r io.Reader) (int64, error) {
	n, err := io.Copy(w, io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return n, err
	}
	if n > MaxImageBytes {
		return n, ErrTooLarge
	}
	return n, nil
}

var (
	_ ImageStore = (*GCSStore)(nil)
	_ ImageStore = (*MemoryStore)(nil)
)
