package objectstore_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Ishwarya142/plantiq/internal/objectstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestObjectName(t *testing.T) {
	id := uuid.MustParse("6f1c2a4e-9b1d-4c59-8a55-2c3f0d7e6b11")

	name, err := objectstore.ObjectName(id, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "plants/6f1c2a4e-9b1d-4c59-8a55-2c3f0d7e6b11/"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	name, err = objectstore.ObjectName(id, " IMAGE/JPEG ")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".jpg"))
}

func TestObjectName_Unsupported(t *testing.T) {
	_, err := objectstore.ObjectName(uuid.New(), "application/pdf")
	assert.ErrorIs(t, err, objectstore.ErrUnsupportedImage)
}

func TestPublicURL(t *testing.T) {
	got := objectstore.PublicURL("plantiq-images", "plants/abc/def.jpg")
	assert.Equal(t, "https://storage.googleapis.com/plantiq-images/plants/abc/def.jpg", got)
}

func TestMemoryStore_PutImage(t *testing.T) {
	s := objectstore.NewMemoryStore()
	data := []byte{0x89, 'P', 'N', 'G'}

	url, err := s.PutImage(context.Background(), uuid.New(), "image/png", bytes.NewReader(data))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "memory://plants/"))

	got, ok := s.Object(strings.TrimPrefix(url, "memory://"))
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestMemoryStore_TooLarge(t *testing.T) {
	s := objectstore.NewMemoryStore()
	big := bytes.NewReader(make([]byte, objectstore.MaxImageBytes+1))

	_, err := s.PutImage(context.Background(), uuid.New(), "image/jpeg", big)
	assert.ErrorIs(t, err, objectstore.ErrTooLarge)
}

func TestMemoryStore_RejectsUnsupportedType(t *testing.T) {
	s := objectstore.NewMemoryStore()
	_, err := s.PutImage(context.Background(), uuid.New(), "text/plain", strings.NewReader("hi"))
	assert.ErrorIs(t, err, objectstore.ErrUnsupportedImage)
}

func TestNewGCSStore_WithoutAuthentication(t *testing.T) {
	s, err := objectstore.NewGCSStore(context.Background(), "plantiq-test",
		option.WithoutAuthentication(),
		option.WithEndpoint("http://127.0.0.1:1/storage/v1/"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}

// fakeGCS records the object uploads it receives.
type fakeGCS struct {
	mu      sync.Mutex
	uploads []string
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.uploads = append(f.uploads, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	if !bytes.Contains(body, []byte("leafdata")) {
		http.Error(w, "unexpected upload", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"bucket":"plantiq-test","name":"plants/x.png","contentType":"image/png","size":"8"}`))
}

func (f *fakeGCS) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func newFakeGCSStore(t *testing.T) (*objectstore.GCSStore, *fakeGCS) {
	t.Helper()
	fake := &fakeGCS{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := objectstore.NewGCSStore(context.Background(), "plantiq-test",
		option.WithoutAuthentication(),
		option.WithEndpoint(srv.URL+"/storage/v1/"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, fake
}

func TestGCSStore_PutImage(t *testing.T) {
	s, fake := newFakeGCSStore(t)
	id := uuid.New()

	url, err := s.PutImage(context.Background(), id, "image/png", strings.NewReader("leafdata"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://storage.googleapis.com/plantiq-test/plants/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.Equal(t, 1, fake.count())
}

func TestGCSStore_TooLargeNeverUploads(t *testing.T) {
	s, fake := newFakeGCSStore(t)
	big := bytes.NewReader(make([]byte, objectstore.MaxImageBytes+1))

	_, err := s.PutImage(context.Background(), uuid.New(), "image/jpeg", big)
	assert.ErrorIs(t, err, objectstore.ErrTooLarge)
	assert.Zero(t, fake.count())
}

func TestGCSStore_UnsupportedTypeNeverUploads(t *testing.T) {
	s, fake := newFakeGCSStore(t)

	_, err := s.PutImage(context.Background(), uuid.New(), "text/plain", strings.NewReader("leafdata"))
	assert.ErrorIs(t, err, objectstore.ErrUnsupportedImage)
	assert.Zero(t, fake.count())
}
