package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/schoolerp/backend/internal/domain/printing"
	"github.com/schoolerp/backend/internal/domain/shared"
	"github.com/schoolerp/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC) }

func chalanRequest() *printing.StoreRequest {
	return &printing.StoreRequest{
		Kind:        printing.KindChalan,
		ID:          "c1",
		Format:      printing.FormatPDF,
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	}
}

func TestNewS3DocumentStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.S3Config{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.S3Config{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3DocumentStorage(&config.S3Config{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("defaults presign expiration", func(t *testing.T) {
		s, err := NewS3DocumentStorage(&config.S3Config{Bucket: "documents", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000"})
		require.NoError(t, err)
		assert.Equal(t, "documents", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("options override defaults", func(t *testing.T) {
		s, err := NewS3DocumentStorage(
			&config.S3Config{Bucket: "documents", AccessKey: "k", SecretKey: "s"},
			WithLogger(zaptest.NewLogger(t)),
			WithPresignExpiration(time.Hour),
		)
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestS3DocumentStorage_URLIsPresigned(t *testing.T) {
	s, err := NewS3DocumentStorage(&config.S3Config{
		Bucket:       "documents",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	u, err := s.URL(context.Background(), "chalan/2024/03/c1.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:9000/documents/chalan/2024/03/c1.pdf?"), u)
	assert.Contains(t, u, "X-Amz-Signature=")

	_, err = s.URL(context.Background(), "")
	assert.Error(t, err)
}

func TestS3DocumentStorage_StoreValidatesBeforeUpload(t *testing.T) {
	s, err := NewS3DocumentStorage(&config.S3Config{Bucket: "documents", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)

	req := chalanRequest()
	req.ID = "../escape"
	_, err = s.Store(context.Background(), req)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	assert.Error(t, s.Delete(context.Background(), ""))
	_, err = s.Get(context.Background(), "")
	assert.Error(t, err)
}

// Run against MinIO/RustFS with S3_ENDPOINT set, e.g. http://localhost:9000.
func TestIntegration_S3StoreAndGet(t *testing.T) {
	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_ENDPOINT not set")
	}

	s, err := NewS3DocumentStorage(&config.S3Config{
		Bucket:       "school-documents-test",
		AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		SecretKey:    os.Getenv("S3_SECRET_KEY"),
		Endpoint:     endpoint,
		UsePathStyle: true,
	}, WithClock(fixedNow))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx))

	stored, err := s.Store(ctx, chalanRequest())
	require.NoError(t, err)
	assert.Equal(t, "chalan/2024/03/c1.pdf", stored.Key)

	rc, err := s.Get(ctx, stored.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Delete(ctx, stored.Key))
}

func TestMemoryStorage(t *testing.T) {
	s := NewMemoryStorage(fixedNow)
	ctx := context.Background()

	stored, err := s.Store(ctx, chalanRequest())
	require.NoError(t, err)
	assert.Equal(t, "chalan/2024/03/c1.pdf", stored.Key)
	assert.Equal(t, "memory://documents/chalan/2024/03/c1.pdf", stored.URL)
	assert.Equal(t, []string{"chalan/2024/03/c1.pdf"}, s.Keys())

	u, err := s.URL(ctx, stored.Key)
	require.NoError(t, err)
	assert.Equal(t, stored.URL, u)

	rc, err := s.Get(ctx, stored.Key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, s.Delete(ctx, stored.Key))
	_, err = s.Get(ctx, stored.Key)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = s.Store(ctx, &printing.StoreRequest{Kind: printing.KindChalan, ID: "c2", Format: printing.FormatPDF})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
