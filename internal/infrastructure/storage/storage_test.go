package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mes/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.StorageConfig {
	return config.StorageConfig{
		Enabled:           true,
		Bucket:            "mes-attachments",
		Endpoint:          "localhost:9000",
		AccessKeyID:       "minio",
		SecretAccessKey:   "minio-secret",
		UsePathStyle:      true,
		PresignExpiration: 5 * time.Minute,
	}
}

func TestNewS3Storage_Validation(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.Bucket = ""
	_, err := NewS3Storage(ctx, cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = testConfig()
	cfg.SecretAccessKey = ""
	_, err = NewS3Storage(ctx, cfg)
	assert.ErrorContains(t, err, "credentials are required")

	s, err := NewS3Storage(ctx, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "mes-attachments", s.Bucket())
	assert.Equal(t, 5*time.Minute, s.presignExpiration)
}

func TestS3Storage_Presign(t *testing.T) {
	ctx := context.Background()
	s, err := NewS3Storage(ctx, testConfig())
	require.NoError(t, err)

	key := "HANES/P01/equipment/e1/a1-manual.pdf"
	up, err := s.PresignUpload(ctx, key, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "PUT", up.Method)

	u, err := url.Parse(up.URL)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.True(t, strings.HasPrefix(u.Path, "/mes-attachments/HANES/P01/equipment/"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))

	down, err := s.PresignDownload(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "GET", down.Method)
	assert.Contains(t, down.URL, "X-Amz-Signature=")

	_, err = s.PresignDownload(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "", normalizeEndpoint(""))
	assert.Equal(t, "http://minio:9000", normalizeEndpoint("minio:9000/"))
	assert.Equal(t, "https://s3.example.com", normalizeEndpoint("https://s3.example.com"))
}

func TestNoopStorage(t *testing.T) {
	ctx := context.Background()
	s := NewNoopStorage("")
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	up, err := s.PresignUpload(ctx, "k/a.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/attachments/k/a.pdf?expires=2026-03-01T00%3A15%3A00Z", up.URL)
	assert.Equal(t, fixed.Add(15*time.Minute), up.ExpiresAt)

	assert.ErrorIs(t, s.Delete(ctx, ""), ErrEmptyKey)
	assert.NoError(t, s.Delete(ctx, "k/a.pdf"))
}
