package storage

import (
	"context"
	"net/url"
	"time"
)

// NoopStorage stands in when object storage is disabled. It hands out URLs
// under BaseURL and never contacts a backend.
type NoopStorage struct {
	BaseURL    string
	Expiration time.Duration
	now        func() time.Time
}

// NewNoopStorage creates a NoopStorage
func NewNoopStorage(baseURL string) *NoopStorage {
	if baseURL == "" {
		baseURL = "http://localhost/attachments"
	}
	return &NoopStorage{BaseURL: baseURL, Expiration: defaultPresignExpiration, now: time.Now}
}

func (s *NoopStorage) url(method, key string) *PresignedURL {
	exp := s.now().Add(s.Expiration)
	q := url.Values{"expires": {exp.UTC().Format(time.RFC3339)}}
	return &PresignedURL{URL: s.BaseURL + "/" + key + "?" + q.Encode(), Method: method, ExpiresAt: exp}
}

// PresignUpload implements the attachment storage contract
func (s *NoopStorage) PresignUpload(_ context.Context, key, _ string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return s.url("PUT", key), nil
}

// PresignDownload implements the attachment storage contract
func (s *NoopStorage) PresignDownload(_ context.Context, key string) (*PresignedURL, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return s.url("GET", key), nil
}

// Delete implements the attachment storage contract
func (s *NoopStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
