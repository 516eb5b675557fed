package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/Dosada05/tournament-calendar/config"
	"github.com/google/uuid"
)

var (
	ErrUploadFailed      = errors.New("asset upload failed")
	ErrDeleteUnsupported = errors.New("asset deletion is not supported by this backend")
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// NewObjectKey builds a unique key for a poster image, keeping the file extension.
func NewObjectKey(fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("tournaments/%s%s", uuid.NewString(), ext)
}

// NewFromConfig picks the upload backend named in cfg.Backend.
func NewFromConfig(cfg config.UploadConfig, httpClient *http.Client) (FileUploader, error) {
	switch cfg.Backend {
	case config.UploadBackendCloudinary:
		return NewCloudinaryUploader(CloudinaryUploaderConfig{
			CloudName:    cfg.CloudinaryCloudName,
			UploadPreset: cfg.CloudinaryUploadPreset,
			HTTPClient:   httpClient,
		})
	case config.UploadBackendR2:
		return NewCloudflareR2Uploader(CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
			HTTPClient:      httpClient,
		})
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}
