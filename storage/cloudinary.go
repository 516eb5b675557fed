package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"sync"
	"time"
)

const defaultCloudinaryEndpoint = "https://api.cloudinary.com"

type CloudinaryUploaderConfig struct {
	CloudName    string
	UploadPreset string

	// Endpoint overrides https://api.cloudinary.com (tests).
	Endpoint   string
	HTTPClient *http.Client
}

// cloudinaryUploader делает unsigned upload через upload preset.
type cloudinaryUploader struct {
	client    *http.Client
	uploadURL string
	preset    string

	mu   sync.RWMutex
	urls map[string]string
}

type cloudinaryResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	ETag      string `json:"etag"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewCloudinaryUploader(cfg CloudinaryUploaderConfig) (FileUploader, error) {
	if cfg.CloudName == "" || cfg.UploadPreset == "" {
		return nil, errors.New("invalid Cloudinary configuration: cloud name and upload preset are required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultCloudinaryEndpoint
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &cloudinaryUploader{
		client:    client,
		uploadURL: fmt.Sprintf("%s/v1_1/%s/image/upload", endpoint, cfg.CloudName),
		preset:    cfg.UploadPreset,
		urls:      make(map[string]string),
	}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, path.Base(key)))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, reader); err != nil {
		return nil, fmt.Errorf("%w: read file: %w", ErrUploadFailed, err)
	}
	if err := mw.WriteField("upload_preset", u.preset); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: status %d, undecodable body: %w", ErrUploadFailed, resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, msg)
	}
	if out.SecureURL == "" {
		return nil, fmt.Errorf("%w: response has no secure_url", ErrUploadFailed)
	}

	resultKey := out.PublicID
	if resultKey == "" {
		resultKey = key
	}
	u.mu.Lock()
	u.urls[resultKey] = out.SecureURL
	u.mu.Unlock()

	return &UploadResult{
		Key:      resultKey,
		Location: out.SecureURL,
		ETag:     out.ETag,
	}, nil
}

// Delete is not available for unsigned uploads; it needs the API secret.
func (u *cloudinaryUploader) Delete(ctx context.Context, key string) error {
	return ErrDeleteUnsupported
}

func (u *cloudinaryUploader) GetPublicURL(key string) string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.urls[key]
}
