package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Ключи постеров уникальны (uuid), поэтому объект можно кэшировать навсегда.
const posterCacheControl = "public, max-age=31536000, immutable"

type CloudflareR2UploaderConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string

	// Endpoint overrides https://<account>.r2.cloudflarestorage.com (tests, MinIO).
	Endpoint   string
	HTTPClient *http.Client
}

func (c CloudflareR2UploaderConfig) missing() []string {
	var out []string
	for name, v := range map[string]string{
		"account id":        c.AccountID,
		"access key id":     c.AccessKeyID,
		"secret access key": c.SecretAccessKey,
		"bucket name":       c.BucketName,
		"public base url":   c.PublicBaseURL,
	} {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	return out
}

// posterStore keeps tournament posters in an R2 bucket through the S3 API.
type posterStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

func NewCloudflareR2Uploader(cfg CloudflareR2UploaderConfig) (FileUploader, error) {
	if missing := cfg.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("invalid Cloudflare R2 configuration: missing %s", strings.Join(missing, ", "))
	}

	client, err := newR2Client(cfg)
	if err != nil {
		return nil, err
	}
	return &posterStore{
		client:     client,
		bucket:     cfg.BucketName,
		publicBase: cfg.PublicBaseURL,
	}, nil
}

func newR2Client(cfg CloudflareR2UploaderConfig) (*s3.Client, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}

	opts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		// R2 ожидает регион "auto"
		config.WithRegion("auto"),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, config.WithHTTPClient(cfg.HTTPClient))
	}
	sdkCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	return s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *posterStore) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty object key", ErrUploadFailed)
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         reader,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(posterCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: put poster %s to R2: %w", ErrUploadFailed, key, err)
	}

	res := &UploadResult{Key: key, Location: s.GetPublicURL(key)}
	if out.ETag != nil {
		// ETag от S3-совместимых API приходит в двойных кавычках.
		res.ETag = strings.Trim(*out.ETag, `"`)
	}
	return res, nil
}

// Delete removes an orphaned poster after a failed tournament write.
func (s *posterStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete poster %s from R2: %w", key, err)
	}
	return nil
}

func (s *posterStore) GetPublicURL(key string) string {
	return publicURL(s.publicBase, key)
}

func publicURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	joined, err := url.JoinPath(base, strings.TrimPrefix(key, "/"))
	if err != nil {
		return ""
	}
	return joined
}
