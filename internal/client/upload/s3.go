package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

const presignExpiry = 15 * time.Minute

// S3Uploader uploads to an S3-compatible bucket through a presigned PUT.
type S3Uploader struct {
	cfg     Config
	presign *s3.PresignClient
	http    *http.Client
}

func NewS3Uploader(cfg Config, hc *http.Client) (*S3Uploader, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{cfg: cfg, presign: s3.NewPresignClient(client), http: hc}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := StorageKey(name)
	req, err := presignPutObject(u.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	if err := PutPresigned(ctx, u.http, req.URL, body, size, contentType); err != nil {
		return "", err
	}
	return u.publicURL(key), nil
}

func (u *S3Uploader) publicURL(key string) string {
	if u.cfg.S3PublicURL != "" {
		return strings.TrimSuffix(u.cfg.S3PublicURL, "/") + "/" + key
	}
	if u.cfg.S3Endpoint != "" {
		return strings.TrimSuffix(u.cfg.S3Endpoint, "/") + "/" + u.cfg.S3Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.S3Bucket, u.cfg.S3Region, key)
}

// PutPresigned uploads body to a presigned PUT url.
func PutPresigned(ctx context.Context, hc *http.Client, url string, body io.Reader, size int64, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if size >= 0 {
		req.ContentLength = size
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s; body: %s", ErrUploadFailed, resp.Status, string(b))
	}
	return nil
}
