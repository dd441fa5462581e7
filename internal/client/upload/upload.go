// Package upload stores avatar images with an external host and returns the
// public URL to save on the profile.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrUploadFailed = errors.New("upload failed")

// Uploader stores body under a generated name and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64, contentType string) (string, error)
}

// Config selects and configures an Uploader.
type Config struct {
	// Provider is "s3", "cloudinary" or empty (uploads disabled).
	Provider string `json:"provider"`

	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3PublicURL string `json:"s3_public_url"`

	CloudinaryCloudName    string `json:"cloudinary_cloud_name"`
	CloudinaryUploadPreset string `json:"cloudinary_upload_preset"`
}

// New returns the Uploader selected by cfg.Provider, or (nil, nil) when
// uploads are disabled.
func New(cfg Config, hc *http.Client) (Uploader, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, nil
	case "s3":
		return NewS3Uploader(cfg, hc)
	case "cloudinary":
		return NewCloudinaryUploader(cfg, hc)
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Provider)
	}
}

// StorageKey returns a fresh object key for an avatar, keeping the
// extension of name.
func StorageKey(name string) string {
	d := time.Now()
	return fmt.Sprintf("avatars/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), strings.ToLower(path.Ext(name)))
}
