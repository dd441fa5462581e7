package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

const cloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryUploader posts images to Cloudinary with an unsigned upload
// preset.
type CloudinaryUploader struct {
	cloud   string
	preset  string
	baseURL string
	http    *http.Client
}

func NewCloudinaryUploader(cfg Config, hc *http.Client) (*CloudinaryUploader, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryUploadPreset == "" {
		return nil, fmt.Errorf("cloudinary cloud name and upload preset are required")
	}
	if hc == nil {
		hc = &http.Client{Timeout: time.Minute}
	}
	return &CloudinaryUploader{
		cloud:   cfg.CloudinaryCloudName,
		preset:  cfg.CloudinaryUploadPreset,
		baseURL: cloudinaryAPI,
		http:    hc,
	}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, name string, body io.Reader, _ int64, _ string) (string, error) {
	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := mw.WriteField("upload_preset", u.preset); err != nil {
				return err
			}
			fw, err := mw.CreateFormFile("file", name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(fw, body); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	url := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloud)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(b, "error.message").String()
		return "", fmt.Errorf("%w: %s: %s", ErrUploadFailed, resp.Status, msg)
	}

	secure := gjson.GetBytes(b, "secure_url")
	if secure.String() == "" {
		return "", fmt.Errorf("%w: response has no secure_url", ErrUploadFailed)
	}
	return secure.String(), nil
}
