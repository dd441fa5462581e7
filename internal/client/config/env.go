package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SPOTLIGHT_"

type lookupFunc func(string) (string, bool)

// readEnv merges the process environment over the variables of envFile.
// A missing file is not an error.
func readEnv(envFile string, lookup lookupFunc) (lookupFunc, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}, nil
}

// parseEnv overlays cfg with SPOTLIGHT_* variables.
func parseEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("API_URL", &cfg.APIBaseURL)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	str("DB_PATH", &cfg.DatabasePath)
	num("PAGE_LIMIT", &cfg.PageLimit)
	dur("SEARCH_DEBOUNCE", &cfg.SearchDebounce)
	if v, ok := lookup(envPrefix + "RATE_LIMIT"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_LIMIT: %w", envPrefix, err))
		} else {
			cfg.RateLimit = f
		}
	}
	num("RATE_BURST", &cfg.RateBurst)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)

	str("UPLOAD_PROVIDER", &cfg.Upload.Provider)
	str("S3_BUCKET", &cfg.Upload.S3Bucket)
	str("S3_REGION", &cfg.Upload.S3Region)
	str("S3_ENDPOINT", &cfg.Upload.S3Endpoint)
	str("S3_ACCESS_KEY", &cfg.Upload.S3AccessKey)
	str("S3_SECRET_KEY", &cfg.Upload.S3SecretKey)
	str("S3_PUBLIC_URL", &cfg.Upload.S3PublicURL)
	str("CLOUDINARY_CLOUD_NAME", &cfg.Upload.CloudinaryCloudName)
	str("CLOUDINARY_UPLOAD_PRESET", &cfg.Upload.CloudinaryUploadPreset)

	return errors.Join(errs...)
}
