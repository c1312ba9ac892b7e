package catalogue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/multierr"
)

// S3Config holds the object-store connection used for s3:// locations.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Fetch makes the catalogue at location available as a local file. Plain
// paths are returned unchanged. s3://bucket/key and http(s):// locations are
// downloaded to a temporary file that keeps the source extension; the
// returned cleanup removes it.
func Fetch(ctx context.Context, location string, s3cfg S3Config) (string, func() error, error) {
	noop := func() error { return nil }

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // "C:\..." parses with a one-letter scheme
		return location, noop, nil
	}

	var body io.ReadCloser
	switch u.Scheme {
	case "s3":
		body, err = openS3(ctx, u, s3cfg)
	case "http", "https":
		body, err = openHTTP(ctx, location)
	default:
		return "", noop, fmt.Errorf("catalogue location %s: unsupported scheme %q", location, u.Scheme)
	}
	if err != nil {
		return "", noop, err
	}

	local, err := spool(body, path.Ext(u.Path))
	if err != nil {
		return "", noop, fmt.Errorf("download catalogue %s: %w", location, err)
	}
	return local, func() error { return os.Remove(local) }, nil
}

func openS3(ctx context.Context, u *url.URL, cfg S3Config) (io.ReadCloser, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("catalogue location %s: want s3://bucket/key", u)
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	opts := &minio.Options{Secure: cfg.UseSSL, Region: region}
	if cfg.AccessKey != "" || cfg.SecretKey != "" {
		opts.Creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		opts.Creds = credentials.NewEnvAWS()
	}
	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get catalogue %s: %w", u, err)
	}
	// GetObject is lazy; Stat surfaces missing keys and auth failures.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "AccessDenied" {
			return nil, fmt.Errorf("cannot access the catalogue at %s", u)
		}
		return nil, fmt.Errorf("get catalogue %s: %w", u, err)
	}
	return obj, nil
}

func openHTTP(ctx context.Context, location string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("catalogue request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get catalogue %s: %w", location, err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("cannot access the catalogue at %s", location)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("get catalogue %s: unexpected status %s", location, resp.Status)
	}
	return resp.Body, nil
}

// spool copies body into a temp file with the given extension.
func spool(body io.ReadCloser, ext string) (name string, err error) {
	defer func() { err = multierr.Append(err, body.Close()) }()

	f, err := os.CreateTemp("", "catalogue-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		return "", multierr.Combine(err, f.Close(), os.Remove(f.Name()))
	}
	if err := f.Close(); err != nil {
		return "", multierr.Append(err, os.Remove(f.Name()))
	}
	return f.Name(), nil
}
