// Package favicon fetches site icons and caches them as PNG files named
// after the bookmark id.
package favicon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/nfnt/resize"
)

const maxBodySize = 1 << 20

var (
	ErrNoDomain  = errors.New("url has no domain")
	ErrBadStatus = errors.New("favicon service returned an error")
	ErrBadImage  = errors.New("favicon is not a supported image")
)

// Config configures a Fetcher.
type Config struct {
	Service string // domain is appended, query-escaped
	Size    int    // maximum edge in pixels
	Timeout time.Duration
	Dir     string
}

// Fetcher downloads favicons through an icon service.
type Fetcher struct {
	client  *http.Client
	service string
	size    uint
	dir     string
}

// New creates a Fetcher. A non-positive size disables resizing.
func New(cfg Config) *Fetcher {
	size := uint(0)
	if cfg.Size > 0 {
		size = uint(cfg.Size)
	}
	return &Fetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		service: cfg.Service,
		size:    size,
		dir:     cfg.Dir,
	}
}

// Path returns where the icon for id is cached.
func (f *Fetcher) Path(id uint64) string {
	return filepath.Join(f.dir, strconv.FormatUint(id, 10)+".png")
}

// Fetch downloads the icon for pageURL's domain and stores it for id,
// returning the file path.
func (f *Fetcher) Fetch(ctx context.Context, id uint64, pageURL string) (string, error) {
	domain, err := Domain(pageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.service+url.QueryEscape(domain), nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch favicon for %s: %w", domain, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s for %s", ErrBadStatus, resp.Status, domain)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read favicon for %s: %w", domain, err)
	}

	encoded, err := f.normalize(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", domain, err)
	}

	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", err
	}
	path := f.Path(id)
	if err := atomic.WriteFile(path, bytes.NewReader(encoded)); err != nil {
		return "", err
	}
	return path, nil
}

// Remove deletes the cached icon for id. A missing file is not an error.
func (f *Fetcher) Remove(id uint64) error {
	if err := os.Remove(f.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// normalize decodes data, shrinks it to fit the configured size and
// re-encodes it as PNG.
func (f *Fetcher) normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	if f.size > 0 {
		b := img.Bounds()
		if uint(b.Dx()) > f.size || uint(b.Dy()) > f.size {
			img = resize.Thumbnail(f.size, f.size, img, resize.Lanczos3)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode favicon: %w", err)
	}
	return buf.Bytes(), nil
}

// Domain extracts the host name from a bookmark URL. URLs without a scheme
// are read as https.
func Domain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDomain, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoDomain, raw)
	}
	return host, nil
}
