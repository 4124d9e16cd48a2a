package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rm-hull/emote-overlays/internal/raster"
)

const DefaultMaxBytes = 32 << 20

var ErrNotRemote = errors.New("only http and https URLs are accepted")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AssetLoadError is returned when an image cannot be fetched or decoded.
type AssetLoadError struct {
	URI string
	Err error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("could not load image %s: %v", e.URI, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// AssetLoader reads images from http(s) URLs and, unless it is remote
// only, from the local filesystem.
type AssetLoader struct {
	client     HTTPClient
	maxBytes   int64
	remoteOnly bool
}

// NewAssetLoader reads URLs and local paths. Use it for trusted input such
// as the template configuration.
func NewAssetLoader(maxBytes int64) *AssetLoader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &AssetLoader{
		client:   &http.Client{},
		maxBytes: maxBytes,
	}
}

// NewRemoteLoader only reads http(s) URLs, for addresses supplied by
// API clients.
func NewRemoteLoader(maxBytes int64) *AssetLoader {
	l := NewAssetLoader(maxBytes)
	l.remoteOnly = true
	return l
}

// LoadSurface fetches and decodes uri. An empty uri is an effect-only asset,
// except for a remote only loader.
func (l *AssetLoader) LoadSurface(ctx context.Context, uri string) (*raster.Surface, error) {
	if uri == "" {
		if l.remoteOnly {
			return nil, &AssetLoadError{URI: uri, Err: ErrNotRemote}
		}
		return raster.EffectOnly(), nil
	}
	data, contentType, err := l.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	s, err := raster.Decode(data, contentType)
	if err != nil {
		return nil, &AssetLoadError{URI: uri, Err: err}
	}
	return s, nil
}

// Fetch returns the raw bytes of uri and their media type.
func (l *AssetLoader) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch {
	case isRemote(uri):
		data, contentType, err = l.get(ctx, uri)
	case l.remoteOnly:
		err = ErrNotRemote
	default:
		data, err = l.readFile(strings.TrimPrefix(uri, "file://"))
	}
	if err != nil {
		return nil, "", &AssetLoadError{URI: uri, Err: err}
	}
	return data, detect(data, contentType), nil
}

func isRemote(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (l *AssetLoader) get(ctx context.Context, url string) ([]byte, string, error) {
	log.Printf("Retrieving: %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	res, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch from %s: %w", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode > 299 {
		return nil, "", fmt.Errorf("http status response from %s: %s", url, res.Status)
	}

	data, err := l.readAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	return data, res.Header.Get("Content-Type"), nil
}

func (l *AssetLoader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readAll(f)
}

func (l *AssetLoader) readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.maxBytes)
	}
	return data, nil
}

// detect trusts a declared image type and sniffs everything else.
func detect(data []byte, declared string) string {
	if strings.HasPrefix(strings.ToLower(declared), "image/") {
		return declared
	}
	return mimetype.Detect(data).String()
}
