package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/youruser/potwapp/internal/util"
)

var ErrEmptyURL = errors.New("empty image url")

// Fetcher loads and decodes an image by URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (image.Image, error)
}

// HTTPFetcher downloads images over HTTP(S) and decodes inline data: URLs.
// When CacheBust is set every remote request carries a unique query
// parameter so an image that failed earlier in the session is requested
// again instead of being served from an intermediate cache.
type HTTPFetcher struct {
	Client    *http.Client
	CacheBust bool

	seq atomic.Uint64
}

func NewHTTPFetcher(timeout time.Duration, cacheBust bool) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		CacheBust: cacheBust,
	}
}

// Fetch downloads and decodes a single image.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	if strings.HasPrefix(rawURL, "data:") {
		return DecodeDataURL(rawURL)
	}
	target := rawURL
	if f.CacheBust {
		target = f.bust(rawURL)
	}
	body, err := util.GetBytes(ctx, f.client(), target)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return img, nil
}

func (f *HTTPFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *HTTPFetcher) bust(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	stamp := strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(f.seq.Add(1), 36)
	q.Set("_cb", stamp)
	u.RawQuery = q.Encode()
	return u.String()
}

// DecodeDataURL decodes a base64 "data:image/...;base64," URL.
func DecodeDataURL(dataURL string) (image.Image, error) {
	head, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(head, "data:") {
		return nil, errors.New("malformed data url")
	}
	if !strings.HasSuffix(head, ";base64") {
		return nil, errors.New("data url is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data url image: %w", err)
	}
	return img, nil
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, rawURL string) (image.Image, error)

func (fn FetcherFunc) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	return fn(ctx, rawURL)
}
