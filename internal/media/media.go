package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/youruser/potwapp/internal/util"
)

var ErrNotDataURL = errors.New("media: expected a base64 data URL")

// Uploader stores a finished card and returns a URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, name, dataURL string) (string, error)
}

// Local writes uploads into Dir and serves them under BaseURL.
type Local struct {
	Dir     string
	BaseURL string
}

func (l Local) Upload(ctx context.Context, name, dataURL string) (string, error) {
	mime, data, err := decodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := ".png"
	if mime == "image/jpeg" {
		ext = ".jpeg"
	}
	file := filepath.Base(strings.TrimSpace(name))
	if file == "" || file == "." || file == "/" {
		file = "card"
	}
	file += ext
	if err := util.WriteFileAtomic(filepath.Join(l.Dir, file), data); err != nil {
		return "", fmt.Errorf("media: write %s: %w", file, err)
	}
	return strings.TrimRight(l.BaseURL, "/") + "/" + file, nil
}

func decodeDataURL(s string) (mime string, data []byte, err error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrNotDataURL
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotDataURL, err)
	}
	return strings.TrimSuffix(meta, ";base64"), data, nil
}
