package capture

import (
	"fmt"
	"path/filepath"

	"github.com/youruser/potwapp/internal/util"
)

// Downloader saves an artifact locally. It runs when no hook is registered
// so a capture is never a no-op.
type Downloader interface {
	Download(a *Artifact) (string, error)
}

// DirDownloader writes artifacts into Dir under their own filename.
type DirDownloader struct {
	Dir string
}

func (d DirDownloader) Download(a *Artifact) (string, error) {
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, a.Filename)
	if err := util.WriteFileAtomic(path, a.Blob); err != nil {
		return "", fmt.Errorf("save %s: %w", a.Filename, err)
	}
	return path, nil
}
