package capture

import (
	"sync"

	"github.com/youruser/potwapp/internal/render"
)

// Surface holds the scene a capture reads from. A surface with nothing
// mounted is not ready and cannot be captured.
type Surface struct {
	mu    sync.RWMutex
	scene *render.Scene
	name  string
}

func NewSurface() *Surface { return &Surface{} }

// Mount replaces the mounted scene. name becomes the base of the download
// filename; empty means "card".
func (s *Surface) Mount(scene *render.Scene, name string) {
	s.mu.Lock()
	s.scene, s.name = scene, name
	s.mu.Unlock()
}

func (s *Surface) Detach() {
	s.mu.Lock()
	s.scene, s.name = nil, ""
	s.mu.Unlock()
}

// Snapshot returns the mounted scene and its name.
func (s *Surface) Snapshot() (*render.Scene, string, bool) {
	if s == nil {
		return nil, "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scene, s.name, s.scene != nil
}
