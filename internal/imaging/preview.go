package imaging

import (
	"sync"

	"github.com/google/uuid"
)

const previewScheme = "preview:"

// Preview describes a pending image without its bytes.
type Preview struct {
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Previews is a registry of revocable preview handles. Whoever opens a handle
// owns its revocation.
type Previews struct {
	mu    sync.RWMutex
	files map[string]File
}

func NewPreviews() *Previews {
	return &Previews{files: make(map[string]File)}
}

// Open allocates a new handle for f.
func (p *Previews) Open(f File) Preview {
	handle := previewScheme + uuid.NewString()
	p.mu.Lock()
	p.files[handle] = f
	p.mu.Unlock()
	return Preview{
		Handle:      handle,
		Name:        f.Name,
		ContentType: f.ContentType,
		Size:        f.Size(),
		Width:       f.Width,
		Height:      f.Height,
	}
}

func (p *Previews) Get(handle string) (File, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.files[handle]
	return f, ok
}

// Revoke releases handle. It reports whether the handle was live.
func (p *Previews) Revoke(handle string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[handle]; !ok {
		return false
	}
	delete(p.files, handle)
	return true
}

// RevokeAll releases every handle and returns how many were live.
func (p *Previews) RevokeAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.files)
	p.files = make(map[string]File)
	return n
}

func (p *Previews) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// IsHandle reports whether ref looks like a preview handle rather than a
// server image URL.
func IsHandle(ref string) bool {
	return len(ref) > len(previewScheme) && ref[:len(previewScheme)] == previewScheme
}
