package curriculum

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Preview is a local playback handle for a file that has not been uploaded.
type Preview interface {
	Token() string
	URL() string
	Release()
}

// PreviewRegistry hands out previews and tracks the ones still alive so the
// gateway can stream them and tests can prove none leak.
type PreviewRegistry struct {
	baseURL string

	mu   sync.Mutex
	live map[string]FileHandle
}

// NewPreviewRegistry creates a registry whose preview URLs start with baseURL
func NewPreviewRegistry(baseURL string) *PreviewRegistry {
	return &PreviewRegistry{
		baseURL: baseURL,
		live:    make(map[string]FileHandle),
	}
}

// Open registers a preview for f
func (r *PreviewRegistry) Open(f FileHandle) Preview {
	token := uuid.NewString()
	r.mu.Lock()
	r.live[token] = f
	r.mu.Unlock()
	return &preview{registry: r, token: token}
}

// Lookup returns the file behind a live preview token
func (r *PreviewRegistry) Lookup(token string) (FileHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.live[token]
	return f, ok
}

// Live returns the number of previews not yet released
func (r *PreviewRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *PreviewRegistry) release(token string) {
	r.mu.Lock()
	delete(r.live, token)
	r.mu.Unlock()
}

type preview struct {
	registry *PreviewRegistry
	token    string
	once     sync.Once
}

func (p *preview) Token() string { return p.token }

func (p *preview) URL() string {
	return fmt.Sprintf("%s/%s", p.registry.baseURL, p.token)
}

// Release is idempotent
func (p *preview) Release() {
	p.once.Do(func() { p.registry.release(p.token) })
}
