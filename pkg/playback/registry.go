// Package playback owns preview-playback exclusivity for the presentation
// layer. The timeline engines have no playback concept and never import this
// package.
package playback

import "sync"

// Registry enforces at-most-one active playback per asset kind. It replaces
// the global "currently playing" singleton with an explicit object the
// presentation layer owns.
type Registry struct {
	mu     sync.Mutex
	active map[string]string // kind -> playing asset id
}

// NewRegistry creates an empty playback registry
func NewRegistry() *Registry {
	return &Registry{active: make(map[string]string)}
}

// Play marks the asset as playing for its kind and returns the id of the
// asset that was displaced, if any
func (r *Registry) Play(assetID, kind string) (stopped string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.active[kind]
	if previous == assetID {
		return ""
	}
	r.active[kind] = assetID
	return previous
}

// Stop clears the asset if it is currently playing
func (r *Registry) Stop(assetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for kind, id := range r.active {
		if id == assetID {
			delete(r.active, kind)
		}
	}
}

// Active returns the asset currently playing for the kind, or empty
func (r *Registry) Active(kind string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active[kind]
}
