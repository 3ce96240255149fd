// Package assets resolves image references (floorplan backgrounds, QR codes
// and device/protocol icons) to URLs, falling back to a glyph when the image
// does not exist.
package assets

import (
	"context"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
)

const (
	// IconPrefix is the URL prefix of the built-in icon set.
	IconPrefix = "/assets/icons/"
	// FallbackGlyph is drawn when nothing better is known.
	FallbackGlyph = "?"

	defaultCacheTTL = 30 * time.Second
	lookupTimeout   = 2 * time.Second
)

// FileChecker reports whether an uploaded file exists. storage.Store implements it.
type FileChecker interface {
	Exists(ctx context.Context, ref string) bool
}

// Resolver resolves image references. It is safe for concurrent use.
type Resolver struct {
	icons fs.FS
	files FileChecker
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	ok      bool
	expires time.Time
}

// NewResolver creates a resolver over an icon tree (devices/, protocols/) and
// the upload store. Either may be nil.
func NewResolver(icons fs.FS, files FileChecker) *Resolver {
	return &Resolver{
		icons: icons,
		files: files,
		ttl:   defaultCacheTTL,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

// Resolve returns the URL of ref, or a fallback carrying glyph when ref is
// empty, malformed or missing. An empty glyph becomes "?".
func (r *Resolver) Resolve(ref, glyph string) models.ImageRef {
	if glyph == "" {
		glyph = FallbackGlyph
	}
	fallback := models.ImageRef{Ref: ref, Fallback: true, Glyph: glyph}

	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return fallback
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return models.ImageRef{Ref: ref, URL: ref}
	case strings.HasPrefix(ref, IconPrefix):
		if r.iconExists(strings.TrimPrefix(ref, IconPrefix)) {
			return models.ImageRef{Ref: ref, URL: ref}
		}
	case strings.HasPrefix(ref, storage.RefPrefix):
		if r.fileExists(ref) {
			return models.ImageRef{Ref: ref, URL: ref}
		}
	}
	return fallback
}

// DeviceIcon resolves the icon of a device type.
func (r *Resolver) DeviceIcon(deviceType string) models.ImageRef {
	return r.Resolve(IconRef("devices", deviceType), FallbackGlyph)
}

// ProtocolIcon resolves the icon of a protocol. The fallback glyph is the
// protocol's uppercase initial.
func (r *Resolver) ProtocolIcon(protocol string) models.ImageRef {
	return r.Resolve(IconRef("protocols", protocol), Initial(protocol))
}

// IconRef returns "/assets/icons/<folder>/<value lowercased>.png", or "" for
// an empty value.
func IconRef(folder, value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	return IconPrefix + folder + "/" + value + ".png"
}

// Initial returns the uppercase first letter of s, or "?".
func Initial(s string) string {
	s = strings.TrimSpace(s)
	ch, _ := utf8.DecodeRuneInString(s)
	if ch == utf8.RuneError || !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
		return FallbackGlyph
	}
	return string(unicode.ToUpper(ch))
}

func (r *Resolver) iconExists(name string) bool {
	if r.icons == nil || !fs.ValidPath(name) || path.Clean(name) != name {
		return false
	}
	st, err := fs.Stat(r.icons, name)
	return err == nil && !st.IsDir()
}

func (r *Resolver) fileExists(ref string) bool {
	if r.files == nil {
		return false
	}
	if _, _, err := storage.ParseRef(ref); err != nil {
		return false
	}

	now := r.now()
	r.mu.Lock()
	if e, ok := r.cache[ref]; ok && now.Before(e.expires) {
		r.mu.Unlock()
		return e.ok
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	ok := r.files.Exists(ctx, ref)

	r.mu.Lock()
	r.cache[ref] = cacheEntry{ok: ok, expires: now.Add(r.ttl)}
	r.mu.Unlock()
	return ok
}

// Forget drops a cached lookup, e.g. after the file was uploaded or deleted.
func (r *Resolver) Forget(ref string) {
	r.mu.Lock()
	delete(r.cache, ref)
	r.mu.Unlock()
}
