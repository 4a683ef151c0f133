package stack

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // Register PNG format decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/tiff" // Register TIFF format decoder (single-page fallback)
)

// ErrUnreadableFormat reports input that exists on disk but cannot be
// interpreted as an image stack: undecodable bytes, a directory with no
// frame files, or frames whose dimensions disagree.
var ErrUnreadableFormat = errors.New("unreadable stack format")

// Load reads an image stack from path.
//
// Accepted layouts:
//   - a multi-page grayscale TIFF (one frame per page);
//   - any single-image file Go can decode, yielding a one-frame stack;
//   - a directory of per-frame image files, ordered by filename.
//
// A missing path returns an error satisfying errors.Is(err, fs.ErrNotExist).
// Undecodable content wraps ErrUnreadableFormat.
func Load(path string) (*Stack, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stack: %w", err)
	}
	if info.IsDir() {
		return loadDir(path)
	}
	frames, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	return assemble(frames)
}

// frameExtensions lists the per-frame file suffixes recognized in
// directory mode. Anything else in the directory is ignored.
var frameExtensions = map[string]bool{
	".tif":  true,
	".tiff": true,
	".png":  true,
}

func loadDir(dir string) (*Stack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no frame files in %s", ErrUnreadableFormat, dir)
	}
	sort.Strings(names)

	var frames []Frame
	for _, name := range names {
		fs, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		frames = append(frames, fs...)
	}
	return assemble(frames)
}

// loadFile reads one file, which may itself contain several frames.
func loadFile(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	frames, err := decodeMultipageTIFF(f, info.Size())
	if err == nil {
		return frames, nil
	}
	if !errors.Is(err, errTIFFUnsupported) {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFormat, path, err)
	}

	// Not a baseline grayscale TIFF. Let the registered decoders have it;
	// only the first frame of a multi-page file is visible this way.
	if _, err := f.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFormat, path, err)
	}
	return []Frame{FrameFromImage(img)}, nil
}

// assemble validates dimensional consistency and builds the Stack value.
func assemble(frames []Frame) (*Stack, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames decoded", ErrUnreadableFormat)
	}
	height := len(frames[0])
	width := 0
	if height > 0 {
		width = len(frames[0][0])
	}
	for i, f := range frames {
		h := len(f)
		w := 0
		if h > 0 {
			w = len(f[0])
		}
		if h != height || w != width {
			return nil, fmt.Errorf("%w: frame %d is %dx%d, expected %dx%d",
				ErrUnreadableFormat, i, w, h, width, height)
		}
	}
	return &Stack{Frames: frames, Height: height, Width: width}, nil
}

// Cache provides thread-safe caching of loaded stacks to avoid redundant
// disk reads. Stacks are keyed by the exact path string used to load them.
//
// Cached stacks remain in memory until explicitly removed via Evict() or
// Clear(). Long-running processes handling many stacks should evict once a
// stack is no longer needed.
type Cache struct {
	mu     sync.RWMutex
	stacks map[string]*Stack
}

// NewCache creates an empty stack cache, ready for concurrent use.
func NewCache() *Cache {
	return &Cache{
		stacks: make(map[string]*Stack),
	}
}

// Load retrieves a stack from the cache or loads it from disk if not cached.
func (c *Cache) Load(path string) (*Stack, error) {
	c.mu.RLock()
	if s, ok := c.stacks[path]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stacks[path] = s
	c.mu.Unlock()

	return s, nil
}

// Evict removes a specific stack from the cache by its path.
// If the path is not cached, Evict does nothing.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.stacks, path)
	c.mu.Unlock()
}

// Clear removes all stacks from the cache, freeing the associated memory.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.stacks = make(map[string]*Stack)
	c.mu.Unlock()
}
