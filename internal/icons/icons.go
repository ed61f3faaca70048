// Package icons resolves application icons by name. Lookups go through an
// opaque uid: Query maps a name and size to a uid (0 means no icon) and Get
// returns the renderable surface for a uid.
package icons

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/wlpick/wlpick/internal/logger"
)

// Fetcher is the icon subsystem boundary consumed by the window mode.
type Fetcher interface {
	// Query resolves an icon name at the given pixel size and returns an
	// opaque uid, or 0 when no icon is found. Lookup failures are misses,
	// never errors.
	Query(name string, size int) uint32

	// Get returns the surface for a uid previously returned by Query.
	// Get(0) returns nil.
	Get(uid uint32) image.Image
}

// candidate pixel sizes to probe in theme directories, closest first.
var probeSizes = []int{512, 256, 128, 96, 64, 48, 32, 24, 16}

// ThemeFetcher loads PNG icons from XDG icon directories and scales them to
// the requested size. Hits are cached by name and size; misses are not, so
// icons installed after a failed lookup are picked up by a later query.
type ThemeFetcher struct {
	dirs     []string
	hits     map[string]uint32
	surfaces map[uint32]image.Image
	nextUID  uint32
}

// NewThemeFetcher creates a fetcher over the given base directories. With
// no directories the XDG data directories are used.
func NewThemeFetcher(dirs ...string) *ThemeFetcher {
	if len(dirs) == 0 {
		dirs = xdgDataDirs()
	}
	return &ThemeFetcher{
		dirs:     dirs,
		hits:     make(map[string]uint32),
		surfaces: make(map[uint32]image.Image),
	}
}

func xdgDataDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share"))
	}
	data := os.Getenv("XDG_DATA_DIRS")
	if data == "" {
		data = "/usr/local/share:/usr/share"
	}
	dirs = append(dirs, strings.Split(data, ":")...)
	return dirs
}

func (f *ThemeFetcher) Query(name string, size int) uint32 {
	if name == "" || size <= 0 {
		return 0
	}

	key := fmt.Sprintf("%s|%d", name, size)
	if uid, ok := f.hits[key]; ok {
		return uid
	}

	icon := f.load(name, size)
	if icon == nil {
		return 0
	}

	f.nextUID++
	uid := f.nextUID
	f.hits[key] = uid
	f.surfaces[uid] = icon
	return uid
}

func (f *ThemeFetcher) Get(uid uint32) image.Image {
	if uid == 0 {
		return nil
	}
	return f.surfaces[uid]
}

func (f *ThemeFetcher) load(name string, size int) image.Image {
	for _, path := range f.candidates(name, size) {
		src, err := decodePNG(path)
		if err != nil {
			continue
		}
		logger.WithComponent("icons").Debug().
			Str("name", name).
			Str("path", path).
			Msg("icon resolved")
		return scale(src, size)
	}
	return nil
}

func (f *ThemeFetcher) candidates(name string, size int) []string {
	sizes := append([]int{size}, probeSizes...)
	var paths []string
	for _, dir := range f.dirs {
		for _, s := range sizes {
			paths = append(paths, filepath.Join(
				dir, "icons", "hicolor", fmt.Sprintf("%dx%d", s, s), "apps", name+".png"))
		}
		paths = append(paths, filepath.Join(dir, "pixmaps", name+".png"))
	}
	return paths
}

func decodePNG(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return png.Decode(file)
}

func scale(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == size && bounds.Dy() == size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
