package display

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/1broseidon/winbridge/internal/indev"
)

// ErrInvalidSize is returned when a display is created with a non-positive
// resolution.
var ErrInvalidSize = errors.New("display size must be positive")

// Registry maps texture ids to their pixel sources. A texture is either a
// static image or the output of a Display.
type Registry struct {
	nextID   uint32
	images   map[uint32]image.Image
	displays map[uint32]*Display
	inputs   *indev.Manager
	logger   *slog.Logger
}

// NewRegistry creates an empty texture registry. inputs is used to cascade
// device deletion when a display goes away and may be nil.
func NewRegistry(inputs *indev.Manager, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		images:   make(map[uint32]image.Image),
		displays: make(map[uint32]*Display),
		inputs:   inputs,
		logger:   logger,
	}
}

func (r *Registry) allocID() uint32 {
	r.nextID++
	return r.nextID
}

// CreateDisplay creates a display of the given resolution and publishes it
// under a fresh texture id.
func (r *Registry) CreateDisplay(width, height int) (*Display, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	d := newDisplay(r.allocID(), width, height)
	r.displays[d.textureID] = d
	r.logger.Debug("display created", "texture_id", d.textureID, "width", width, "height", height)
	return d, nil
}

// DeleteDisplay removes d and every input device bound to it.
func (r *Registry) DeleteDisplay(d *Display) {
	if d == nil {
		return
	}
	if _, ok := r.displays[d.textureID]; !ok {
		return
	}
	delete(r.displays, d.textureID)
	removed := 0
	if r.inputs != nil {
		removed = r.inputs.DeleteForTarget(d)
	}
	d.close()
	r.logger.Debug("display deleted", "texture_id", d.textureID, "devices_removed", removed)
}

// AddTexture publishes a static image and returns its texture id.
func (r *Registry) AddTexture(img image.Image) uint32 {
	id := r.allocID()
	r.images[id] = img
	return id
}

// LoadTexture decodes an image file (png, jpeg, bmp, tiff or webp) and
// publishes it.
func (r *Registry) LoadTexture(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open texture %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode texture %s: %w", path, err)
	}
	id := r.AddTexture(img)
	r.logger.Debug("texture loaded", "texture_id", id, "path", path, "format", format)
	return id, nil
}

// RemoveTexture drops a static image. Display textures are removed with
// DeleteDisplay.
func (r *Registry) RemoveTexture(id uint32) {
	delete(r.images, id)
}

// Texture returns the current pixels for a texture id.
func (r *Registry) Texture(id uint32) (image.Image, bool) {
	if d, ok := r.displays[id]; ok {
		return d.Image(), true
	}
	img, ok := r.images[id]
	return img, ok
}

// DisplayForTexture returns the display publishing id, or nil if the texture
// is static or unknown.
func (r *Registry) DisplayForTexture(id uint32) *Display {
	return r.displays[id]
}

// Displays returns the number of live displays.
func (r *Registry) Displays() int {
	return len(r.displays)
}
