package asset

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-ar/common"
	"github.com/Carmen-Shannon/oxy-ar/engine/gpu"
)

// fileTextureLoader is the implementation of the TextureLoader interface backed by the
// file system and embedded image bytes.
type fileTextureLoader struct {
	baseDir string

	mu    sync.Mutex
	cache map[string]gpu.Texture
}

var _ TextureLoader = &fileTextureLoader{}

// NewFileTextureLoader creates a TextureLoader that decodes PNG, JPEG, BMP, TIFF and WebP
// images. Relative paths resolve against baseDir. Textures are cached by reference key and
// color space so shared maps are uploaded once.
//
// Parameters:
//   - baseDir: the directory relative paths resolve against
//
// Returns:
//   - TextureLoader: the loader
func NewFileTextureLoader(baseDir string) TextureLoader {
	return &fileTextureLoader{baseDir: baseDir, cache: make(map[string]gpu.Texture)}
}

func (l *fileTextureLoader) LoadTexture(device gpu.Device, ref TextureRef, srgb bool) gpu.Texture {
	key := ref.Key()
	if srgb {
		key += "#srgb"
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if tex, ok := l.cache[key]; ok {
		return tex
	}

	data := ref.Data
	if len(data) == 0 {
		if ref.Path == "" {
			return nil
		}
		path := ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.baseDir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			common.Logger().Warn("failed to read texture", "path", path, "error", err)
			return nil
		}
		data = b
	}

	staging, format, err := common.DecodeImage(data)
	if err != nil {
		common.Logger().Warn("failed to decode texture", "texture", ref.Key(), "error", err)
		return nil
	}
	pixelFormat := gpu.PixelFormatRGBA8Unorm
	if srgb {
		pixelFormat = gpu.PixelFormatRGBA8UnormSRGB
	}
	tex, err := device.MakeTexture(gpu.TextureDescriptor{
		Label:     ref.Key(),
		Format:    pixelFormat,
		Width:     int(staging.Width),
		Height:    int(staging.Height),
		MipLevels: 1,
		Usage:     gpu.TextureUsageShaderRead | gpu.TextureUsageCopyDestination,
	})
	if err != nil {
		common.Logger().Warn("failed to create texture", "texture", ref.Key(), "error", err)
		return nil
	}
	if err := tex.Replace(staging.Pixels, int(staging.Width)*4); err != nil {
		tex.Release()
		common.Logger().Warn("failed to upload texture", "texture", ref.Key(), "error", err)
		return nil
	}
	common.Logger().Debug("texture loaded", "texture", ref.Key(), "format", format, "width", staging.Width, "height", staging.Height)
	l.cache[key] = tex
	return tex
}
