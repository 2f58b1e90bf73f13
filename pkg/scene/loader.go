// pkg/scene/loader.go
// Copyright(c) 2022-2026 scenegl contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scene

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mmp/scenegl/pkg/log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// DecodeImage decodes a PNG, JPEG, BMP, TIFF, or WebP image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	return img, err
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Loader loads texture images in the background. Textures are returned
// immediately in the pending state; their images are published when
// decoding finishes, at which point the renderer uploads them the next
// time they are used.
type Loader struct {
	lg   *log.Logger
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func NewLoader(lg *log.Logger) *Loader {
	return &Loader{lg: lg}
}

func (l *Loader) fail(err error) {
	l.lg.Warn("texture load failed", slog.Any("error", err))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *Loader) LoadTexture2D(path string) *Texture2D {
	t := NewTexture2D()
	t.MarkPending()

	l.wg.Go(func() {
		start := time.Now()
		img, err := loadImage(path)
		if err != nil {
			l.fail(err)
			return
		}
		t.SetImage(img)
		l.lg.Debug("loaded texture", slog.String("path", path), slog.Duration("elapsed", time.Since(start)))
	})

	return t
}

// LoadTextureCube loads the six faces of a cube map, ordered +X, -X, +Y,
// -Y, +Z, -Z, decoding them in parallel. The cube's faces are only
// published if all of them load successfully.
func (l *Loader) LoadTextureCube(paths [6]string) *TextureCube {
	t := NewTextureCube()
	t.MarkPending()

	l.wg.Go(func() {
		var faces [6]image.Image
		var eg errgroup.Group
		for i, path := range paths {
			eg.Go(func() error {
				var err error
				faces[i], err = loadImage(path)
				return err
			})
		}
		if err := eg.Wait(); err != nil {
			l.fail(err)
			return
		}
		t.SetFaces(faces)
	})

	return t
}

// Wait blocks until all pending loads have finished and returns any
// errors that occurred.
func (l *Loader) Wait() error {
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	return errors.Join(l.errs...)
}
